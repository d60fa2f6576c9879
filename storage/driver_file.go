package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileDriver stores the state as a single JSON document. Writes go to a
// temp file in the same directory followed by an atomic rename, so a crash
// mid-write never corrupts the previous document. The file holds exactly
// one gate's state; the gate id is not part of the document.
type FileDriver struct {
	a *FileAdapter
}

// stateDoc is the on-disk format. Field names and array ordering are a
// compatibility surface; history is chronological, oldest first.
type stateDoc struct {
	Centroid []float32 `json:"centroid"`
	History  []float64 `json:"history"`
}

func newFileDriver(adapter Adapter) (Driver, error) {
	a, ok := adapter.(*FileAdapter)
	if !ok {
		return nil, fmt.Errorf("file driver expects *FileAdapter, got %T", adapter)
	}
	return &FileDriver{a: a}, nil
}

func (d *FileDriver) Dialect() string { return "file" }

// Migrate ensures the parent directory exists.
func (d *FileDriver) Migrate() error {
	dir := filepath.Dir(d.a.Path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (d *FileDriver) LoadState(gateID string) (*State, error) {
	data, err := os.ReadFile(d.a.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if len(doc.Centroid) == 0 {
		return nil, fmt.Errorf("%w: missing centroid", ErrCorruptState)
	}

	return &State{GateID: gateID, Centroid: doc.Centroid, History: doc.History}, nil
}

func (d *FileDriver) SaveState(st *State) error {
	doc := stateDoc{Centroid: st.Centroid, History: st.History}
	if doc.History == nil {
		doc.History = []float64{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(d.a.Path)
	tmp, err := os.CreateTemp(dir, ".manifold-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, d.a.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
