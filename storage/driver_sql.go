package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type SQLDriver struct {
	a       *SQLAdapter
	dialect string
}

func newSQLDriver(dialect string) driverFactory {
	return func(adapter Adapter) (Driver, error) {
		a, ok := adapter.(*SQLAdapter)
		if !ok {
			return nil, fmt.Errorf("sql driver expects *SQLAdapter, got %T", adapter)
		}
		return &SQLDriver{a: a, dialect: dialect}, nil
	}
}

func (d *SQLDriver) Dialect() string { return d.dialect }

func (d *SQLDriver) Migrate() error {
	if d.a == nil || d.a.DB == nil {
		return nil
	}

	var migrations map[int][]string
	switch d.dialect {
	case "sqlite":
		migrations = sqliteMigrations
	case "postgres":
		migrations = postgresMigrations
	default:
		return fmt.Errorf("unsupported SQL dialect: %s", d.dialect)
	}

	currentVersion := d.getSchemaVersion()
	maxVersion := 1 // Currently only version 1

	if currentVersion >= maxVersion {
		return nil
	}

	tx, err := d.a.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for v := currentVersion + 1; v <= maxVersion; v++ {
		ops, ok := migrations[v]
		if !ok {
			continue
		}

		for _, op := range ops {
			if _, err := tx.Exec(op); err != nil {
				return fmt.Errorf("migration %d failed: %w", v, err)
			}
		}

		var updateSQL string
		if d.dialect == "postgres" {
			if currentVersion == 0 {
				updateSQL = "INSERT INTO manifold_schema_version (num) VALUES ($1)"
			} else {
				updateSQL = "UPDATE manifold_schema_version SET num = $1"
			}
			_, err = tx.Exec(updateSQL, v)
		} else {
			if currentVersion == 0 {
				updateSQL = "INSERT INTO manifold_schema_version (num) VALUES (?)"
			} else {
				updateSQL = "UPDATE manifold_schema_version SET num = ?"
			}
			_, err = tx.Exec(updateSQL, v)
		}
		if err != nil {
			return err
		}
		currentVersion = v
	}

	return tx.Commit()
}

func (d *SQLDriver) getSchemaVersion() int {
	var version sql.NullInt64
	err := d.a.DB.QueryRow("SELECT num FROM manifold_schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows || !version.Valid {
		return 0
	}
	if err != nil {
		return 0
	}
	return int(version.Int64)
}

func (d *SQLDriver) LoadState(gateID string) (*State, error) {
	var query string
	if d.dialect == "postgres" {
		query = "SELECT centroid, history FROM manifold_state WHERE gate_id = $1"
	} else {
		query = "SELECT centroid, history FROM manifold_state WHERE gate_id = ?"
	}

	var centroidBlob []byte
	var historyJSON string
	err := d.a.DB.QueryRow(query, gateID).Scan(&centroidBlob, &historyJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	centroid := decodeVector(centroidBlob)
	if centroid == nil {
		return nil, fmt.Errorf("%w: malformed centroid blob", ErrCorruptState)
	}

	var history []float64
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	return &State{GateID: gateID, Centroid: centroid, History: history}, nil
}

func (d *SQLDriver) SaveState(st *State) error {
	history := st.History
	if history == nil {
		history = []float64{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	now := time.Now()
	var query string
	if d.dialect == "postgres" {
		query = `INSERT INTO manifold_state (gate_id, centroid, history, date_updated)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT(gate_id) DO UPDATE SET
			centroid = excluded.centroid,
			history = excluded.history,
			date_updated = excluded.date_updated`
	} else {
		query = `INSERT INTO manifold_state (gate_id, centroid, history, date_updated)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(gate_id) DO UPDATE SET
			centroid = excluded.centroid,
			history = excluded.history,
			date_updated = excluded.date_updated`
	}
	_, err = d.a.DB.Exec(query, st.GateID, encodeVector(st.Centroid), string(historyJSON), now)
	return err
}
