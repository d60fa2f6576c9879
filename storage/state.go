package storage

import "errors"

// ErrCorruptState marks a persisted document that exists but cannot be
// decoded. Callers are expected to discard it and start from defaults.
var ErrCorruptState = errors.New("corrupt state document")

// State is the durable projection of a gate: the running centroid plus the
// retained resonance history, oldest first.
type State struct {
	GateID   string
	Centroid []float32
	History  []float64
}

// Truncate drops history beyond the most recent limit entries, preserving
// chronological order of what remains.
func (s *State) Truncate(limit int) {
	if limit <= 0 || len(s.History) <= limit {
		return
	}
	s.History = append([]float64(nil), s.History[len(s.History)-limit:]...)
}
