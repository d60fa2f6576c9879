package gate_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifold/gate"
)

func newFileGate(t *testing.T, path string) *gate.Gate {
	t.Helper()
	g := gate.New(gate.WithStorageConn(path), gate.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	require.NoError(t, g.Storage.Build())
	g.Restore()
	return g
}

func TestEvaluate_CentroidDriftsTowardRepeatedInput(t *testing.T) {
	t.Setenv("MANIFOLD_STATE_PATH", "")
	g := gate.New()
	g.Restore()

	first := g.Evaluate("tell me about the weather")
	second := g.Evaluate("tell me about the weather")

	assert.Greater(t, second.Resonance, first.Resonance,
		"repeating the same message must pull resonance toward 1")
	assert.Equal(t, first.Coherence, second.Coherence)
	assert.Equal(t, 1.0, first.Stability, "single-sample history is vacuously stable")
}

func TestEvaluate_EmptyInputIsRestState(t *testing.T) {
	t.Setenv("MANIFOLD_STATE_PATH", "")
	g := gate.New()
	g.Restore()

	d := g.Evaluate("   ")
	assert.InDelta(t, 0.0, d.Resonance, 1e-6)
	assert.Zero(t, d.Coherence)
	assert.False(t, d.ShortCircuit)
}

func TestEvaluate_ShortCircuitThresholds(t *testing.T) {
	t.Setenv("MANIFOLD_STATE_PATH", "")
	g := gate.New()
	g.Config.ResonanceThreshold = -2
	g.Config.CoherenceThreshold = -2
	g.Restore()

	assert.True(t, g.Evaluate("anything at all").ShortCircuit)

	g2 := gate.New()
	g2.Config.ResonanceThreshold = 2 // cosine can never exceed 1
	g2.Restore()
	assert.False(t, g2.Evaluate("anything at all").ShortCircuit)
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	g := newFileGate(t, path)
	for _, msg := range []string{"alpha", "beta", "gamma"} {
		g.EvaluateAndPersist(msg)
	}
	want := g.Snapshot()

	g2 := newFileGate(t, path)
	got := g2.Snapshot()

	require.Len(t, got.Centroid, gate.DefaultDimension)
	for i := range want.Centroid {
		assert.InDelta(t, want.Centroid[i], got.Centroid[i], 1e-6)
	}
	assert.Equal(t, want.History, got.History)
}

func TestRestore_HistoryTruncatedToRetentionWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	g := newFileGate(t, path)
	g.Config.HistoryLimit = 4

	messages := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"}
	for _, msg := range messages {
		g.Evaluate(msg)
	}
	g.Persist()

	// in-memory history is unbounded within a session
	require.Len(t, g.Snapshot().History, len(messages))

	g2 := newFileGate(t, path)
	g2.Config.HistoryLimit = 4
	g2.Restore()
	got := g2.Snapshot()

	require.Len(t, got.History, 4)
	assert.Equal(t, g.Snapshot().History[len(messages)-4:], got.History)
}

func TestRestore_CorruptStateFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	g := newFileGate(t, path)
	st := g.Snapshot()

	require.Len(t, st.Centroid, gate.DefaultDimension)
	for _, x := range st.Centroid {
		require.Equal(t, float32(0.1), x)
	}
	assert.Empty(t, st.History)
}

func TestRestore_MissingFileIsColdStart(t *testing.T) {
	g := newFileGate(t, filepath.Join(t.TempDir(), "state.json"))
	st := g.Snapshot()

	require.Len(t, st.Centroid, gate.DefaultDimension)
	for _, x := range st.Centroid {
		require.Equal(t, float32(0.1), x)
	}
	assert.Empty(t, st.History)
}

func TestPersist_SaveFailureDoesNotAffectDecision(t *testing.T) {
	// point the file backend at a directory so every save fails
	dir := t.TempDir()
	g := gate.New(gate.WithStorageConn(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	g.Restore()

	d := g.EvaluateAndPersist("still returns a decision")
	assert.GreaterOrEqual(t, d.Coherence, 0.0)
	assert.NotPanics(t, func() { g.Persist() })
}

func TestNewSession_RotatesSessionID(t *testing.T) {
	t.Setenv("MANIFOLD_STATE_PATH", "")
	g := gate.New()
	before := g.Config.SessionID
	g.NewSession()
	assert.NotEqual(t, before, g.Config.SessionID)
}
