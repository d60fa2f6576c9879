package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"manifold/embed"
	"manifold/storage"
)

// Gate decides, ahead of an inference call, whether a cached reply can be
// substituted for a full generation pass. It owns the running centroid and
// the resonance history; the full evaluate-then-persist sequence is
// serialized by the gate mutex.
type Gate struct {
	Config *Config

	Storage  *storage.Manager
	Embedder embed.Embedder

	logger *slog.Logger

	mu       sync.Mutex
	centroid []float32
	history  []float64
}

type Option func(*Gate)

func New(opts ...Option) *Gate {
	g := &Gate{
		Config: newConfig(),
	}

	for _, opt := range opts {
		opt(g)
	}

	// Defaults
	if g.Storage == nil {
		g.Storage = storage.NewManager()
		if g.Config.StatePath != "" {
			_ = g.Storage.Start(g.Config.StatePath)
		}
	}
	if g.Embedder == nil {
		g.Embedder = embed.NewHashEmbedder(g.Config.Dimension)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	g.centroid = DefaultCentroid(g.Config.Dimension)
	return g
}

// WithStorageConn starts the storage manager against conn: a file path
// string, an *sql.DB (sqlite or postgres), or a *mongo.Database.
func WithStorageConn(conn any) Option {
	return func(g *Gate) {
		g.Storage = storage.NewManager()
		_ = g.Storage.Start(conn)
	}
}

func WithEmbedder(e embed.Embedder) Option {
	return func(g *Gate) {
		g.Embedder = e
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

func WithConfigFile(path string) Option {
	return func(g *Gate) {
		if err := g.Config.LoadConfigFile(path); err != nil {
			slog.Default().Warn("manifold: config file ignored", "path", path, "error", err)
		}
	}
}

// NewSession rotates the session identity without touching centroid state.
func (g *Gate) NewSession() *Gate {
	g.Config.mu.Lock()
	defer g.Config.mu.Unlock()
	g.Config.SessionID = uuid.New()
	return g
}

// Restore loads persisted state through the storage backend. Missing state,
// a corrupt document, or a dimension mismatch all fall back to the default
// centroid and empty history; none of them surface as an error.
func (g *Gate) Restore() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.centroid = DefaultCentroid(g.Config.Dimension)
	g.history = nil

	driver := g.Storage.Driver()
	if driver == nil {
		return
	}

	st, err := driver.LoadState(g.Config.GateID)
	if err != nil {
		g.logger.Warn("manifold: persisted state discarded",
			"gate_id", g.Config.GateID, "dialect", driver.Dialect(), "error", err)
		return
	}
	if st == nil {
		// cold start
		return
	}
	if len(st.Centroid) != g.Config.Dimension {
		g.logger.Warn("manifold: persisted centroid has wrong dimension",
			"gate_id", g.Config.GateID, "got", len(st.Centroid), "want", g.Config.Dimension)
		return
	}

	g.centroid = st.Centroid
	g.history = st.History
	if limit := g.Config.HistoryLimit; len(g.history) > limit {
		g.history = g.history[len(g.history)-limit:]
	}
}

// Evaluate runs the gating pipeline for one message: embed, score against
// the current centroid, threshold, then fold the embedding into the
// centroid and append the resonance sample. In-memory only; call Persist
// to write the new state.
func (g *Gate) Evaluate(text string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evaluateLocked(text)
}

// EvaluateAndPersist is Evaluate plus a state save under the same lock, for
// hosts that want one call per message. Save failures are logged and
// swallowed; the decision is returned regardless.
func (g *Gate) EvaluateAndPersist(text string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.evaluateLocked(text)
	g.persistLocked()
	return d
}

func (g *Gate) evaluateLocked(text string) Decision {
	emb, err := g.Embedder.EmbedText(context.Background(), text)
	if err != nil {
		// degrade to a rest-state vector; a failed embed must not abort the turn
		g.logger.Warn("manifold: embedding failed", "error", err)
		emb = make([]float32, g.Config.Dimension)
	}

	resonance := Resonance(emb, g.centroid)
	coherence := Coherence(emb)

	g.history = append(g.history, resonance)
	stability := Stability(g.history)

	g.centroid = UpdateCentroid(g.centroid, emb, g.Config.LearningRate)

	return Decision{
		Resonance:    resonance,
		Coherence:    coherence,
		Stability:    stability,
		ShortCircuit: resonance > g.Config.ResonanceThreshold && coherence > g.Config.CoherenceThreshold,
	}
}

// Persist writes the current centroid and the retained history window.
// Persistence is a warm-start optimization, so failures are logged, never
// returned.
func (g *Gate) Persist() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.persistLocked()
}

func (g *Gate) persistLocked() {
	driver := g.Storage.Driver()
	if driver == nil {
		return
	}

	st := g.snapshotLocked()
	st.Truncate(g.Config.HistoryLimit)
	if err := driver.SaveState(st); err != nil {
		g.logger.Warn("manifold: state save failed",
			"gate_id", g.Config.GateID, "dialect", driver.Dialect(), "error", err)
	}
}

// Snapshot returns a copy of the in-memory state.
func (g *Gate) Snapshot() *storage.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() *storage.State {
	st := &storage.State{
		GateID:   g.Config.GateID,
		Centroid: make([]float32, len(g.centroid)),
		History:  make([]float64, len(g.history)),
	}
	copy(st.Centroid, g.centroid)
	copy(st.History, g.history)
	return st
}
