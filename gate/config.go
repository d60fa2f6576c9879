package gate

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Tuning surface of the gate. The thresholds are the consequential knobs:
// they decide how eagerly inference is bypassed.
const (
	DefaultDimension          = 128
	DefaultLearningRate       = 0.02
	DefaultResonanceThreshold = 0.85
	DefaultCoherenceThreshold = 0.50
	DefaultHistoryLimit       = 256
	DefaultGateID             = "default"
)

type Config struct {
	mu sync.RWMutex

	// GateID keys the persisted state, so several gates can share one store.
	GateID    string
	SessionID uuid.UUID

	Dimension          int
	LearningRate       float64
	ResonanceThreshold float64
	CoherenceThreshold float64
	HistoryLimit       int

	// StatePath is the default file backend location when no explicit
	// storage connection is supplied.
	StatePath string
}

func newConfig() *Config {
	c := &Config{
		GateID:             DefaultGateID,
		SessionID:          uuid.New(),
		Dimension:          DefaultDimension,
		LearningRate:       DefaultLearningRate,
		ResonanceThreshold: DefaultResonanceThreshold,
		CoherenceThreshold: DefaultCoherenceThreshold,
		HistoryLimit:       DefaultHistoryLimit,
		StatePath:          os.Getenv("MANIFOLD_STATE_PATH"),
	}
	if v := os.Getenv("MANIFOLD_GATE_ID"); v != "" {
		c.GateID = v
	}
	c.LearningRate = envFloat("MANIFOLD_LEARNING_RATE", c.LearningRate)
	c.ResonanceThreshold = envFloat("MANIFOLD_RESONANCE_THRESHOLD", c.ResonanceThreshold)
	c.CoherenceThreshold = envFloat("MANIFOLD_COHERENCE_THRESHOLD", c.CoherenceThreshold)
	c.HistoryLimit = envInt("MANIFOLD_HISTORY_LIMIT", c.HistoryLimit)
	return c
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// FileConfig is the YAML shape accepted by LoadConfigFile. Zero values
// leave the corresponding Config field untouched.
type FileConfig struct {
	GateID             string  `yaml:"gate_id"`
	LearningRate       float64 `yaml:"learning_rate"`
	ResonanceThreshold float64 `yaml:"resonance_threshold"`
	CoherenceThreshold float64 `yaml:"coherence_threshold"`
	HistoryLimit       int     `yaml:"history_limit"`
	StatePath          string  `yaml:"state_path"`
}

// LoadConfigFile applies overrides from a YAML file on top of c.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if fc.GateID != "" {
		c.GateID = fc.GateID
	}
	if fc.LearningRate > 0 {
		c.LearningRate = fc.LearningRate
	}
	if fc.ResonanceThreshold != 0 {
		c.ResonanceThreshold = fc.ResonanceThreshold
	}
	if fc.CoherenceThreshold != 0 {
		c.CoherenceThreshold = fc.CoherenceThreshold
	}
	if fc.HistoryLimit > 0 {
		c.HistoryLimit = fc.HistoryLimit
	}
	if fc.StatePath != "" {
		c.StatePath = fc.StatePath
	}
	return nil
}
