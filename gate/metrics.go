package gate

import (
	"math"

	"manifold/embed"
)

// Resonance is the cosine alignment between an input embedding and the
// running centroid. Zero-norm or mismatched inputs degrade toward 0.
func Resonance(embedding, centroid []float32) float64 {
	return embed.CosineSimilarity(embedding, centroid)
}

// Coherence is the mean absolute magnitude of the embedding's components,
// clamped to 1. It is a concentration proxy, not a semantic measure; the
// short-circuit thresholds are calibrated against this exact definition.
func Coherence(embedding []float32) float64 {
	if len(embedding) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range embedding {
		sum += math.Abs(float64(v))
	}
	return math.Min(1.0, sum/float64(len(embedding)))
}

// Stability (ΔI) is one minus the mean absolute change between consecutive
// resonance samples. Histories shorter than two samples are vacuously
// stable. The result can go negative when resonance oscillates hard.
func Stability(history []float64) float64 {
	if len(history) < 2 {
		return 1.0
	}
	var sumDiff float64
	for i := 1; i < len(history); i++ {
		sumDiff += math.Abs(history[i] - history[i-1])
	}
	return 1.0 - sumDiff/float64(len(history)-1)
}
