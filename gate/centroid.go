package gate

import (
	"manifold/embed"
)

// defaultCentroidFill keeps the first resonance denominator non-degenerate.
const defaultCentroidFill = 0.1

// DefaultCentroid returns the cold-start centroid: every component 0.1,
// stored raw (not renormalized).
func DefaultCentroid(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = defaultCentroidFill
	}
	return v
}

// UpdateCentroid folds an embedding into the centroid with an exponential
// moving average and renormalizes the result to unit length. The input
// slices are not mutated. A dimension mismatch leaves the centroid as is.
func UpdateCentroid(centroid, embedding []float32, learningRate float64) []float32 {
	if len(centroid) != len(embedding) {
		return centroid
	}
	lr := float32(learningRate)
	out := make([]float32, len(centroid))
	for i := range centroid {
		out[i] = (1-lr)*centroid[i] + lr*embedding[i]
	}
	return embed.NormalizeVector(out)
}
