package embed

import (
	"context"
	"math"
	"strings"
)

const (
	// DefaultDimension is the width of the hashed feature vector.
	DefaultDimension = 128

	// normEpsilon floors the L2 divisor so normalization never divides by zero.
	normEpsilon = 1e-8
)

// HashEmbedder 简单的哈希嵌入器，离线、确定性、无外部词表
//
// It hashes every 3-byte sliding window of the trimmed, lowercased input into
// one of Dimension buckets with a signed magnitude, then L2-normalizes the
// result. Identical text always produces the identical vector.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embedText(text), nil
}

func (e *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = e.embedText(text)
	}
	return result, nil
}

func (e *HashEmbedder) embedText(text string) []float32 {
	v := make([]float32, e.dimension)

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		// rest state: the zero vector, never normalized
		return v
	}

	data := []byte(text)
	for i := range data {
		var b1, b2 byte
		if i+1 < len(data) {
			b1 = data[i+1]
		}
		if i+2 < len(data) {
			b2 = data[i+2]
		}

		h := mixTriple(data[i], b1, b2)
		// equals h & 127 at the default dimension
		idx := int(h % uint32(e.dimension))
		magnitude := 1.0 + float32(h%7)/7.0
		if h&0x80 != 0 {
			magnitude = -magnitude
		}
		v[idx] += magnitude
	}

	return NormalizeVector(v)
}

// mixTriple folds three window bytes through a multiply-xor-shift cascade.
func mixTriple(b0, b1, b2 byte) uint32 {
	h := uint32(0x811c9dc5)
	for _, b := range [3]byte{b0, b1, b2} {
		h ^= uint32(b)
		h *= 0x85ebca6b
		h ^= h >> 13
	}
	h ^= h >> 16
	return h
}

// NormalizeVector scales v to unit L2 norm in place and returns it.
// The divisor is floored at normEpsilon, so an all-zero accumulation
// stays (numerically) zero instead of producing NaN.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	div := math.Sqrt(math.Max(normEpsilon, sumSquares))
	for i := range v {
		v[i] = float32(float64(v[i]) / div)
	}
	return v
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) Provider() string {
	return "hash"
}
