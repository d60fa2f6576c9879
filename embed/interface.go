package embed

import (
	"context"
	"errors"
	"math"
)

var (
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder 定义统一的嵌入接口
type Embedder interface {
	// EmbedText 将文本转换为向量嵌入
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts 批量将多个文本转换为向量嵌入
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension 返回嵌入向量的维度
	Dimension() int

	// Provider 返回提供商名称
	Provider() string
}

// Config 嵌入配置
type Config struct {
	Provider  string // only "hash" today; the gate never calls out to a network encoder
	Dimension int
}

// NewEmbedder 根据配置创建嵌入器
func NewEmbedder(config Config) Embedder {
	switch config.Provider {
	case "hash":
		fallthrough
	default:
		return NewHashEmbedder(config.Dimension)
	}
}

// cosineEpsilon keeps the denominator well-defined when either vector has zero norm.
const cosineEpsilon = 1e-9

// CosineSimilarity 计算两个向量的余弦相似度
// Mismatched lengths and empty inputs degrade to 0 instead of failing.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dotProduct / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon)
}
