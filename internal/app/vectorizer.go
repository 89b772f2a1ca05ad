package app

import (
	"context"
	"fmt"
	"math"
)

// Vectorizer turns text into unit-length vectors of a fixed width. Ingestion
// and retrieval share one instance so stored and query vectors stay comparable.
type Vectorizer struct {
	embedder   Embedder
	dimensions int
}

func NewVectorizer(embedder Embedder, dimensions int) *Vectorizer {
	return &Vectorizer{embedder: embedder, dimensions: dimensions}
}

func (v *Vectorizer) Vector(ctx context.Context, text string) ([]float32, error) {
	raw, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(raw) != v.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEmbeddingDimensionMismatch, len(raw), v.dimensions)
	}
	return normalize(raw), nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
