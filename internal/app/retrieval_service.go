package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docqa-backend/internal/model"
)

const defaultTopK = 3

type RetrievalService struct {
	vectorizer *Vectorizer
	chunks     ChunkStore
	topK       int
}

func NewRetrievalService(vectorizer *Vectorizer, chunks ChunkStore, topK int) *RetrievalService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RetrievalService{vectorizer: vectorizer, chunks: chunks, topK: topK}
}

// Search returns the k chunks of orgID nearest to query, closest first.
// k <= 0 selects the configured default. An empty corpus yields an empty slice.
func (s *RetrievalService) Search(ctx context.Context, orgID uuid.UUID, query string, k int) ([]model.ChunkHit, error) {
	if orgID == uuid.Nil || strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	if k <= 0 {
		k = s.topK
	}

	vec, err := s.vectorizer.Vector(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.chunks.Nearest(ctx, orgID, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	out := make([]model.ChunkHit, 0, len(hits))
	for _, h := range hits {
		if h.OrganizationID != orgID {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
