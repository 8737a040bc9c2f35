package contract

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredLegalChunk pairs a chunk with the raw cosine distance of the query
// that found it. Distance conversion and thresholding belong to the caller.
type ScoredLegalChunk struct {
	Chunk    *entity.LegalChunk
	Distance float64 // pgvector cosine distance: 0 = identical, 2 = opposite
}

type LegalChunkRepository interface {
	Create(ctx context.Context, chunk *entity.LegalChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.LegalChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar runs a KNN scan over chunk embeddings ordered by cosine
	// distance. An empty categories slice searches the whole knowledge base;
	// a non-empty one restricts to those categories (bound, never inlined).
	SearchSimilar(ctx context.Context, embedding []float32, limit int, categories []string) ([]*ScoredLegalChunk, error)
}
