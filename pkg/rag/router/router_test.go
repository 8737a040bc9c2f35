package router

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
)

type staticEmbedder struct{}

func (staticEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (staticEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// splitChunkStore serves one result set for category-filtered searches
// and another for whole-knowledge-base searches, so broadening is
// observable.
type splitChunkStore struct {
	filtered   []*contract.ScoredLegalChunk
	unfiltered []*contract.ScoredLegalChunk
	calls      int
}

func (s *splitChunkStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, categories []string) ([]*contract.ScoredLegalChunk, error) {
	s.calls++
	if len(categories) > 0 {
		return s.filtered, nil
	}
	return s.unfiltered, nil
}

func (s *splitChunkStore) Create(ctx context.Context, chunk *entity.LegalChunk) error { return nil }
func (s *splitChunkStore) CreateBulk(ctx context.Context, chunks []*entity.LegalChunk) error {
	return nil
}
func (s *splitChunkStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (s *splitChunkStore) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (s *splitChunkStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error) {
	return nil, nil
}
func (s *splitChunkStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error) {
	return nil, nil
}
func (s *splitChunkStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func chunkAt(id uuid.UUID, distance float64) *contract.ScoredLegalChunk {
	return &contract.ScoredLegalChunk{
		Chunk:    &entity.LegalChunk{Id: id, Text: "chunk", Category: "moudawana"},
		Distance: distance,
	}
}

func newTestRouter(store *splitChunkStore) *Router {
	logger := log.New(io.Discard, "", 0)
	ret := retriever.NewRetriever(staticEmbedder{}, store, 0.35, logger)
	return NewRouter(ret, logger)
}

func legalIntent(domain, complexity string) *intent.Intent {
	return &intent.Intent{Type: intent.TypeLegal, Domain: domain, Complexity: complexity}
}

func TestRouteCasualSkipsRetrieval(t *testing.T) {
	store := &splitChunkStore{}
	r := newTestRouter(store)

	res := r.Route(context.Background(), "salam", &intent.Intent{Type: intent.TypeCasual, Subtype: intent.SubtypeGreeting})

	assert.False(t, res.NeedsRAG)
	assert.Empty(t, res.Sources)
	assert.Equal(t, ConfidenceNone, res.Confidence)
	assert.Zero(t, store.calls)
}

func TestRouteKeepsGoodFilteredResults(t *testing.T) {
	store := &splitChunkStore{
		filtered: []*contract.ScoredLegalChunk{
			chunkAt(uuid.New(), 0.3),
			chunkAt(uuid.New(), 0.4),
		},
	}
	r := newTestRouter(store)

	res := r.Route(context.Background(), "divorce procedure", legalIntent(intent.DomainFamily, intent.ComplexitySimple))

	assert.True(t, res.NeedsRAG)
	assert.False(t, res.Broadened)
	assert.Equal(t, 1, store.calls)
	assert.Len(t, res.Sources, 2)
}

func TestRouteBroadensThinFilteredResults(t *testing.T) {
	shared := uuid.New()
	store := &splitChunkStore{
		filtered: []*contract.ScoredLegalChunk{chunkAt(shared, 0.3)},
		unfiltered: []*contract.ScoredLegalChunk{
			chunkAt(shared, 0.3),
			chunkAt(uuid.New(), 0.35),
			chunkAt(uuid.New(), 0.4),
		},
	}
	r := newTestRouter(store)

	res := r.Route(context.Background(), "divorce et bail", legalIntent(intent.DomainFamily, intent.ComplexitySimple))

	assert.True(t, res.Broadened)
	assert.Equal(t, 2, store.calls)
	assert.Len(t, res.Sources, 3, "merge should drop the duplicate id")
	assert.Equal(t, shared.String(), res.Sources[0].ID, "filtered hits stay in front")
}

func TestRouteNeverBroadensUnfilteredDomains(t *testing.T) {
	store := &splitChunkStore{}
	r := newTestRouter(store)

	res := r.Route(context.Background(), "question inclassable", legalIntent(intent.DomainOther, intent.ComplexitySimple))

	assert.False(t, res.Broadened)
	assert.Equal(t, 1, store.calls, "no category filter means nothing to broaden")
	assert.Empty(t, res.Sources)
	assert.Equal(t, ConfidenceNone, res.Confidence)
}

func TestRouteComplexCapsContext(t *testing.T) {
	results := make([]*contract.ScoredLegalChunk, 8)
	for i := range results {
		results[i] = chunkAt(uuid.New(), 0.2+float64(i)*0.01)
	}
	store := &splitChunkStore{filtered: results}
	r := newTestRouter(store)

	res := r.Route(context.Background(), "succession et donation et testament", legalIntent(intent.DomainFamily, intent.ComplexityComplex))

	assert.False(t, res.Broadened, "eight hits are above the complex threshold")
	assert.Len(t, res.Sources, 6)
}

func TestConfidenceBuckets(t *testing.T) {
	tests := []struct {
		name      string
		distances []float64
		want      string
	}{
		{"high", []float64{0.3, 0.4}, ConfidenceHigh},          // mean 0.65
		{"medium", []float64{0.52, 0.54}, ConfidenceMedium},    // mean 0.47
		{"low", []float64{0.58, 0.62}, ConfidenceLow},          // mean 0.40
		{"none when empty", nil, ConfidenceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := make([]*contract.ScoredLegalChunk, 0, len(tt.distances))
			for _, d := range tt.distances {
				chunks = append(chunks, chunkAt(uuid.New(), d))
			}
			store := &splitChunkStore{filtered: chunks, unfiltered: chunks}
			r := newTestRouter(store)

			res := r.Route(context.Background(), "q", legalIntent(intent.DomainFamily, intent.ComplexitySimple))

			assert.Equal(t, tt.want, res.Confidence)
		})
	}
}
