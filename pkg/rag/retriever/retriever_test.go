package retriever

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeChunkStore struct {
	results        []*contract.ScoredLegalChunk
	err            error
	calls          int
	lastLimit      int
	lastCategories []string
}

func (f *fakeChunkStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, categories []string) ([]*contract.ScoredLegalChunk, error) {
	f.calls++
	f.lastLimit = limit
	f.lastCategories = categories
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeChunkStore) Create(ctx context.Context, chunk *entity.LegalChunk) error { return nil }
func (f *fakeChunkStore) CreateBulk(ctx context.Context, chunks []*entity.LegalChunk) error {
	return nil
}
func (f *fakeChunkStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeChunkStore) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (f *fakeChunkStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error) {
	return nil, nil
}
func (f *fakeChunkStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error) {
	return nil, nil
}
func (f *fakeChunkStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func scoredChunk(id uuid.UUID, text string, distance float64) *contract.ScoredLegalChunk {
	return &contract.ScoredLegalChunk{
		Chunk: &entity.LegalChunk{
			Id:           id,
			Text:         text,
			Category:     "moudawana",
			DocumentName: "Moudawana",
		},
		Distance: distance,
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSearchConvertsDistancesAndAppliesFloor(t *testing.T) {
	near := scoredChunk(uuid.New(), "near", 0.3)  // score 0.70
	mid := scoredChunk(uuid.New(), "mid", 0.5)    // score 0.50
	far := scoredChunk(uuid.New(), "far", 0.7)    // score 0.30, below floor
	anti := scoredChunk(uuid.New(), "anti", 1.4)  // clamped to 0

	store := &fakeChunkStore{results: []*contract.ScoredLegalChunk{near, mid, far, anti}}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	docs := r.Search(context.Background(), "divorce", 5, Options{})

	assert.Len(t, docs, 2)
	assert.Equal(t, "near", docs[0].Text)
	assert.InDelta(t, 0.70, docs[0].Score, 1e-9)
	assert.Equal(t, "mid", docs[1].Text)
	assert.InDelta(t, 0.50, docs[1].Score, 1e-9)
}

func TestSearchOverfetchesAndTruncates(t *testing.T) {
	results := make([]*contract.ScoredLegalChunk, 6)
	for i := range results {
		results[i] = scoredChunk(uuid.New(), "chunk", 0.1+float64(i)*0.05)
	}
	store := &fakeChunkStore{results: results}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	docs := r.Search(context.Background(), "heritage", 4, Options{})

	assert.Equal(t, 6, store.lastLimit, "should fetch ceil(4 * 1.5) rows")
	assert.Len(t, docs, 4)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score, docs[i].Score)
	}
}

func TestSearchDefaultsLimit(t *testing.T) {
	store := &fakeChunkStore{}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	r.Search(context.Background(), "licenciement", 0, Options{})

	assert.Equal(t, 8, store.lastLimit, "should fetch ceil(5 * 1.5) rows for the default limit")
}

func TestSearchPassesCategories(t *testing.T) {
	store := &fakeChunkStore{}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	r.Search(context.Background(), "bail", 5, Options{Categories: []string{"droits_reels", "baux"}})

	assert.Equal(t, []string{"droits_reels", "baux"}, store.lastCategories)
}

func TestSearchMinScoreOverride(t *testing.T) {
	weak := scoredChunk(uuid.New(), "weak", 0.6) // score 0.40
	store := &fakeChunkStore{results: []*contract.ScoredLegalChunk{weak}}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	kept := r.Search(context.Background(), "q", 5, Options{})
	dropped := r.Search(context.Background(), "q", 5, Options{MinScore: 0.45})

	assert.Len(t, kept, 1)
	assert.Empty(t, dropped)
}

func TestSearchTieBreaksByID(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	store := &fakeChunkStore{results: []*contract.ScoredLegalChunk{
		scoredChunk(idB, "second", 0.4),
		scoredChunk(idA, "first", 0.4),
	}}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	docs := r.Search(context.Background(), "q", 5, Options{})

	assert.Len(t, docs, 2)
	assert.Equal(t, idA.String(), docs[0].ID)
	assert.Equal(t, idB.String(), docs[1].ID)
}

func TestSearchEmbeddingFailureReturnsEmpty(t *testing.T) {
	store := &fakeChunkStore{}
	r := NewRetriever(&fakeEmbedder{err: errors.New("provider down")}, store, 0.35, testLogger())

	docs := r.Search(context.Background(), "q", 5, Options{})

	assert.NotNil(t, docs)
	assert.Empty(t, docs)
	assert.Zero(t, store.calls, "store should not be queried without an embedding")
}

func TestSearchStoreFailureReturnsEmpty(t *testing.T) {
	store := &fakeChunkStore{err: errors.New("db down")}
	r := NewRetriever(&fakeEmbedder{}, store, 0.35, testLogger())

	docs := r.Search(context.Background(), "q", 5, Options{})

	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}
