package retriever

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

const (
	// DefaultLimit is used when the caller passes a non-positive limit.
	DefaultLimit = 5

	// DefaultMinScore filters out chunks that are only loosely related to
	// the query. Cosine similarity below this floor is noise in practice.
	DefaultMinScore = 0.35

	// overfetchFactor pulls extra rows from the store so the score floor
	// can discard weak matches without starving the final result set.
	overfetchFactor = 1.5
)

// Options narrows a search to a slice of the knowledge base.
type Options struct {
	// Categories restricts the search to the given legal codes.
	// Empty means the whole knowledge base.
	Categories []string

	// MinScore overrides the retriever's default floor when > 0.
	MinScore float64
}

// Retriever turns a natural-language query into scored knowledge-base
// documents. It embeds the query, runs a vector similarity search and
// converts distances into user-facing relevance scores.
//
// Search never fails from the caller's perspective: embedding or store
// errors are logged and an empty slice is returned, so the answer
// pipeline can always degrade to a context-free reply.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.LegalChunkRepository
	minScore float64
	logger   *log.Logger
}

func NewRetriever(embedder embedding.EmbeddingProvider, chunks contract.LegalChunkRepository, minScore float64, logger *log.Logger) *Retriever {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{
		embedder: embedder,
		chunks:   chunks,
		minScore: minScore,
		logger:   logger,
	}
}

// Search returns at most limit documents relevant to query, ordered by
// descending score. Scores are 1 - cosine distance, clamped at zero.
func (r *Retriever) Search(ctx context.Context, query string, limit int, opts Options) []store.Document {
	if limit <= 0 {
		limit = DefaultLimit
	}

	vector, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		r.logger.Printf("retriever: embedding failed, returning no documents: %v", err)
		return []store.Document{}
	}

	fetchLimit := int(math.Ceil(float64(limit) * overfetchFactor))
	scored, err := r.chunks.SearchSimilar(ctx, vector, fetchLimit, opts.Categories)
	if err != nil {
		r.logger.Printf("retriever: similarity search failed, returning no documents: %v", err)
		return []store.Document{}
	}

	floor := r.minScore
	if opts.MinScore > 0 {
		floor = opts.MinScore
	}

	docs := make([]store.Document, 0, len(scored))
	for _, sc := range scored {
		score := 1 - sc.Distance
		if score < 0 {
			score = 0
		}
		if score < floor {
			continue
		}
		docs = append(docs, store.Document{
			ID:           sc.Chunk.Id.String(),
			Text:         sc.Chunk.Text,
			SourceFile:   sc.Chunk.SourceFile,
			Category:     sc.Chunk.Category,
			Subcategory:  sc.Chunk.Subcategory,
			DocumentName: sc.Chunk.DocumentName,
			DocumentType: sc.Chunk.DocumentType,
			Score:        score,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].ID < docs[j].ID
	})

	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}
