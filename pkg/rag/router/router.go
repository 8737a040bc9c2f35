package router

import (
	"context"
	"log"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

// Confidence buckets derived from the mean relevance of the sources
// actually handed to the prompt.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
	ConfidenceNone   = "none"
)

// Retrieval depth per complexity. Complex questions fetch more, need
// more hits before we trust a narrow filter, and get a bigger context.
const (
	simpleLimit  = 5
	complexLimit = 8

	simpleBroadenThreshold  = 2
	complexBroadenThreshold = 4

	simpleContextLimit  = 4
	complexContextLimit = 6

	highConfidenceMean   = 0.49
	mediumConfidenceMean = 0.45
)

// Result is what the answer pipeline needs to know about retrieval:
// whether the knowledge base was consulted at all, which sources to
// put in the prompt, and how much to trust them.
type Result struct {
	NeedsRAG           bool
	Sources            []store.Document
	SearchedCategories []string
	Confidence         string
	Broadened          bool
}

// Router runs category-filtered retrieval for legal questions and
// broadens to the whole knowledge base when the filter comes back too
// thin. Casual intents skip retrieval entirely.
type Router struct {
	retriever *retriever.Retriever
	logger    *log.Logger
}

func NewRouter(ret *retriever.Retriever, logger *log.Logger) *Router {
	return &Router{
		retriever: ret,
		logger:    logger,
	}
}

func (r *Router) Route(ctx context.Context, query string, it *intent.Intent) Result {
	if it.IsCasual() {
		return Result{
			NeedsRAG:   false,
			Sources:    []store.Document{},
			Confidence: ConfidenceNone,
		}
	}

	limit := simpleLimit
	broadenAt := simpleBroadenThreshold
	contextLimit := simpleContextLimit
	if it.IsComplex() {
		limit = complexLimit
		broadenAt = complexBroadenThreshold
		contextLimit = complexContextLimit
	}

	categories := CategoriesForDomain(it.Domain)
	docs := r.retriever.Search(ctx, query, limit, retriever.Options{Categories: categories})

	// A near-empty filtered result usually means the question straddles
	// codes the domain table did not predict. Retry without the filter
	// and keep the filtered hits in front.
	broadened := false
	if len(categories) > 0 && len(docs) < broadenAt {
		r.logger.Printf("router: %d hits for domain %q below threshold %d, broadening search", len(docs), it.Domain, broadenAt)
		wider := r.retriever.Search(ctx, query, limit, retriever.Options{})
		docs = store.DedupByID(append(docs, wider...))
		broadened = true
	}

	if len(docs) > contextLimit {
		docs = docs[:contextLimit]
	}

	return Result{
		NeedsRAG:           true,
		Sources:            docs,
		SearchedCategories: categories,
		Confidence:         confidenceFor(docs),
		Broadened:          broadened,
	}
}

func confidenceFor(docs []store.Document) string {
	if len(docs) == 0 {
		return ConfidenceNone
	}
	var sum float64
	for _, d := range docs {
		sum += d.Score
	}
	mean := sum / float64(len(docs))
	switch {
	case mean > highConfidenceMean:
		return ConfidenceHigh
	case mean > mediumConfidenceMean:
		return ConfidenceMedium
	case mean > 0:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
