package embedding

import "context"

// TelemetrySink receives cache hit/miss signals. Implementations must not
// block: the sink is called inline on the query path.
type TelemetrySink func(hit bool)

// CachedProvider decorates an EmbeddingProvider with the LRU cache. Single
// Generate calls (the query path) are cached; GenerateBatch is passed through
// untouched since document chunks are embedded once at ingest time and would
// only churn the cache.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *Cache
	stats TelemetrySink
}

func NewCachedProvider(inner EmbeddingProvider, cache *Cache, stats TelemetrySink) EmbeddingProvider {
	if cache == nil {
		cache = NewCache(DefaultCacheSize)
	}
	return &CachedProvider{
		inner: inner,
		cache: cache,
		stats: stats,
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	if vector, ok := p.cache.Get(text); ok {
		p.emit(true)
		return vector, nil
	}
	p.emit(false)

	vector, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.Set(text, vector)
	return vector, nil
}

func (p *CachedProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return p.inner.GenerateBatch(ctx, texts, taskType)
}

func (p *CachedProvider) emit(hit bool) {
	if p.stats != nil {
		p.stats(hit)
	}
}
