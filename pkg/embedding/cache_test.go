package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "divorce procedure", "divorce procedure"},
		{"mixed case", "Divorce Procedure", "divorce procedure"},
		{"leading and trailing space", "  divorce procedure  ", "divorce procedure"},
		{"internal whitespace runs", "divorce \t  procedure\n morocco", "divorce procedure morocco"},
		{"arabic untouched apart from spacing", "  ما هي   مسطرة الطلاق  ", "ما هي مسطرة الطلاق"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCacheNormalizedKeysCollide(t *testing.T) {
	c := NewCache(10)
	c.Set("  Hello   World ", []float32{1, 2})

	got, ok := c.Get("hello world")
	if !ok {
		t.Fatal("expected hit for normalized-equal key")
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got vector %v, want [1 2]", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(3)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	// "a" is now least recently used. Inserting a fourth entry evicts it.
	c.Set("d", []float32{4})

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := NewCache(3)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Set("d", []float32{4})

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted after a was refreshed")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
}

func TestCacheSetExistingRefreshesWithoutGrowth(t *testing.T) {
	c := NewCache(3)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	// Overwriting "a" must refresh it, not duplicate it.
	c.Set("a", []float32{9})
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}

	c.Set("d", []float32{4})
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted, not a")
	}
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected a to survive with refreshed value")
	}
	if got[0] != 9 {
		t.Errorf("a = %v, want updated value [9]", got)
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after Clear")
	}

	// Cache must stay usable after Clear.
	c.Set("c", []float32{3})
	if _, ok := c.Get("c"); !ok {
		t.Error("expected hit after re-populating cleared cache")
	}
}

func TestCacheCapacityNeverExceeded(t *testing.T) {
	c := NewCache(5)
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("query-%d", i), []float32{float32(i)})
		if c.Len() > 5 {
			t.Fatalf("Len = %d exceeds capacity 5 after %d inserts", c.Len(), i+1)
		}
	}
	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5", c.Len())
	}
}

// countingProvider records Generate calls and serves canned vectors.
type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("embed backend down")
	}
	return []float32{float32(len(text))}, nil
}

func (p *countingProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	p.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func TestCachedProviderHitSkipsBackend(t *testing.T) {
	inner := &countingProvider{}
	var hits, misses int
	p := NewCachedProvider(inner, NewCache(10), func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	ctx := context.Background()
	if _, err := p.Generate(ctx, "What is divorce?", TaskRetrievalQuery); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if _, err := p.Generate(ctx, "what   is divorce?", TaskRetrievalQuery); err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("backend calls = %d, want 1", inner.calls)
	}
	if hits != 1 || misses != 1 {
		t.Errorf("telemetry hits=%d misses=%d, want 1/1", hits, misses)
	}
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{fail: true}
	p := NewCachedProvider(inner, NewCache(10), nil)

	ctx := context.Background()
	if _, err := p.Generate(ctx, "query", TaskRetrievalQuery); err == nil {
		t.Fatal("expected error from failing backend")
	}

	inner.fail = false
	vector, err := p.Generate(ctx, "query", TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Generate after recovery: %v", err)
	}
	if len(vector) == 0 {
		t.Error("expected vector after backend recovery")
	}
	if inner.calls != 2 {
		t.Errorf("backend calls = %d, want 2 (failure must not be cached)", inner.calls)
	}
}
