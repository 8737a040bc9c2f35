package prompt

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

func doc(name, category, subcategory, text string, score float64) store.Document {
	return store.Document{
		ID:           uuid.NewString(),
		Text:         text,
		Category:     category,
		Subcategory:  subcategory,
		DocumentName: name,
		Score:        score,
	}
}

func TestBuildEmptySourcesReturnsSentinel(t *testing.T) {
	b := NewContextBuilder(3500)

	out := b.Build(nil)

	assert.Equal(t, EmptyContext, out)
	assert.NotEmpty(t, out)
}

func TestBuildFormatsSourceBlocks(t *testing.T) {
	b := NewContextBuilder(3500)

	out := b.Build([]store.Document{
		doc("Moudawana", "moudawana", "divorce", "Article 78: le divorce est...", 0.72),
		doc("Code du travail", "code_travail", "", "Article 35: le licenciement...", 0.61),
	})

	assert.Contains(t, out, "[Source 1] Moudawana")
	assert.Contains(t, out, "Rubrique: moudawana > divorce | Pertinence: 0.72")
	assert.Contains(t, out, "Article 78: le divorce est...")
	assert.Contains(t, out, "[Source 2] Code du travail")
	assert.Contains(t, out, "Rubrique: code_travail | Pertinence: 0.61")
	assert.Contains(t, out, "\n\n---\n\n")
}

func TestBuildStopsAtBudgetWithoutSplitting(t *testing.T) {
	// 40 tokens * 3.5 = 140 characters of budget.
	b := NewContextBuilder(40)

	first := doc("Doc A", "moudawana", "", strings.Repeat("a", 60), 0.9)
	second := doc("Doc B", "moudawana", "", strings.Repeat("b", 60), 0.8)

	out := b.Build([]store.Document{first, second})

	assert.Contains(t, out, strings.Repeat("a", 60))
	assert.NotContains(t, out, "Doc B", "a block that does not fit whole is dropped")
	assert.NotContains(t, out, strings.Repeat("b", 10))
}

func TestBuildDropsEverythingAfterFirstOverflow(t *testing.T) {
	// Budget fits block one and block three individually, but
	// accumulation is strictly in order: once block two overflows,
	// nothing after it is considered.
	b := NewContextBuilder(60) // 210 characters

	out := b.Build([]store.Document{
		doc("Doc A", "moudawana", "", strings.Repeat("a", 80), 0.9),
		doc("Doc B", "moudawana", "", strings.Repeat("b", 500), 0.8),
		doc("Doc C", "moudawana", "", strings.Repeat("c", 20), 0.7),
	})

	assert.Contains(t, out, "Doc A")
	assert.NotContains(t, out, "Doc B")
	assert.NotContains(t, out, "Doc C")
}

func TestBuildOversizedFirstBlockFallsBackToSentinel(t *testing.T) {
	b := NewContextBuilder(10) // 35 characters, smaller than any block

	out := b.Build([]store.Document{
		doc("Doc A", "moudawana", "", strings.Repeat("a", 200), 0.9),
	})

	assert.Equal(t, EmptyContext, out)
}

func TestBuildDefaultsTokenBudget(t *testing.T) {
	b := NewContextBuilder(0)

	assert.Equal(t, DefaultMaxContextTokens, b.maxContextTokens)
}
