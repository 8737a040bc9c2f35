package prompt

import (
	"fmt"
	"strings"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

const (
	// DefaultMaxContextTokens bounds how much retrieved text goes into
	// the prompt, leaving room for history and the answer itself.
	DefaultMaxContextTokens = 3500

	// charsPerToken converts the token budget into a character budget.
	// 3.5 is a safe average across Arabic and French legal text.
	charsPerToken = 3.5

	blockSeparator = "\n\n---\n\n"
)

// EmptyContext is injected when retrieval found nothing. It is a real
// sentence rather than an empty string so the prompt template never
// carries a dangling empty section the model could misread.
const EmptyContext = "Aucun document juridique pertinent n'a été trouvé dans la base de connaissances pour cette question."

// ContextBuilder renders retrieved documents into the reference block
// of a prompt, keeping whole documents only: a document that would
// overflow the character budget is dropped along with everything after
// it, never truncated mid-text.
type ContextBuilder struct {
	maxContextTokens int
}

func NewContextBuilder(maxContextTokens int) *ContextBuilder {
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	return &ContextBuilder{maxContextTokens: maxContextTokens}
}

func (b *ContextBuilder) Build(sources []store.Document) string {
	if len(sources) == 0 {
		return EmptyContext
	}

	budget := int(float64(b.maxContextTokens) * charsPerToken)

	var out strings.Builder
	for i, doc := range sources {
		block := formatBlock(i+1, doc)
		needed := len(block)
		if out.Len() > 0 {
			needed += len(blockSeparator)
		}
		if out.Len()+needed > budget {
			break
		}
		if out.Len() > 0 {
			out.WriteString(blockSeparator)
		}
		out.WriteString(block)
	}

	if out.Len() == 0 {
		return EmptyContext
	}
	return out.String()
}

func formatBlock(n int, doc store.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Source %d] %s\n", n, doc.DocumentName)
	fmt.Fprintf(&b, "Rubrique: %s | Pertinence: %.2f\n", doc.CategoryPath(), doc.Score)
	b.WriteString(doc.Text)
	return b.String()
}
