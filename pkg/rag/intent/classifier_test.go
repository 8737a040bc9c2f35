package intent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
)

type scriptedLLM struct {
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "", options...)
}

func (s *scriptedLLM) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamHandler, options ...llm.Option) error {
	return nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func newTestClassifier(provider *scriptedLLM) *Classifier {
	return NewClassifier(provider, log.New(io.Discard, "", 0))
}

func TestClassifyParsesLegalResponse(t *testing.T) {
	provider := &scriptedLLM{response: `{"type": "legal", "domain": "labor", "complexity": "complex"}`}
	c := newTestClassifier(provider)

	it := c.Classify(context.Background(), "on m'a licencié sans préavis après 5 ans, quels sont mes droits et indemnités ?")

	assert.Equal(t, TypeLegal, it.Type)
	assert.Equal(t, DomainLabor, it.Domain)
	assert.Equal(t, ComplexityComplex, it.Complexity)
	assert.Empty(t, it.Subtype)
}

func TestClassifyExtractsJSONFromProse(t *testing.T) {
	provider := &scriptedLLM{response: "Here is the classification:\n```json\n" +
		`{"type": "legal", "domain": "family", "complexity": "simple"}` + "\n```\nDone."}
	c := newTestClassifier(provider)

	it := c.Classify(context.Background(), "كيفاش كيتقسم الإرث؟")

	assert.Equal(t, TypeLegal, it.Type)
	assert.Equal(t, DomainFamily, it.Domain)
}

func TestClassifyQuickMatchSkipsLLM(t *testing.T) {
	provider := &scriptedLLM{response: `{"type": "legal", "domain": "other", "complexity": "simple"}`}
	c := newTestClassifier(provider)

	it := c.Classify(context.Background(), "salam")

	assert.Equal(t, TypeCasual, it.Type)
	assert.Equal(t, SubtypeGreeting, it.Subtype)
	assert.Zero(t, provider.calls)
}

func TestClassifyProviderErrorFallsBack(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("model unavailable")}
	c := newTestClassifier(provider)

	it := c.Classify(context.Background(), "ma propriétaire refuse de rendre la caution")

	assert.Equal(t, TypeLegal, it.Type)
	assert.Equal(t, DomainOther, it.Domain)
	assert.Equal(t, ComplexitySimple, it.Complexity)
}

func TestClassifyGarbageResponseFallsBack(t *testing.T) {
	provider := &scriptedLLM{response: "sure, that sounds like a labor question to me"}
	c := newTestClassifier(provider)

	it := c.Classify(context.Background(), "question")

	assert.Equal(t, TypeLegal, it.Type)
	assert.Equal(t, DomainOther, it.Domain)
}

func TestClassifyNormalisesUnknownValues(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Intent
	}{
		{
			name:     "unknown domain becomes other",
			response: `{"type": "legal", "domain": "space_law", "complexity": "complex"}`,
			want:     Intent{Type: TypeLegal, Domain: DomainOther, Complexity: ComplexityComplex},
		},
		{
			name:     "unknown complexity becomes simple",
			response: `{"type": "legal", "domain": "tax", "complexity": "extreme"}`,
			want:     Intent{Type: TypeLegal, Domain: DomainTax, Complexity: ComplexitySimple},
		},
		{
			name:     "unknown casual subtype becomes smalltalk",
			response: `{"type": "casual", "subtype": "joke"}`,
			want:     Intent{Type: TypeCasual, Subtype: SubtypeSmalltalk},
		},
		{
			name:     "unknown type falls back entirely",
			response: `{"type": "mystery"}`,
			want:     Intent{Type: TypeLegal, Domain: DomainOther, Complexity: ComplexitySimple},
		},
		{
			name:     "uppercase values are accepted",
			response: `{"type": "LEGAL", "domain": "Criminal", "complexity": "COMPLEX"}`,
			want:     Intent{Type: TypeLegal, Domain: DomainCriminal, Complexity: ComplexityComplex},
		},
		{
			name:     "casual drops legal fields",
			response: `{"type": "casual", "subtype": "greeting", "domain": "family", "complexity": "complex"}`,
			want:     Intent{Type: TypeCasual, Subtype: SubtypeGreeting},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(&scriptedLLM{response: tt.response})

			it := c.Classify(context.Background(), "some long enough legal question about anything at all here")

			assert.Equal(t, tt.want, *it)
		})
	}
}
