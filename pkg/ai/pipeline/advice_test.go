package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/prompt"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
)

type pipelineLLM struct {
	deltas        []string
	streamErr     error
	generateResp  string
	generateErr   error
	streamCalls   int
	generateCalls int
	lastMessages  []llm.Message
}

func (f *pipelineLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.generateResp, f.generateErr
}

func (f *pipelineLLM) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamHandler, options ...llm.Option) error {
	f.streamCalls++
	f.lastMessages = history
	for _, d := range f.deltas {
		if err := fn(d); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *pipelineLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateResp, nil
}

type unitEmbedder struct{}

func (unitEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (unitEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// knnStore answers filtered and unfiltered similarity searches from two
// scripted result sets.
type knnStore struct {
	filtered   []*contract.ScoredLegalChunk
	unfiltered []*contract.ScoredLegalChunk
	calls      int
}

func (s *knnStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, categories []string) ([]*contract.ScoredLegalChunk, error) {
	s.calls++
	if len(categories) > 0 {
		return s.filtered, nil
	}
	return s.unfiltered, nil
}

func (s *knnStore) Create(ctx context.Context, chunk *entity.LegalChunk) error { return nil }
func (s *knnStore) CreateBulk(ctx context.Context, chunks []*entity.LegalChunk) error {
	return nil
}
func (s *knnStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (s *knnStore) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (s *knnStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error) {
	return nil, nil
}
func (s *knnStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error) {
	return nil, nil
}
func (s *knnStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func docChunk(id uuid.UUID, name string, distance float64) *contract.ScoredLegalChunk {
	return &contract.ScoredLegalChunk{
		Chunk: &entity.LegalChunk{
			Id:           id,
			Text:         "texte de " + name,
			Category:     "moudawana",
			DocumentName: name,
		},
		Distance: distance,
	}
}

type fakeWeb struct {
	text  string
	err   error
	calls int
}

func (f *fakeWeb) Search(ctx context.Context, query string) (string, error) {
	f.calls++
	return f.text, f.err
}

func newAdviceTestPipeline(classifierLLM, streamLLM *pipelineLLM, store *knnStore, web WebSearcher) *AdvicePipeline {
	logger := log.New(io.Discard, "", 0)
	ret := retriever.NewRetriever(unitEmbedder{}, store, 0.35, logger)
	return NewAdvicePipeline(
		intent.NewClassifier(classifierLLM, logger),
		router.NewRouter(ret, logger),
		prompt.NewContextBuilder(3500),
		web,
		streamLLM,
		logger,
	)
}

func collectEvents(ch <-chan StreamEvent) []StreamEvent {
	var events []StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []StreamEvent) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestAdviceCasualFastPath(t *testing.T) {
	classifierLLM := &pipelineLLM{}
	streamLLM := &pipelineLLM{deltas: []string{"Salam ! ", "Comment puis-je vous aider ?"}}
	store := &knnStore{}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, nil)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{Query: "hi"}))

	require.NotEmpty(t, events)
	assert.Equal(t, EventIntent, events[0].Type)
	assert.Equal(t, intent.TypeCasual, events[0].Intent.Type)
	assert.Equal(t, intent.SubtypeGreeting, events[0].Intent.Subtype)
	assert.Equal(t, EventCitation, events[1].Type)
	assert.Empty(t, events[1].Citations)
	assert.Equal(t,
		[]string{EventIntent, EventCitation, EventToken, EventToken, EventDone},
		eventTypes(events),
	)
	assert.Zero(t, classifierLLM.generateCalls, "fast path must not call the classifier")
	assert.Zero(t, store.calls, "casual turns never touch the knowledge base")
}

func TestAdviceLegalPathWithBroadening(t *testing.T) {
	shared := uuid.New()
	classifierLLM := &pipelineLLM{generateResp: `{"type": "legal", "domain": "family", "complexity": "complex"}`}
	streamLLM := &pipelineLLM{deltas: []string{"La procédure ", "de divorce commence..."}}
	store := &knnStore{
		filtered: []*contract.ScoredLegalChunk{docChunk(shared, "Moudawana", 0.3)},
		unfiltered: []*contract.ScoredLegalChunk{
			docChunk(shared, "Moudawana", 0.3),
			docChunk(uuid.New(), "Code de procédure civile", 0.4),
			docChunk(uuid.New(), "Code de la famille annoté", 0.45),
		},
	}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, nil)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{
		Query: "كيف تتم مسطرة الطلاق الشقاق مع حضانة الأطفال وتقسيم الممتلكات؟",
	}))

	assert.Equal(t,
		[]string{EventStep, EventIntent, EventStep, EventStep, EventCitation, EventToken, EventToken, EventDone},
		eventTypes(events),
	)
	assert.Equal(t, stepAnalyzing, events[0].Message)
	assert.Equal(t, intent.DomainFamily, events[1].Intent.Domain)
	assert.Equal(t, stepSearching, events[2].Message)
	assert.Contains(t, events[3].Message, "3 référence(s)")
	require.Len(t, events[4].Citations, 3)
	assert.Equal(t, shared.String(), events[4].Citations[0].ChunkId, "filtered source stays first after the broadened merge")
	assert.Equal(t, 2, store.calls, "thin filtered results trigger one unfiltered retry")

	require.NotEmpty(t, streamLLM.lastMessages)
	assert.Equal(t, "system", streamLLM.lastMessages[0].Role)
	userTurn := streamLLM.lastMessages[len(streamLLM.lastMessages)-1]
	assert.Equal(t, "user", userTurn.Role)
	assert.Contains(t, userTurn.Content, "Références juridiques:")
	assert.Contains(t, userTurn.Content, "Moudawana")
}

func TestAdviceWebEnrichment(t *testing.T) {
	classifierLLM := &pipelineLLM{generateResp: `{"type": "legal", "domain": "labor", "complexity": "simple"}`}
	streamLLM := &pipelineLLM{deltas: []string{"Réponse."}}
	store := &knnStore{
		filtered: []*contract.ScoredLegalChunk{
			docChunk(uuid.New(), "Code du travail", 0.3),
			docChunk(uuid.New(), "Code du travail", 0.35),
		},
	}
	web := &fakeWeb{text: "Selon le Bulletin Officiel, le SMIG a été revalorisé en 2024."}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, web)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{Query: "quel est le SMIG actuel au Maroc ?"}))

	assert.Equal(t,
		[]string{EventStep, EventIntent, EventStep, EventStep, EventStep, EventCitation, EventToken, EventDone},
		eventTypes(events),
	)
	assert.Equal(t, stepWebEnrichment, events[4].Message)

	citations := events[5].Citations
	require.Len(t, citations, 3)
	assert.Equal(t, webSourceName, citations[2].DocumentName)
	assert.Equal(t, 1, web.calls)

	userTurn := streamLLM.lastMessages[len(streamLLM.lastMessages)-1]
	assert.Contains(t, userTurn.Content, "--- Complément web ---")
	assert.Contains(t, userTurn.Content, "Bulletin Officiel")
}

func TestAdviceWebSearchFailureDegrades(t *testing.T) {
	classifierLLM := &pipelineLLM{generateResp: `{"type": "legal", "domain": "labor", "complexity": "simple"}`}
	streamLLM := &pipelineLLM{deltas: []string{"Réponse."}}
	store := &knnStore{
		filtered: []*contract.ScoredLegalChunk{
			docChunk(uuid.New(), "Code du travail", 0.3),
			docChunk(uuid.New(), "Code du travail", 0.35),
		},
	}
	web := &fakeWeb{err: errors.New("tavily down")}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, web)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{Query: "délai de préavis démission ?"}))

	types := eventTypes(events)
	assert.NotContains(t, types, EventError)
	assert.Equal(t, EventDone, types[len(types)-1])
	for _, ev := range events {
		assert.NotEqual(t, stepWebEnrichment, ev.Message)
	}
}

func TestAdviceNoSourcesStillAnswers(t *testing.T) {
	classifierLLM := &pipelineLLM{generateResp: `{"type": "legal", "domain": "other", "complexity": "simple"}`}
	streamLLM := &pipelineLLM{deltas: []string{"De manière générale..."}}
	store := &knnStore{}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, nil)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{Query: "une question très obscure sans référence"}))

	assert.Equal(t,
		[]string{EventStep, EventIntent, EventStep, EventCitation, EventToken, EventDone},
		eventTypes(events),
	)
	assert.Empty(t, events[3].Citations)

	userTurn := streamLLM.lastMessages[len(streamLLM.lastMessages)-1]
	assert.Contains(t, userTurn.Content, prompt.EmptyContext, "the model always receives a context block")
}

func TestAdviceCompletionFailureIsTerminal(t *testing.T) {
	classifierLLM := &pipelineLLM{generateResp: `{"type": "legal", "domain": "family", "complexity": "simple"}`}
	streamLLM := &pipelineLLM{deltas: []string{"Début "}, streamErr: errors.New("model crashed")}
	store := &knnStore{
		filtered: []*contract.ScoredLegalChunk{
			docChunk(uuid.New(), "Moudawana", 0.3),
			docChunk(uuid.New(), "Moudawana", 0.35),
		},
	}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, store, nil)

	events := collectEvents(p.Run(context.Background(), AdviceRequest{Query: "شروط تعدد الزوجات"}))

	types := eventTypes(events)
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, EventStep, types[len(types)-2])
	assert.Equal(t, stepAdviceFailed, events[len(events)-2].Message)
	assert.Equal(t, EventError, types[len(types)-1])
	assert.NotContains(t, types, EventDone)
}

func TestAdviceHistoryIsReplayedInOrder(t *testing.T) {
	classifierLLM := &pipelineLLM{}
	streamLLM := &pipelineLLM{deltas: []string{"ok"}}
	p := newAdviceTestPipeline(classifierLLM, streamLLM, &knnStore{}, nil)

	history := []llm.Message{
		{Role: "user", Content: "salam"},
		{Role: "assistant", Content: "Salam ! Comment puis-je vous aider ?"},
	}
	collectEvents(p.Run(context.Background(), AdviceRequest{Query: "merci", History: history}))

	require.Len(t, streamLLM.lastMessages, 4)
	assert.Equal(t, "system", streamLLM.lastMessages[0].Role)
	assert.Equal(t, "salam", streamLLM.lastMessages[1].Content)
	assert.Equal(t, "Salam ! Comment puis-je vous aider ?", streamLLM.lastMessages[2].Content)
	assert.True(t, strings.HasSuffix(streamLLM.lastMessages[3].Content, "merci"))
}
