package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/prompt"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
)

func newContractTestPipeline(streamLLM *pipelineLLM, store *knnStore) *ContractPipeline {
	logger := log.New(io.Discard, "", 0)
	ret := retriever.NewRetriever(unitEmbedder{}, store, 0.35, logger)
	return NewContractPipeline(ret, prompt.NewContextBuilder(3500), streamLLM, logger)
}

func employmentStore() *knnStore {
	return &knnStore{
		filtered: []*contract.ScoredLegalChunk{
			docChunk(uuid.New(), "Code du travail", 0.3),
			docChunk(uuid.New(), "Code des obligations et contrats", 0.4),
		},
		unfiltered: []*contract.ScoredLegalChunk{
			docChunk(uuid.New(), "Jurisprudence sociale", 0.45),
		},
	}
}

func TestContractDraftWithAudit(t *testing.T) {
	streamLLM := &pipelineLLM{
		deltas: []string{
			"<reply>Voici votre ",
			"contrat.</reply><doc",
			"ument><h1>CONTRAT DE TRAVAIL</h1><p>Article 1</p></document>",
		},
		generateResp: `{"issues": [{"severity": "critical", "clause": "Période d'essai", "description": "Durée excessive au regard du code du travail", "law_reference": "Article 14 du Code du travail"}], "corrected_document": "<h1>CONTRAT DE TRAVAIL</h1><p>Article 1 corrigé</p>", "summary": "Un problème critique a été détecté et corrigé."}`,
	}
	store := employmentStore()
	p := newContractTestPipeline(streamLLM, store)

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "rédige un contrat de travail pour un développeur",
		ContractType: entity.ContractTypeEmployment,
		Language:     "fr",
		Version:      0,
	}))

	assert.Equal(t,
		[]string{EventStep, EventSources, EventToken, EventToken, EventStep, EventReviewResult, EventHtmlUpdate, EventStep, EventDone},
		eventTypes(events),
	)
	assert.Equal(t, stepDraftSearching, events[0].Message)
	assert.NotEmpty(t, events[1].Sources)
	assert.Equal(t, "Voici votre ", events[2].Text)
	assert.Equal(t, "contrat.", events[3].Text)
	assert.Equal(t, stepAuditing, events[4].Message)

	review := events[5].Review
	require.NotNil(t, review)
	require.Len(t, review.Issues, 1)
	assert.Equal(t, entity.IssueSeverityCritical, review.Issues[0].Severity)
	assert.Equal(t, "Article 14 du Code du travail", review.Issues[0].LawReference)

	assert.Equal(t, "<h1>CONTRAT DE TRAVAIL</h1><p>Article 1 corrigé</p>", events[6].Html, "corrected body wins over the draft")
	assert.Equal(t, 1, events[6].Version)
	assert.Contains(t, events[7].Message, "1 problème(s) critique(s)")

	assert.Equal(t, 1, streamLLM.generateCalls, "exactly one non-streaming audit call")
	assert.GreaterOrEqual(t, store.calls, 3, "three drafting passes plus compliance retrieval")
}

func TestContractNoRegionsEmitsSingleToken(t *testing.T) {
	raw := "Je peux vous aider à rédiger ce contrat. Donnez-moi d'abord le nom des parties."
	streamLLM := &pipelineLLM{deltas: []string{"Je peux vous aider à rédiger ce contrat. ", "Donnez-moi d'abord le nom des parties."}}
	p := newContractTestPipeline(streamLLM, employmentStore())

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "je veux un contrat",
		ContractType: entity.ContractTypeEmployment,
	}))

	assert.Equal(t,
		[]string{EventStep, EventSources, EventToken, EventDone},
		eventTypes(events),
	)
	assert.Equal(t, raw, events[2].Text, "the whole raw response ships as one token")
	assert.Zero(t, streamLLM.generateCalls, "no document means no audit")
}

func TestContractReplyOnlySkipsAudit(t *testing.T) {
	streamLLM := &pipelineLLM{deltas: []string{"<reply>Quel est le salaire convenu ?</reply>"}}
	p := newContractTestPipeline(streamLLM, employmentStore())

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "ajoute une clause de salaire",
		ContractType: entity.ContractTypeEmployment,
		CurrentHTML:  "<h1>CONTRAT</h1>",
		Version:      2,
	}))

	types := eventTypes(events)
	assert.Equal(t, EventDone, types[len(types)-1])
	assert.NotContains(t, types, EventReviewResult)
	assert.NotContains(t, types, EventHtmlUpdate)
	assert.Zero(t, streamLLM.generateCalls)
}

func TestContractAuditParseFailureDegrades(t *testing.T) {
	streamLLM := &pipelineLLM{
		deltas:       []string{"<reply>Contrat prêt.</reply><document><h1>NDA</h1></document>"},
		generateResp: "désolé, je ne peux pas produire de JSON aujourd'hui",
	}
	p := newContractTestPipeline(streamLLM, employmentStore())

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "rédige un accord de confidentialité",
		ContractType: entity.ContractTypeNDA,
		Version:      0,
	}))

	types := eventTypes(events)
	assert.Contains(t, types, EventReviewResult)
	assert.Equal(t, EventDone, types[len(types)-1])

	var review *entity.ContractReview
	var html string
	var version int
	for _, ev := range events {
		switch ev.Type {
		case EventReviewResult:
			review = ev.Review
		case EventHtmlUpdate:
			html = ev.Html
			version = ev.Version
		}
	}
	require.NotNil(t, review)
	assert.Empty(t, review.Issues)
	assert.Equal(t, auditFallbackSummary, review.Summary)
	assert.Equal(t, "<h1>NDA</h1>", html, "draft body is kept when no correction exists")
	assert.Equal(t, 1, version)
}

func TestContractAuditCallFailureDegrades(t *testing.T) {
	streamLLM := &pipelineLLM{
		deltas:      []string{"<reply>Voilà.</reply><document><p>bail</p></document>"},
		generateErr: errors.New("model unavailable"),
	}
	p := newContractTestPipeline(streamLLM, employmentStore())

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "contrat de bail",
		ContractType: entity.ContractTypeLease,
		Version:      4,
	}))

	types := eventTypes(events)
	assert.Equal(t, EventDone, types[len(types)-1])
	assert.NotContains(t, types, EventError, "a failed audit degrades, it does not kill the stream")

	for _, ev := range events {
		if ev.Type == EventHtmlUpdate {
			assert.Equal(t, "<p>bail</p>", ev.Html)
			assert.Equal(t, 5, ev.Version)
		}
		if ev.Type == EventStep && ev.Message != stepDraftSearching && ev.Message != stepAuditing {
			assert.Contains(t, ev.Message, "aucun problème critique")
		}
	}
}

func TestContractDraftingFailureIsTerminal(t *testing.T) {
	streamLLM := &pipelineLLM{streamErr: errors.New("completion exploded")}
	p := newContractTestPipeline(streamLLM, employmentStore())

	events := collectEvents(p.Run(context.Background(), ContractRequest{
		Message:      "contrat de vente",
		ContractType: entity.ContractTypeSale,
	}))

	types := eventTypes(events)
	assert.Equal(t,
		[]string{EventStep, EventSources, EventStep, EventError},
		types,
	)
	assert.Equal(t, stepContractFailed, events[2].Message)
	assert.Zero(t, streamLLM.generateCalls)
}
