package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/prompt"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

const (
	// Phase 1 pulls from three angles (contract type, general
	// obligations, raw message) and keeps the best of the union.
	draftPassLimit = 10
	draftSourceCap = 15

	// Phase 2 issues one retrieval per compliance angle.
	compliancePassLimit = 6
	complianceSourceCap = 12

	stepDraftSearching = "Recherche des références pour la rédaction..."
	stepAuditing       = "Vérification de la conformité juridique..."
	stepContractFailed = "Une erreur est survenue lors de la rédaction du document"

	errContractFailed    = "La rédaction du document a échoué. Veuillez réessayer."
	auditFallbackSummary = "La vérification automatique n'a pas abouti; une relecture par un juriste est recommandée."
)

// contractLabels turns a contract type into the French label used in
// prompts and retrieval queries.
var contractLabels = map[string]string{
	entity.ContractTypeEmployment:  "contrat de travail",
	entity.ContractTypeLease:       "contrat de bail",
	entity.ContractTypeSale:        "contrat de vente",
	entity.ContractTypeService:     "contrat de prestation de services",
	entity.ContractTypePartnership: "contrat de société",
	entity.ContractTypeNDA:         "accord de confidentialité",
}

func contractLabel(contractType string) string {
	if label, ok := contractLabels[contractType]; ok {
		return label
	}
	return "contrat"
}

// ContractRequest is one turn of a drafting session. CurrentHTML and
// Version are the latest persisted snapshot; the pipeline returns
// deltas and holds no session state of its own.
type ContractRequest struct {
	Message      string
	ContractType string
	Language     string
	CurrentHTML  string
	Version      int
	History      []llm.Message
}

// ContractPipeline drafts contracts in two phases: a streamed drafting
// completion whose reply region is forwarded token by token while the
// document region is captured whole, then a non-streaming compliance
// audit of the produced document. No document means no audit.
type ContractPipeline struct {
	retriever      *retriever.Retriever
	contextBuilder *prompt.ContextBuilder
	llmProvider    llm.LLMProvider
	logger         *log.Logger
}

func NewContractPipeline(
	ret *retriever.Retriever,
	contextBuilder *prompt.ContextBuilder,
	llmProvider llm.LLMProvider,
	logger *log.Logger,
) *ContractPipeline {
	return &ContractPipeline{
		retriever:      ret,
		contextBuilder: contextBuilder,
		llmProvider:    llmProvider,
		logger:         logger,
	}
}

// Run starts the pipeline and returns its event channel, closed after
// the terminal event or on ctx cancellation.
func (p *ContractPipeline) Run(ctx context.Context, req ContractRequest) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		p.run(ctx, req, &emitter{ch: events, done: ctx.Done()})
	}()
	return events
}

func (p *ContractPipeline) run(ctx context.Context, req ContractRequest, em *emitter) {
	if !em.emit(stepEvent(stepDraftSearching)) {
		return
	}
	sources := p.gatherDraftSources(ctx, req)
	if !em.emit(sourcesEvent(sources)) {
		return
	}

	system := prompt.NewDraftingBuilder(
		contractLabel(req.ContractType),
		req.Language,
		req.Version,
		req.CurrentHTML,
		p.contextBuilder.Build(sources),
	).Build()
	messages := composeMessages(system, req.History, req.Message)

	ex := newExtractor()
	err := p.llmProvider.ChatStream(ctx, messages, func(delta string) error {
		if out := ex.Feed(delta); out != "" {
			if !em.emit(tokenEvent(out)) {
				return errConsumerGone
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errConsumerGone) || ctx.Err() != nil {
			return
		}
		p.logger.Printf("contract: drafting completion failed: %v", err)
		if !em.emit(stepEvent(stepContractFailed)) {
			return
		}
		em.emit(errorEvent(errContractFailed))
		return
	}
	if tail := ex.Finish(); tail != "" {
		if !em.emit(tokenEvent(tail)) {
			return
		}
	}

	// A response that ignored the region protocol is all conversation:
	// ship it whole, exactly once.
	if !ex.TagsSeen() {
		if !em.emit(tokenEvent(ex.Raw())) {
			return
		}
		em.emit(doneEvent())
		return
	}

	document, produced := ex.Document()
	if !produced {
		em.emit(doneEvent())
		return
	}

	if !em.emit(stepEvent(stepAuditing)) {
		return
	}
	review, corrected := p.audit(ctx, req, document)
	if !em.emit(reviewResultEvent(review)) {
		return
	}

	final := document
	if corrected != "" {
		final = corrected
	}
	if !em.emit(htmlUpdateEvent(final, req.Version+1)) {
		return
	}
	if !em.emit(stepEvent(closingStep(review))) {
		return
	}
	em.emit(doneEvent())
}

// gatherDraftSources runs the three Phase-1 passes concurrently and
// returns the deduplicated union, best first, capped. The merge is
// deterministic for identical inputs: score descending, id ascending.
func (p *ContractPipeline) gatherDraftSources(ctx context.Context, req ContractRequest) []store.Document {
	label := contractLabel(req.ContractType)

	var primary, general, raw []store.Document
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		primary = p.retriever.Search(ctx, req.Message+" "+label, draftPassLimit, retriever.Options{
			Categories: router.CategoriesForContractType(req.ContractType),
		})
	}()
	go func() {
		defer wg.Done()
		general = p.retriever.Search(ctx, "obligations des parties et conditions de validité "+label, draftPassLimit, retriever.Options{
			Categories: router.GeneralObligationsCategories(),
		})
	}()
	go func() {
		defer wg.Done()
		raw = p.retriever.Search(ctx, req.Message, draftPassLimit, retriever.Options{})
	}()
	wg.Wait()

	merged := make([]store.Document, 0, len(primary)+len(general)+len(raw))
	merged = append(merged, primary...)
	merged = append(merged, general...)
	merged = append(merged, raw...)
	merged = store.DedupByID(merged)

	sortByScore(merged)
	if len(merged) > draftSourceCap {
		merged = merged[:draftSourceCap]
	}
	return merged
}

// audit runs the Phase-2 compliance review. It never fails: a broken
// call or unparseable response degrades to an empty issue list with a
// generic summary.
func (p *ContractPipeline) audit(ctx context.Context, req ContractRequest, document string) (*entity.ContractReview, string) {
	sources := p.gatherComplianceSources(ctx, req)
	auditPrompt := prompt.NewAuditBuilder(
		contractLabel(req.ContractType),
		document,
		p.contextBuilder.Build(sources),
	).Build()

	response, err := p.llmProvider.Generate(ctx, auditPrompt, llm.WithTemperature(0.1))
	if err != nil {
		p.logger.Printf("contract: audit call failed, degrading to empty review: %v", err)
		return fallbackReview(), ""
	}

	review, corrected, err := parseAudit(response)
	if err != nil {
		p.logger.Printf("contract: unparseable audit response, degrading: %v", err)
		return fallbackReview(), ""
	}
	return review, corrected
}

// gatherComplianceSources issues one retrieval per compliance angle
// (mandatory clauses, prohibited terms, formalities) over the contract
// type's categories plus the general obligations corpus.
func (p *ContractPipeline) gatherComplianceSources(ctx context.Context, req ContractRequest) []store.Document {
	label := contractLabel(req.ContractType)
	queries := []string{
		"clauses obligatoires " + label + " droit marocain",
		"clauses interdites et abusives " + label,
		"formalités et conditions de validité " + label,
	}
	categories := append(router.CategoriesForContractType(req.ContractType), router.GeneralObligationsCategories()...)

	var merged []store.Document
	for _, q := range queries {
		merged = append(merged, p.retriever.Search(ctx, q, compliancePassLimit, retriever.Options{Categories: categories})...)
	}
	merged = store.DedupByID(merged)

	sortByScore(merged)
	if len(merged) > complianceSourceCap {
		merged = merged[:complianceSourceCap]
	}
	return merged
}

func sortByScore(docs []store.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].ID < docs[j].ID
	})
}

type auditPayload struct {
	Issues            []entity.ReviewIssue `json:"issues"`
	CorrectedDocument string               `json:"corrected_document"`
	Summary           string               `json:"summary"`
}

func parseAudit(response string) (*entity.ContractReview, string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, "", fmt.Errorf("no JSON object in audit response")
	}

	var payload auditPayload
	if err := json.Unmarshal([]byte(response[start:end+1]), &payload); err != nil {
		return nil, "", fmt.Errorf("unmarshal audit: %w", err)
	}

	issues := make([]entity.ReviewIssue, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		switch strings.ToLower(issue.Severity) {
		case entity.IssueSeverityCritical, entity.IssueSeverityWarning, entity.IssueSeverityInfo:
			issue.Severity = strings.ToLower(issue.Severity)
		default:
			issue.Severity = entity.IssueSeverityInfo
		}
		issues = append(issues, issue)
	}

	summary := strings.TrimSpace(payload.Summary)
	if summary == "" {
		summary = auditFallbackSummary
	}

	review := &entity.ContractReview{Issues: issues, Summary: summary}
	return review, strings.TrimSpace(payload.CorrectedDocument), nil
}

func fallbackReview() *entity.ContractReview {
	return &entity.ContractReview{
		Issues:  []entity.ReviewIssue{},
		Summary: auditFallbackSummary,
	}
}

func closingStep(review *entity.ContractReview) string {
	critical := 0
	for _, issue := range review.Issues {
		if issue.Severity == entity.IssueSeverityCritical {
			critical++
		}
	}
	if critical > 0 {
		return fmt.Sprintf("Révision terminée: %d problème(s) critique(s) détecté(s)", critical)
	}
	return "Révision terminée: aucun problème critique détecté"
}
