package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/prompt"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

// WebSearcher enriches answers with fresh web results. Failures are
// degradable: the pipeline logs them and continues without enrichment.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Step messages shown to the user while the pipeline works.
const (
	stepAnalyzing     = "Analyse de votre question..."
	stepSearching     = "Recherche dans la base juridique..."
	stepWebEnrichment = "Enrichissement avec des sources web..."
	stepAdviceFailed  = "Une erreur est survenue lors de la génération de la réponse"

	errAdviceFailed = "La génération de la réponse a échoué. Veuillez réessayer."

	webSourceName = "Recherche web"
)

// errConsumerGone aborts a run silently: the event consumer stopped
// listening, so there is nobody left to tell.
var errConsumerGone = errors.New("event consumer disconnected")

// AdviceRequest is one conversational turn of the legal advice flow.
// History is already windowed and in provider order (oldest first).
type AdviceRequest struct {
	Query    string
	History  []llm.Message
	Language string
}

// AdvicePipeline answers legal questions as an ordered event stream:
// intent detection, concurrent retrieval and web enrichment, then a
// streamed completion. Sub-component failures degrade (empty sources,
// no enrichment); only a failed completion terminates the stream with
// an error event.
type AdvicePipeline struct {
	classifier     *intent.Classifier
	router         *router.Router
	contextBuilder *prompt.ContextBuilder
	webSearch      WebSearcher
	llmProvider    llm.LLMProvider
	logger         *log.Logger
}

func NewAdvicePipeline(
	classifier *intent.Classifier,
	rt *router.Router,
	contextBuilder *prompt.ContextBuilder,
	webSearch WebSearcher,
	llmProvider llm.LLMProvider,
	logger *log.Logger,
) *AdvicePipeline {
	return &AdvicePipeline{
		classifier:     classifier,
		router:         rt,
		contextBuilder: contextBuilder,
		webSearch:      webSearch,
		llmProvider:    llmProvider,
		logger:         logger,
	}
}

// Run starts the pipeline and returns its event channel. The channel
// is closed after the terminal event (done or error) or as soon as ctx
// is cancelled; it is consumable exactly once.
func (p *AdvicePipeline) Run(ctx context.Context, req AdviceRequest) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		p.run(ctx, req, &emitter{ch: events, done: ctx.Done()})
	}()
	return events
}

func (p *AdvicePipeline) run(ctx context.Context, req AdviceRequest, em *emitter) {
	it, matched := intent.QuickMatch(req.Query)
	if !matched {
		if !em.emit(stepEvent(stepAnalyzing)) {
			return
		}
		it = p.classifier.Classify(ctx, req.Query)
	}
	if !em.emit(intentEvent(it)) {
		return
	}

	var err error
	if it.IsCasual() {
		err = p.runCasual(ctx, req, it, em)
	} else {
		err = p.runLegal(ctx, req, it, em)
	}

	if err != nil {
		if errors.Is(err, errConsumerGone) || ctx.Err() != nil {
			return
		}
		p.logger.Printf("advice: completion failed: %v", err)
		if !em.emit(stepEvent(stepAdviceFailed)) {
			return
		}
		em.emit(errorEvent(errAdviceFailed))
		return
	}
	em.emit(doneEvent())
}

// runCasual answers without retrieval: an empty citation list, then a
// short streamed reply in persona.
func (p *AdvicePipeline) runCasual(ctx context.Context, req AdviceRequest, it *intent.Intent, em *emitter) error {
	if !em.emit(citationEvent([]entity.MessageCitation{})) {
		return errConsumerGone
	}

	messages := composeMessages(prompt.BuildCasualReply(it.Subtype), req.History, req.Query)
	return p.streamCompletion(ctx, messages, em)
}

// runLegal retrieves grounding and streams the answer. Retrieval and
// web search are independent I/O and run concurrently; both are joined
// before any context is built.
func (p *AdvicePipeline) runLegal(ctx context.Context, req AdviceRequest, it *intent.Intent, em *emitter) error {
	if !em.emit(stepEvent(stepSearching)) {
		return errConsumerGone
	}

	var (
		routed  router.Result
		webText string
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		routed = p.router.Route(ctx, req.Query, it)
	}()
	if p.webSearch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := p.webSearch.Search(ctx, req.Query)
			if err != nil {
				p.logger.Printf("advice: web search failed, continuing without enrichment: %v", err)
				return
			}
			webText = text
		}()
	}
	wg.Wait()

	if len(routed.Sources) > 0 {
		if !em.emit(stepEvent(fmt.Sprintf("%d référence(s) juridique(s) trouvée(s)", len(routed.Sources)))) {
			return errConsumerGone
		}
	}
	if webText != "" {
		if !em.emit(stepEvent(stepWebEnrichment)) {
			return errConsumerGone
		}
	}
	if !em.emit(citationEvent(toCitations(routed.Sources, webText != ""))) {
		return errConsumerGone
	}

	system := prompt.NewAdviceBuilder(routed.Confidence, req.Language).Build()
	userTurn := composeUserTurn(req.Query, p.contextBuilder.Build(routed.Sources), webText)
	messages := composeMessages(system, req.History, userTurn)
	return p.streamCompletion(ctx, messages, em)
}

func (p *AdvicePipeline) streamCompletion(ctx context.Context, messages []llm.Message, em *emitter) error {
	return p.llmProvider.ChatStream(ctx, messages, func(delta string) error {
		if delta == "" {
			return nil
		}
		if !em.emit(tokenEvent(delta)) {
			return errConsumerGone
		}
		return nil
	})
}

func composeMessages(system string, history []llm.Message, userTurn string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userTurn})
	return messages
}

// composeUserTurn places the retrieved context and the optional web
// enrichment after the question, separated so the model can tell the
// sources apart.
func composeUserTurn(query, contextBlock, webText string) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("\n\nRéférences juridiques:\n")
	b.WriteString(contextBlock)
	if webText != "" {
		b.WriteString("\n\n--- Complément web ---\n")
		b.WriteString(webText)
	}
	return b.String()
}

func toCitations(sources []store.Document, webUsed bool) []entity.MessageCitation {
	citations := make([]entity.MessageCitation, 0, len(sources)+1)
	for _, d := range sources {
		citations = append(citations, entity.MessageCitation{
			ChunkId:      d.ID,
			DocumentName: d.DocumentName,
			Category:     d.Category,
			Subcategory:  d.Subcategory,
			SourceFile:   d.SourceFile,
			Score:        d.Score,
		})
	}
	if webUsed {
		citations = append(citations, entity.MessageCitation{
			DocumentName: webSourceName,
			Category:     "web",
		})
	}
	return citations
}
