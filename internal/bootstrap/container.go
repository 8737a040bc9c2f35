package bootstrap

import (
	"context"
	"log"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/config"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/controller"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/handler"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/mailer"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/implementation"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/service"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/websocket"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/ai/pipeline"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding/jina"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/events"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm/factory"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/quota"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/history"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/prompt"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/websearch"

	pktNats "github.com/berserker-glitch/9anonai-be-sub000/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	AdviceController   controller.IAdviceController
	ContractController controller.IContractController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	IngestService service.IIngestService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := log.Default()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. AI Providers
	// Cache hit/miss telemetry rides the event bus; the sink must not
	// slow the query path, so it publishes from a goroutine.
	var telemetry embedding.TelemetrySink
	if natsPub != nil {
		telemetry = func(hit bool) {
			go func() {
				_ = natsPub.Publish(context.Background(), events.NewEmbedCacheSignal(hit))
			}()
		}
	}

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	embeddingProvider = embedding.NewCachedProvider(
		embeddingProvider,
		embedding.NewCache(cfg.Ai.EmbeddingCacheSize),
		telemetry,
	)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Intent classification can run on a smaller model.
	classifierProvider := llmProvider
	if cfg.Ai.ClassifierModel != "" {
		if p, err := factory.NewLLMProvider(
			cfg.Ai.LLMProvider,
			cfg.Ai.ClassifierModel,
			cfg.Ai.OllamaBaseURL,
			cfg.Keys.HuggingFace,
		); err == nil {
			classifierProvider = p
			log.Printf("[INFO] Using Classifier Model: %s", cfg.Ai.ClassifierModel)
		} else {
			log.Printf("[WARN] Failed to initialize classifier model, falling back to main LLM: %v", err)
		}
	}

	// 4. RAG Core
	chunkRepo := implementation.NewLegalChunkRepository(db)
	ret := retriever.NewRetriever(embeddingProvider, chunkRepo, cfg.Ai.MinRelevanceScore, ragLogger)
	rt := router.NewRouter(ret, ragLogger)
	classifier := intent.NewClassifier(classifierProvider, ragLogger)
	contextBuilder := prompt.NewContextBuilder(cfg.Ai.MaxContextTokens)
	historyLoader := history.NewLoader(uowFactory)

	var webSearch pipeline.WebSearcher
	if cfg.Ai.WebSearchEnabled && cfg.Keys.Tavily != "" {
		webSearch = websearch.NewClient(cfg.Keys.Tavily)
		log.Printf("[INFO] Web search enrichment: ENABLED (Tavily)")
	}

	advicePipeline := pipeline.NewAdvicePipeline(classifier, rt, contextBuilder, webSearch, llmProvider, ragLogger)
	contractPipeline := pipeline.NewContractPipeline(ret, contextBuilder, llmProvider, ragLogger)

	// 5. Quota
	quotaService := quota.NewService(rdb, cfg.Quota.DailyAdviceLimit, cfg.Quota.DailyContractLimit, ragLogger)

	// 6. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	ingestService := service.NewIngestService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, emailService, quotaService)
	adviceService := service.NewAdviceService(uowFactory, historyLoader, advicePipeline, quotaService, natsPub, sysLogger)
	contractService := service.NewContractService(uowFactory, historyLoader, contractPipeline, quotaService, natsPub, sysLogger)
	documentService := service.NewDocumentService(uowFactory, publisherService, sysLogger)

	// 8. Notification System
	notifRepo := implementation.NewNotificationRepository(db)
	userRepo := implementation.NewUserRepository(db)
	notifService := service.NewNotificationService(notifRepo, userRepo, natsSub, wsHub, emailService, wsLogger)
	notifService.Start()

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 9. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		AdviceController:   controller.NewAdviceController(adviceService),
		ContractController: controller.NewContractController(contractService),
		DocumentController: controller.NewDocumentController(documentService),

		IngestService: ingestService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
