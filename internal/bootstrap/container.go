package bootstrap

import (
	"context"
	"time"

	"doc-review-be/internal/config"
	"doc-review-be/internal/controller"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/internal/pkg/mailer"
	"doc-review-be/internal/pkg/serverutils"
	"doc-review-be/internal/repository/implementation"
	"doc-review-be/internal/service"
	"doc-review-be/pkg/artifact"
	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/embedding/jina"
	"doc-review-be/pkg/llm/factory"
	pktNats "doc-review-be/pkg/nats"
	"doc-review-be/pkg/review/intent"
	"doc-review-be/pkg/review/prompt"
	"doc-review-be/pkg/review/response"
	"doc-review-be/pkg/review/retrieval"
	"doc-review-be/pkg/review/state"
	"doc-review-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ReviewController controller.IReviewController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for cmd/seed
	SessionService service.ISessionService

	Logger logger.ILogger
	Store  *vectorstore.Store

	closers []func()
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogPath)
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = auditLogger.Sync() })

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS, events stay in-process", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsPub = pub
			c.closers = append(c.closers, pub.Close)
		}
	}

	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub, natsPub, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, auditLogger, sysLogger)

	// 3. Collaborators
	embedder := embedding.NewEmbedder(newEmbeddingProvider(cfg, sysLogger, c), cfg.Vector.EmbeddingDim, sysLogger)

	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		BaseURL:        cfg.Ai.LLMBaseURL,
		GeminiKey:      cfg.Keys.GoogleGemini,
		HuggingFaceKey: cfg.Keys.HuggingFace,
	})
	if err != nil {
		sysLogger.Warn("Bootstrap", "Unknown LLM provider, using templated replies", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"error":    err.Error(),
		})
	}
	generator := response.NewGenerator(llmProvider, cfg.Ai.LLMModel, sysLogger)
	retriever := retrieval.NewClient(cfg.Retrieval.URL, cfg.Retrieval.TopK, cfg.Retrieval.Timeout, cfg.Retrieval.ChunkChars, sysLogger)

	// 4. Storage
	collections := implementation.Collections{
		Sessions: cfg.Vector.SessionsCollection,
		Issues:   cfg.Vector.IssuesCollection,
		Chunks:   cfg.Vector.ChunksCollection,
		Turns:    cfg.Vector.TurnsCollection,
	}
	var dial vectorstore.Dialer
	if cfg.Vector.Backend == config.VectorBackendPgVector {
		dial = vectorstore.PgVectorDialer(cfg.Vector.DSN, !cfg.IsProduction())
	}
	c.Store = vectorstore.NewStore(vectorstore.Options{
		Backend:      cfg.Vector.Backend,
		AutoFallback: cfg.Vector.AutoFallbackMemory,
		Dimension:    cfg.Vector.EmbeddingDim,
		Collections:  collections.All(),
	}, dial, sysLogger)
	reviewRepo := implementation.NewReviewRepository(c.Store, embedder, collections)

	// 5. Services
	promptBuilder := prompt.NewBuilder()
	sessionService := service.NewSessionService(reviewRepo, cfg.Document.ChunkSize, cfg.Document.ChunkOverlap, sysLogger)
	chatService := service.NewChatService(
		sessionService,
		reviewRepo,
		intent.NewClassifier(),
		state.NewManager(sysLogger),
		promptBuilder,
		generator,
		retriever,
		publisherService,
		sysLogger,
	)
	emailService := mailer.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, sysLogger)
	cleanupService := service.NewCleanupService(
		sessionService,
		promptBuilder,
		generator,
		artifact.NewWriter(cfg.Cleanup.ArtifactsDir),
		emailService,
		publisherService,
		service.CleanupOptions{
			EmailFrom: cfg.Cleanup.EmailFrom,
			EmailTo:   cfg.Cleanup.EmailTo,
			SendEmail: cfg.Cleanup.SendEmail,
		},
		sysLogger,
	)
	c.SessionService = sessionService
	healthService := service.NewHealthService(c.Store, embedder, generator)

	// 6. Controllers
	c.ReviewController = controller.NewReviewController(sessionService, chatService, cleanupService, serverutils.JwtMiddleware(cfg.App.JWTSecret))
	c.HealthController = controller.NewHealthController(healthService)

	return c
}

// newEmbeddingProvider returns nil for the hash provider; the embedder falls
// back to hashing on its own.
func newEmbeddingProvider(cfg *config.Config, log logger.ILogger, c *Container) embedding.EmbeddingProvider {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	case "gemini":
		if cfg.Keys.GoogleGemini != "" {
			provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		}
	case "jina":
		if cfg.Keys.Jina != "" {
			provider = jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel)
		}
	}
	if provider == nil {
		log.Info("Bootstrap", "Using hash embeddings", map[string]interface{}{"configured": cfg.Ai.EmbeddingProvider})
		return nil
	}

	if cfg.App.RedisURL == "" {
		return provider
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unreachable, embedding cache disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return provider
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	return embedding.NewCachedProvider(provider, embedding.NewRedisCache(rdb, cfg.Ai.EmbeddingCacheTTL))
}

// EnsureCollections connects the store eagerly so startup logs show which
// backend is serving.
func (c *Container) EnsureCollections(ctx context.Context) {
	if err := c.Store.Connect(ctx); err != nil {
		c.Logger.Error("Bootstrap", "Vector store unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	c.Logger.Info("Bootstrap", "Vector store ready", map[string]interface{}{
		"backend": c.Store.BackendName(),
		"state":   c.Store.State(),
	})
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Store.Close()
	_ = c.Logger.Sync()
}
