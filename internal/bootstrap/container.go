package bootstrap

import (
	"context"
	"time"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/controller"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/repository/memory"
	"chat-with-pdf-be/internal/service"
	"chat-with-pdf-be/internal/websocket"
	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/gateway"
	pktNats "chat-with-pdf-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	PageController     controller.IPageController
	DocumentController controller.IDocumentController
	SessionController  controller.ISessionController
	ChatController     controller.IChatController

	// Services used outside HTTP (terminal client, middleware)
	SessionService service.ISessionService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. Redis and NATS are optional: when
// unset or unreachable the app runs without the embedding cache or the
// external event stream.
func NewContainer(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 2. Infrastructure
	var cache embedding.Cache
	if rdb := connectRedis(cfg.App.RedisURL, sysLogger); rdb != nil {
		cache = embedding.NewRedisCache(rdb, constant.EmbeddingCacheTTL*time.Second)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	forwarders := []service.EventForwarder{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, events stay in-process", map[string]interface{}{"error": err.Error()})
		} else {
			forwarders = append(forwarders, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Model Gateway
	gw, err := gateway.New(gateway.Config{
		Provider:       cfg.Gateway.Provider,
		BaseURL:        cfg.Gateway.BaseURL,
		APIKey:         cfg.Gateway.APIKey,
		EmbeddingModel: cfg.Gateway.EmbeddingModel,
		LLMModel:       cfg.Gateway.LLMModel,
		Temperature:    cfg.Gateway.Temperature,
		MaxTokens:      cfg.Gateway.MaxTokens,
	}, gateway.WithEmbeddingCache(cache))
	if err != nil {
		c.Close()
		return nil, err
	}
	sysLogger.Info("BOOTSTRAP", "Model gateway ready", map[string]interface{}{
		"provider":        gw.Provider(),
		"embedding_model": cfg.Gateway.EmbeddingModel,
		"llm_model":       cfg.Gateway.LLMModel,
		"embedding_cache": cache != nil,
	})

	// 4. WebSocket Hub
	c.WebSocketHub = websocket.NewHub(sysLogger)
	forwarders = append(forwarders, c.WebSocketHub)

	// 5. Services
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.App.SessionTTLMinutes)*time.Minute, sysLogger)
	publisherService := service.NewPublisherService(constant.PipelineEventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, constant.PipelineEventTopic, sysLogger, forwarders...)

	indexService := service.NewIndexService(gw, service.NewPostgresConnector(cfg.RemoteDB), sysLogger)
	conversationService := service.NewConversationService(gw, cfg.Rag)
	c.SessionService = service.NewSessionService(
		sessionRepo,
		indexService,
		conversationService,
		publisherService,
		cfg.Rag,
		sysLogger,
	)

	// 6. Controllers
	c.PageController = controller.NewPageController(c.SessionService, sysLogger)
	c.DocumentController = controller.NewDocumentController(c.SessionService)
	c.SessionController = controller.NewSessionController(c.SessionService)
	c.ChatController = controller.NewChatController(c.SessionService, c.WebSocketHub, sysLogger)

	return c, nil
}

// Start launches the background workers; they stop with ctx.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.ConsumerService.Consume(ctx)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func connectRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Redis unreachable, embedding cache disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
