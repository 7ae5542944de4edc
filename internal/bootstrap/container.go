package bootstrap

import (
	"context"
	"log"

	"ai-oneshot-console/internal/config"
	"ai-oneshot-console/internal/controller"
	"ai-oneshot-console/internal/handler"
	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/repository/memory"
	"ai-oneshot-console/internal/service"
	"ai-oneshot-console/internal/websocket"
	"ai-oneshot-console/pkg/ask"
	pktNats "ai-oneshot-console/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// SessionEventsTopic is the in-process topic carrying session events.
const SessionEventsTopic = "oneshot.session_events"

type Container struct {
	// Controllers
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	SessionStreamHandler *handler.SessionStreamHandler

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := service.NewEventBus(watermillLogger)

	// 3. Infrastructure (optional)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	hubLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	wsHub := websocket.NewHub(rdb, hubLogger)

	// 4. Services
	var audit service.AuditPublisher
	if natsPub != nil {
		audit = natsPub
	}

	publisherService := service.NewPublisherService(SessionEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		SessionEventsTopic,
		wsHub,
		audit,
		sysLogger,
	)

	answerClient := ask.NewHTTPClient(cfg.Ask.ServiceURL)
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval)
	sessionService := service.NewSessionService(
		sessionRepo,
		answerClient,
		publisherService,
		sysLogger,
		cfg.Ask.Timeout,
	)

	// 5. Controllers
	sessionController := controller.NewSessionController(sessionService)
	sessionStreamHandler := handler.NewSessionStreamHandler(sessionService, wsHub, sysLogger)

	return &Container{
		SessionController:    sessionController,
		ConsumerService:      consumerService,
		WebSocketHub:         wsHub,
		SessionStreamHandler: sessionStreamHandler,
		Logger:               sysLogger,
		pubSub:               pubSub,
		natsPub:              natsPub,
		rdb:                  rdb,
	}
}

// Close releases the event bus and external connections.
func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
	c.Logger.Sync()
}
