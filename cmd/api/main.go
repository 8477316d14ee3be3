package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/meeting-copilot/docs"
	"github.com/johnquangdev/meeting-copilot/internal/adapter/handler"
	"github.com/johnquangdev/meeting-copilot/internal/adapter/repository"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/meeting-copilot/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/lock"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/metrics"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/natsbus"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/notify"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
	pkgai "github.com/johnquangdev/meeting-copilot/pkg/ai"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
	"github.com/johnquangdev/meeting-copilot/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-copilot/pkg/validator"
)

// @title           Meeting Copilot API
// @version         1.0
// @description     Suggests action items, decisions, risks and open questions from meeting transcripts and lets reviewers accept them into the minutes

// @contact.name   API Support
// @contact.email  support@infoquang.id.vn

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Production deployments manage schema with cmd/migrate
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Run cmd/migrate instead.")
		}
		log.Println("🔄 Applying pending migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}
	store := repository.NewStore(db)

	// Locks and debounce keys live in Redis so every API replica shares them
	var (
		keyStore      lock.KeyStore
		debouncer     copilot.Debouncer
		redisNotifier copilot.Notifier
	)
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		redisStore := cache.NewRedisStore(redisClient)
		keyStore, debouncer = redisStore, redisStore
		redisNotifier = notify.NewRedisPublisher(redisClient)
	} else {
		log.Println("⚠️  Redis disabled, meeting locks are local to this process")
		memStore := cache.NewMemoryStore()
		defer memStore.Close()
		keyStore, debouncer = memStore, memStore
	}
	locker := lock.NewKeyLocker(keyStore, cfg.Copilot.LockTTL, logger)

	// Event fan-out: local WebSocket subscribers, Redis pub/sub and NATS
	hub := notify.NewHub(logger)
	sinks := []notify.Sink{
		{Name: "hub", Notifier: hub},
		{Name: "redis", Notifier: redisNotifier},
	}

	var bus *natsbus.Bus
	if cfg.NATS.URL != "" {
		log.Println("📡 Connecting to NATS...")
		bus, err = natsbus.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer bus.Close()
		sinks = append(sinks, notify.Sink{Name: "nats", Notifier: bus})
	}

	// Run archive
	var (
		archive    copilot.RunArchive
		linker     handler.ArchiveLinker
		minioStore *storage.MinIOClient
	)
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to object storage...")
		minioStore, err = storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		archive, linker = minioStore, minioStore
	}

	registry := prometheus.NewRegistry()
	copilotMetrics := metrics.NewCopilotMetrics(registry)

	// Initialize copilot service
	log.Println("🤖 Initializing copilot service...")
	if cfg.Copilot.APIKey == "" {
		log.Println("⚠️  COPILOT_API_KEY is empty, model calls will be rejected upstream")
	}
	copilotService := copilot.NewCopilotService(copilot.Dependencies{
		Store:     store,
		Completer: pkgai.NewChatClient(&cfg.Copilot),
		Locker:    locker,
		Notifier:  notify.NewMulti(sinks...),
		Archive:   archive,
		Debouncer: debouncer,
		Metrics:   copilotMetrics,
	}, cfg.Copilot, logger)

	if err := copilotService.StartWorkerPool(ctx, cfg.Copilot.Workers); err != nil {
		log.Fatalf("Failed to start copilot workers: %v", err)
	}

	if bus != nil {
		if err := bus.Subscribe(ctx, copilotService); err != nil {
			log.Fatalf("Failed to subscribe to NATS: %v", err)
		}
	}

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	copilotHandler := handler.NewCopilotHandler(copilotService, linker, hub, cfg.Server.AllowedOrigins, logger)
	eventsHandler := handler.NewEventsHandler(copilotService, logger)

	var webhookHandler *handler.WebhookHandler
	if cfg.LiveKit.APIKey != "" && cfg.LiveKit.APISecret != "" {
		webhookHandler = handler.NewWebhookHandler(copilotService, store.Meetings(), cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, logger)
	} else {
		log.Println("⚠️  LiveKit credentials missing, webhook endpoint disabled")
	}
	if cfg.Events.SigningSecret == "" {
		log.Println("⚠️  EVENTS_SIGNING_SECRET is empty, internal event hooks disabled")
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	authEchoMW := httpmw.EchoAuth(jwtManager)
	router := handler.NewRouter(cfg, copilotHandler, eventsHandler, webhookHandler, authEchoMW, copilotMetrics.Handler())
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	if err := copilotService.StopWorkerPool(); err != nil {
		log.Printf("❌ Failed to stop copilot workers: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
