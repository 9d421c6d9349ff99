package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/kvstore"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/websocket"
	"portfolio-backend/internal/worker"
)

const geminiConcurrentReqs = 4

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
	log.Info().Str("env", cfg.Env).Msg("🚀 Starting Portfolio Backend...")
	log.Info().Msg("✓ Environment variables loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ Redis connection failed")
		}
		defer redisClients.Close()
		log.Info().Msg("✓ Redis connected")
	}

	// ──── Step 4: Run Database Migrations ────
	applied, err := database.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Database migration failed")
	}
	log.Info().Int("applied", applied).Msg("✓ Database migrations applied")

	// ──── Metrics ────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ──── Step 5: Counter Store ────
	store, err := newCounterStore(cfg, pool, redisClients)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Counter store initialization failed")
	}
	log.Info().Str("backend", cfg.KVBackend).Msg("✓ Counter store ready")

	// ──── Step 6: Completion Provider and Persona ────
	completer, label, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Completion client initialization failed")
	}
	defer closeCompleter()
	if completer == nil {
		log.Warn().Str("provider", cfg.ChatProvider).Msg("no API key set, chat will answer 500 until configured")
	} else {
		log.Info().Str("provider", completer.Name()).Msg("✓ Completion client initialized")
	}

	personas, err := config.NewPersonaStore(cfg.PersonaFile)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Persona load failed")
	}
	go func() {
		if err := personas.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("persona watcher stopped")
		}
	}()
	log.Info().Str("file", cfg.PersonaFile).Msg("✓ Persona loaded")

	// ──── Initialize Repositories and Services ────
	contactRepo := repository.NewContactRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, 0)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)

	var (
		queue  services.JobEnqueuer
		events services.EventPublisher
	)
	if redisClients != nil {
		if cfg.QueueEnabled {
			queue = worker.NewQueue(redisClients.Queue)
		}
		events = websocket.NewPublisher(redisClients.Queue)
	}

	quota := services.NewQuotaLimiter(store, cfg.ChatMaxQuestions)
	chatService := services.NewChatService(quota, completer, personas, services.ChatOptions{
		Temperature: cfg.ChatTemperature,
		MaxTokens:   cfg.ChatMaxTokens,
		Timeout:     cfg.ChatTimeout,
	}, m)
	contactService := services.NewContactService(contactRepo, queue, events, m)
	projectService := services.NewProjectService(projectRepo, events)
	analyticsService := services.NewAnalyticsService(contactRepo, projectRepo)
	adminAuth := services.NewAdminAuthService(cfg.AdminPasswordHash, jwtAuth)
	if !adminAuth.Enabled() {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	// ──── Step 7: Start Job Worker Pool ────
	var workerPool *worker.Pool
	if queue != nil {
		workerPool = worker.NewPool(redisClients.Queue, emailService, cfg.OwnerEmail, m, cfg.WorkerCount)
		workerPool.Start()
		log.Info().Int("workers", cfg.WorkerCount).Msg("✓ Worker pool started")
	}

	// ──── Step 8: Start WebSocket Hub ────
	var wsHandler http.HandlerFunc
	if redisClients != nil {
		wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL)
		wsHandler = wsHub.HandleWebSocket
		log.Info().Msg("✓ WebSocket hub started")
	}

	// ──── Step 9: Start HTTP Server ────
	exposeDetails := !cfg.IsProduction()
	burstLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer burstLimiter.Stop()

	r := router.New(jwtAuth, router.Handlers{
		Chat:      handlers.NewChatHandler(chatService, label, exposeDetails),
		Contact:   handlers.NewContactHandler(contactService, exposeDetails),
		Project:   handlers.NewProjectHandler(projectService, exposeDetails),
		Analytics: handlers.NewAnalyticsHandler(analyticsService, exposeDetails),
		Admin:     handlers.NewAdminHandler(adminAuth, exposeDetails),
		WebSocket: wsHandler,
	}, m, burstLimiter, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
		if workerPool != nil {
			workerPool.Stop()
		}
	}()

	log.Info().Msgf("✓ Portfolio Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func newCounterStore(cfg *config.Config, pool *pgxpool.Pool, redisClients *database.RedisClients) (kvstore.Store, error) {
	switch cfg.KVBackend {
	case "redis":
		if redisClients == nil {
			return nil, fmt.Errorf("KV_BACKEND=redis requires REDIS_URL")
		}
		return kvstore.NewRedisStore(redisClients.Queue, services.QuotaKeyTTL), nil
	case "postgres":
		return kvstore.NewPostgresStore(pool), nil
	case "memory":
		return kvstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
	}
}

// newCompleter returns a nil Completer when the selected provider has no API key.
// label is the provider's display name used in error payloads.
func newCompleter(ctx context.Context, cfg *config.Config) (services.Completer, string, func(), error) {
	noop := func() {}
	switch cfg.ChatProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, "OpenAI", noop, nil
		}
		httpClient := &http.Client{Timeout: cfg.ChatTimeout}
		return services.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, httpClient), "OpenAI", noop, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, "Gemini", noop, nil
		}
		g, err := services.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, geminiConcurrentReqs)
		if err != nil {
			return nil, "Gemini", noop, err
		}
		return g, "Gemini", g.Close, nil
	default:
		return nil, "", noop, fmt.Errorf("unknown CHAT_PROVIDER %q", cfg.ChatProvider)
	}
}
