package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/featureflags"
	"github.com/aryan0dhankhar/connectcoach/internal/handler"
	"github.com/aryan0dhankhar/connectcoach/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/connectcoach/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/connectcoach/internal/llm"
	"github.com/aryan0dhankhar/connectcoach/internal/observability/metrics"
	"github.com/aryan0dhankhar/connectcoach/internal/observability/tracing"
	"github.com/aryan0dhankhar/connectcoach/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/connectcoach/internal/reliability/retry"
	"github.com/aryan0dhankhar/connectcoach/internal/repository"
	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/security/ratelimit"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
	"github.com/aryan0dhankhar/connectcoach/internal/worker"
	"github.com/aryan0dhankhar/connectcoach/pkg/cache"
	"github.com/aryan0dhankhar/connectcoach/pkg/config"
	"github.com/aryan0dhankhar/connectcoach/pkg/database"
)

const serviceName = "connectcoach"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting ConnectCoach server", slog.String("environment", cfg.Environment))

	if cfg.InsecureSecret {
		level := slog.LevelWarn
		if cfg.IsProduction() {
			level = slog.LevelError
		}
		log.Log(context.Background(), level, "JWT_SECRET is not set, session tokens are signed with the development secret")
	}
	if cfg.AnthropicAPIKey == "" {
		log.Warn("ANTHROPIC_API_KEY is not set, feedback requests will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	}, log)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Initialize the store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	// 4. Initialize the foundation cache
	var foundationCache cache.Store
	var redisPinger handler.Pinger
	if cfg.RedisURL == "" {
		memCache := cache.New()
		foundationCache = memCache
		go worker.NewCleanupWorker(memCache, log, time.Minute).Start(ctx)
	} else {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, serviceName+":", log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		foundationCache = redisClient
		redisPinger = redisClient
	}

	// 5. Initialize security components
	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, serviceName, log)
	if err != nil {
		log.Error("failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	auditLogger := audit.NewLogger(log)
	authLimiter := ratelimit.NewLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	defer authLimiter.Stop()
	feedbackLimiter := ratelimit.NewLimiter(cfg.FeedbackRateLimit, cfg.FeedbackRateWindow)
	defer feedbackLimiter.Stop()

	// 6. Initialize the completion provider behind a circuit breaker
	provider := llm.NewAnthropic(nil, cfg.AnthropicBaseURL, cfg.AnthropicAPIKey)
	breaker := circuitbreaker.NewCircuitBreaker(cfg.BreakerFailures, 1, cfg.BreakerCooldown)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		metrics.SetBreakerState(int(to))
		log.Warn("completion circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	// 7. Initialize services
	authService := service.NewAuthService(store, tokenManager, auditLogger, log)
	foundationService := service.NewFoundationService(store, foundationCache, cfg.FoundationCacheTTL, auditLogger, log)
	feedbackService := service.NewFeedbackService(store, foundationService, provider, breaker, service.FeedbackOptions{
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.AnthropicMaxTokens,
		Timeout:   cfg.CompletionTimeout,
	}, auditLogger, log)

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Error("failed to bootstrap admin", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 8. Setup HTTP routes
	enforceActive := featureflags.Enabled(featureflags.EnforceActiveSessions)
	mux := handler.NewRouter(handler.Routes{
		Auth:            handler.NewAuthHandler(authService, tokenManager, cfg.IsProduction(), log),
		Admin:           handler.NewAdminHandler(authService, cfg.PublicBaseURL, log),
		Feedback:        handler.NewFeedbackHandler(feedbackService, log),
		Foundation:      handler.NewFoundationHandler(foundationService, log),
		Tools:           handler.NewToolsHandler(),
		Health:          handler.NewHealthHandler(store, redisPinger, log),
		Tokens:          tokenManager,
		Users:           store.Users(),
		EnforceActive:   enforceActive,
		Audit:           auditLogger,
		AuthLimiter:     authLimiter,
		FeedbackLimiter: feedbackLimiter,
		Logger:          log,
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> access log -> CORS -> input checks -> metrics -> mux
	rootHandler := middleware.Chain(metrics.HTTPMetricsMiddleware(mux),
		middleware.RequestID,
		middleware.AccessLog(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizeInputs(log),
		middleware.ValidateJSONContentType(log),
	)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           otelhttp.NewHandler(rootHandler, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.CompletionTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("enforce_active_sessions", enforceActive),
		slog.Int("auth_rate_limit", cfg.AuthRateLimit),
		slog.Int("feedback_rate_limit", cfg.FeedbackRateLimit),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	log.Info("server stopped")
}

// openStore connects to Postgres and applies migrations, or falls back to the
// in-memory store when no DATABASE_URL is configured outside production.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			return nil, nil, errors.New("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL is not set, using the in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect database",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
		})
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx, pool.GetDB(), log); err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := pool.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
	return repository.NewPostgresStore(pool.GetDB(), log), closeFn, nil
}
