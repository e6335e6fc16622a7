package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/config"
	"motion-server/internal/handler"
	"motion-server/internal/middleware"
	"motion-server/internal/repository"
	"motion-server/internal/service"
	"motion-server/internal/tools"
	"motion-server/internal/webanalysis"
	"motion-server/migrations"
	"motion-server/pkg/database"
	"motion-server/pkg/logger"
	"motion-server/pkg/migration"
)

func main() {
	// .env is optional, real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting motion-server",
		zap.String("port", cfg.Port),
		zap.String("aiClientType", cfg.AIClientType),
		zap.String("aiModel", cfg.AIModel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := cfg.GetDSN()
	pool, err := setupPostgres(ctx, cfg, dsn, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if err := migration.NewRunner(migrations.FS, ".", dsn, log).Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	aiClient, err := ai.NewClient(ai.Config{
		ClientType: cfg.AIClientType,
		BaseURL:    cfg.AIBaseURL,
		APIKey:     cfg.AIAPIKey,
		Model:      cfg.AIModel,
		Timeout:    cfg.AITimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	prompts := ai.NewRegistry()

	analyzer := setupWebAnalysis(ctx, cfg, log)

	sceneRepo := repository.NewPgSceneRepository(log)
	iterationRepo := repository.NewPgSceneIterationRepository(log)
	txHelper := repository.NewTransactionHelper(pool, log)

	addTool := tools.NewAddTool(aiClient, prompts, log)
	editTool := tools.NewEditTool(aiClient, prompts, log)
	deleteTool := tools.NewDeleteTool(log)
	trimTool := tools.NewTrimTool(log)

	builder := service.NewContextBuilder(pool, sceneRepo, analyzer, log)
	brain := service.NewBrain(aiClient, prompts, log)
	executor := service.NewExecutor(pool, txHelper, sceneRepo, iterationRepo,
		addTool, editTool, deleteTool, trimTool, log)
	generationService := service.NewGenerationService(builder, brain, executor,
		pool, txHelper, sceneRepo, iterationRepo, log)

	generationHandler := handler.NewGenerationHandler(generationService, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.ZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	generationHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}

// setupPostgres connects with retries so the server survives a database that
// is still starting up.
func setupPostgres(ctx context.Context, cfg *config.Config, dsn string, log *zap.Logger) (pool *pgxpool.Pool, err error) {
	const maxRetries = 30
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pool, err = database.NewPool(ctx, database.Config{
			DSN:         dsn,
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: cfg.DBIdleTimeout,
		}, log)
		if err == nil {
			return pool, nil
		}
		log.Warn("PostgreSQL not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return nil, fmt.Errorf("postgres unavailable after %d attempts: %w", maxRetries, err)
}

// setupWebAnalysis wires the optional web analysis collaborator. Returns nil
// when the feature is disabled; the context builder treats a nil analyzer as
// "no web context".
func setupWebAnalysis(ctx context.Context, cfg *config.Config, log *zap.Logger) webanalysis.Analyzer {
	if cfg.WebAnalysisURL == "" {
		log.Info("Web analysis disabled")
		return nil
	}

	var analyzer webanalysis.Analyzer = webanalysis.NewHTTPAnalyzer(cfg.WebAnalysisURL, cfg.WebAnalysisTimeout, log)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, web analysis cache disabled", zap.Error(err))
		} else {
			analyzer = webanalysis.NewCachedAnalyzer(analyzer, rdb, cfg.RedisCacheTTL, log)
			log.Info("Web analysis cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	log.Info("Web analysis enabled", zap.String("url", cfg.WebAnalysisURL))
	return analyzer
}
