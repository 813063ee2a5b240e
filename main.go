package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/auth"
	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/handlers"
	"github.com/sqlscribe/sqlscribe/pkg/llm"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/metabase"
	"github.com/sqlscribe/sqlscribe/pkg/middleware"
	"github.com/sqlscribe/sqlscribe/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("metabase_url", cfg.Metabase.URL),
		zap.Int("metabase_database_id", cfg.Metabase.DatabaseID),
		zap.String("completion_provider", cfg.Completion.Provider),
		zap.String("completion_model", cfg.Completion.Model))

	// Clients
	metabaseClient := metabase.NewClient(&cfg.Metabase, logger)
	completionClient, err := llm.NewFromConfig(&cfg.Completion, logger)
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}

	// Services
	sessionStore := services.NewSessionStore(cfg.Session.TTL)
	authService := services.NewAuthService(metabaseClient, sessionStore, logger)
	schemaService := services.NewSchemaService(metabaseClient, logger)
	sqlgenService := services.NewSQLGenService(completionClient, &cfg.Completion, logger)
	presentationService := services.NewPresentationService(logger)
	pipeline := services.NewQueryPipeline(schemaService, sqlgenService, presentationService, metabaseClient, cfg.Sampling, logger)

	authMiddleware := auth.NewMiddleware(authService, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, authMiddleware, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(schemaService, sqlgenService, authMiddleware, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(pipeline, sqlgenService, authMiddleware, cfg, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.Metrics(mux)(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting sqlscribe",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
