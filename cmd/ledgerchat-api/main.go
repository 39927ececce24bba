package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/api"
	"github.com/ledgerchat/ledgerchat/internal/chat"
	"github.com/ledgerchat/ledgerchat/internal/config"
	"github.com/ledgerchat/ledgerchat/internal/dbquery"
	"github.com/ledgerchat/ledgerchat/internal/export"
	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/observability"
	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
	"github.com/ledgerchat/ledgerchat/internal/sqlgen"
	"github.com/ledgerchat/ledgerchat/internal/sqlguard"
)

func main() {
	cfg, err := config.LoadFromEnv("ledgerchat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := dbquery.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("failed to open banking database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	inspector := dbquery.NewInspector(db, cfg.Database.Driver)
	executor := dbquery.NewExecutor(db, logger, dbquery.ExecutorConfig{
		Timeout:       cfg.Query.Timeout,
		MaxResultRows: cfg.Query.MaxResultRows,
		AcquireWait:   cfg.Query.AcquireWait,
		Slots:         cfg.Database.PoolSize + cfg.Database.MaxOverflow,
	})
	validator := sqlguard.NewValidator(cfg.Query.MaxResultRows)

	schemaStore, err := schemaindex.Open(cfg.Index.DataDir)
	if err != nil {
		logger.Error("failed to open schema index", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = schemaStore.Close() }()

	embedder, err := llm.NewEmbedder(cfg.Index.EmbedBaseURL, cfg.Index.EmbedModel)
	if err != nil {
		logger.Error("failed to initialize embedder", slog.Any("error", err))
		os.Exit(1)
	}
	retriever := schemaindex.NewRetriever(embedder, schemaStore, cfg.Index.TopK)

	client, err := llm.New(cfg.LLM)
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}
	generator := sqlgen.NewGenerator(client, cfg.LLM.MaxTokens)
	synthesizer := sqlgen.NewSynthesizer(client, cfg.LLM.MaxTokens)

	var sessions chat.SessionStore
	switch cfg.Sessions.Backend {
	case "memory":
		sessions = chat.NewMemoryStore()
	default:
		sqliteStore, err := chat.OpenSQLiteStore(cfg.Sessions.DataDir)
		if err != nil {
			logger.Error("failed to open session store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = sqliteStore.Close() }()
		sessions = sqliteStore
	}

	orchestrator := chat.NewOrchestrator(chat.OrchestratorDeps{
		Retriever:   retriever,
		Generator:   generator,
		Validator:   validator,
		Executor:    executor,
		Synthesizer: synthesizer,
		Client:      client,
		Sessions:    sessions,
		Logger:      logger,
	})

	deps := api.Dependencies{
		Logger:            logger,
		Readiness:         api.CheckDatabase(inspector),
		DependencyTimeout: time.Second,
		Orchestrator:      orchestrator,
		Sessions:          sessions,
		Inspector:         inspector,
		Validator:         validator,
		Executor:          executor,
		Embedder:          embedder,
		SchemaStore:       schemaStore,
		TopK:              cfg.Index.TopK,
	}
	if cfg.Export.Enabled {
		exporter, err := export.New(context.Background(), cfg.Export)
		if err != nil {
			logger.Error("failed to initialize result exporter", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Exporter = exporter
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
