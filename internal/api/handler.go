package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerchat/ledgerchat/internal/chat"
	"github.com/ledgerchat/ledgerchat/internal/config"
	"github.com/ledgerchat/ledgerchat/internal/dbquery"
	"github.com/ledgerchat/ledgerchat/internal/export"
	"github.com/ledgerchat/ledgerchat/internal/observability"
	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
	"github.com/ledgerchat/ledgerchat/internal/sqlguard"
)

type ReadinessCheck func(ctx context.Context) error

type Orchestrator interface {
	Handle(ctx context.Context, sessionID, message string) (chat.Reply, error)
}

type Inspector interface {
	ListTables(ctx context.Context) ([]dbquery.TableInfo, error)
	DescribeTable(ctx context.Context, table string) ([]dbquery.ColumnInfo, error)
	Ping(ctx context.Context) error
}

type Executor interface {
	Execute(ctx context.Context, stmt sqlguard.Statement) dbquery.Result
}

type Exporter interface {
	Export(ctx context.Context, result dbquery.Result) (export.ExportInfo, error)
}

type SchemaEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type SchemaStore interface {
	Upsert(ctx context.Context, doc schemaindex.SchemaDocument) error
	Search(ctx context.Context, vector []float32, topK int) ([]schemaindex.ScoredDocument, error)
	List(ctx context.Context) ([]schemaindex.SchemaDocument, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Orchestrator      Orchestrator
	Sessions          chat.SessionStore
	Inspector         Inspector
	Validator         *sqlguard.Validator
	Executor          Executor
	Exporter          Exporter
	Embedder          SchemaEmbedder
	SchemaStore       SchemaStore
	TopK              int
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/chat", func(w http.ResponseWriter, r *http.Request) {
		handleChat(deps, w, r)
	})
	mux.HandleFunc("GET /v1/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		handleListSessions(deps, w, r)
	})
	mux.HandleFunc("GET /v1/chat/sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		handleGetSession(deps, w, r)
	})

	mux.HandleFunc("GET /v1/database/tables", func(w http.ResponseWriter, r *http.Request) {
		handleListTables(deps, w, r)
	})
	mux.HandleFunc("GET /v1/database/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		handleDescribeTable(deps, w, r)
	})
	mux.HandleFunc("POST /v1/database/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})
	mux.HandleFunc("POST /v1/database/export", func(w http.ResponseWriter, r *http.Request) {
		handleExport(deps, w, r)
	})

	mux.HandleFunc("POST /v1/schemas/embed", func(w http.ResponseWriter, r *http.Request) {
		handleEmbedSchema(deps, w, r)
	})
	mux.HandleFunc("POST /v1/schemas/search", func(w http.ResponseWriter, r *http.Request) {
		handleSearchSchemas(deps, w, r)
	})
	mux.HandleFunc("GET /v1/schemas", func(w http.ResponseWriter, r *http.Request) {
		handleListSchemas(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckDatabase reports readiness from a live connection ping.
func CheckDatabase(inspector Inspector) ReadinessCheck {
	return func(ctx context.Context) error {
		return inspector.Ping(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
