package dbquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/observability"
	"github.com/ledgerchat/ledgerchat/internal/sqlguard"
)

// ExecutorConfig bounds a single execution. Slots caps concurrent in-flight
// statements and should match the pool's total connection capacity.
type ExecutorConfig struct {
	Timeout       time.Duration
	MaxResultRows int
	AcquireWait   time.Duration
	Slots         int
}

// Executor runs validated statements against the banking database. Execute
// never returns a Go error: every failure mode is folded into the Result so
// callers upstream (the orchestrator, the HTTP handler) have exactly one
// shape to deal with.
type Executor struct {
	db          *sql.DB
	logger      *slog.Logger
	timeout     time.Duration
	maxRows     int
	acquireWait time.Duration
	slots       chan struct{}
}

func NewExecutor(db *sql.DB, logger *slog.Logger, cfg ExecutorConfig) *Executor {
	if cfg.Slots <= 0 {
		cfg.Slots = 1
	}
	return &Executor{
		db:          db,
		logger:      logger,
		timeout:     cfg.Timeout,
		maxRows:     cfg.MaxResultRows,
		acquireWait: cfg.AcquireWait,
		slots:       make(chan struct{}, cfg.Slots),
	}
}

// Execute races the statement against the wall-clock timeout. The worker
// goroutine receives no cancellation signal: on timeout the caller gets a
// timeout Result immediately while the abandoned query keeps running, holding
// its slot until the database finishes it server-side. A request that cannot
// acquire a slot within AcquireWait is refused with pool_exhausted instead of
// queueing behind the pool.
func (e *Executor) Execute(ctx context.Context, stmt sqlguard.Statement) Result {
	start := time.Now()

	acquire := time.NewTimer(e.acquireWait)
	defer acquire.Stop()
	select {
	case e.slots <- struct{}{}:
	case <-acquire.C:
		observability.ObserveQuery("pool_exhausted", time.Since(start))
		e.logger.WarnContext(ctx, "query_pool_exhausted",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.Duration("waited", e.acquireWait),
		)
		return Result{
			Success:   false,
			Query:     stmt.Text,
			Error:     "connection pool exhausted, try again shortly",
			ErrorKind: ErrorPoolExhausted,
		}
	}

	done := make(chan Result, 1)
	go func() {
		defer func() { <-e.slots }()
		done <- e.run(stmt)
	}()

	deadline := time.NewTimer(e.timeout)
	defer deadline.Stop()
	select {
	case result := <-done:
		status := "ok"
		if !result.Success {
			status = "execution"
		}
		observability.ObserveQuery(status, time.Since(start))
		e.logger.DebugContext(ctx, "query_executed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.Bool("success", result.Success),
			slog.Int("row_count", result.RowCount),
			slog.Duration("elapsed", time.Since(start)),
		)
		return result
	case <-deadline.C:
		observability.ObserveQuery("timeout", time.Since(start))
		e.logger.WarnContext(ctx, "query_timeout",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.Duration("timeout", e.timeout),
		)
		return Result{
			Success:   false,
			Query:     stmt.Text,
			Error:     fmt.Sprintf("query exceeded the %s execution timeout", e.timeout),
			ErrorKind: ErrorTimeout,
		}
	}
}

func (e *Executor) run(stmt sqlguard.Statement) Result {
	rows, err := e.db.Query(stmt.Text)
	if err != nil {
		return executionFailure(stmt.Text, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return executionFailure(stmt.Text, err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return executionFailure(stmt.Text, err)
	}

	data := make([]map[string]any, 0)
	for rows.Next() {
		if len(data) >= e.maxRows {
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return executionFailure(stmt.Text, err)
		}
		record := make(map[string]any, len(columns))
		for i, column := range columns {
			record[column] = serializeValue(values[i], columnTypes[i])
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return executionFailure(stmt.Text, err)
	}

	return Result{
		Success:  true,
		Query:    stmt.Text,
		Columns:  columns,
		Data:     data,
		RowCount: len(data),
	}
}

func executionFailure(query string, err error) Result {
	return Result{
		Success:   false,
		Query:     query,
		Error:     err.Error(),
		ErrorKind: ErrorExecution,
	}
}
