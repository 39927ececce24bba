package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
	"github.com/ledgerchat/ledgerchat/internal/sqlguard"
)

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	tables, err := deps.Inspector.ListTables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "INTROSPECTION_FAILED", err.Error(), true, nil)
		return
	}
	var totalRows int64
	for _, table := range tables {
		totalRows += table.RowCount
	}
	if tables == nil {
		tables = []dbquery.TableInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tables":       tables,
		"total_tables": len(tables),
		"total_rows":   totalRows,
	})
}

func handleDescribeTable(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	columns, err := deps.Inspector.DescribeTable(r.Context(), table)
	if err != nil {
		if errors.Is(err, dbquery.ErrTableNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table not found: "+table, false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTROSPECTION_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":   table,
		"columns": columns,
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

// runValidated pushes a raw query through the same validate-then-execute path
// the chat orchestrator uses. There is no separate safety tier for the direct
// endpoint.
func runValidated(deps Dependencies, r *http.Request, raw string) (dbquery.Result, *sqlguard.RejectionError, error) {
	statements, err := deps.Validator.Validate(raw)
	if err != nil {
		var rejection *sqlguard.RejectionError
		if errors.As(err, &rejection) {
			return dbquery.Result{}, rejection, nil
		}
		return dbquery.Result{}, nil, err
	}
	var result dbquery.Result
	for _, stmt := range statements {
		result = deps.Executor.Execute(r.Context(), stmt)
		if !result.Success {
			break
		}
	}
	return result, nil, nil
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", false, nil)
		return
	}

	result, rejection, err := runValidated(deps, r, req.Query)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", err.Error(), true, nil)
		return
	}
	if rejection != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REJECTED", rejection.Reason, false, nil)
		return
	}
	// Execution failures still answer 200: the result body carries the
	// success flag and error kind.
	writeJSON(w, http.StatusOK, result)
}

func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Exporter == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "EXPORT_NOT_CONFIGURED", "result export is not configured", false, nil)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", false, nil)
		return
	}

	result, rejection, err := runValidated(deps, r, req.Query)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", err.Error(), true, nil)
		return
	}
	if rejection != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REJECTED", rejection.Reason, false, nil)
		return
	}
	if !result.Success {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", result.Error, result.ErrorKind != dbquery.ErrorExecution, map[string]any{
			"error_kind": result.ErrorKind,
		})
		return
	}

	info, err := deps.Exporter.Export(r.Context(), result)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
