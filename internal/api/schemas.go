package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
)

type embedSchemaRequest struct {
	TableName    string `json:"table_name"`
	DDLStatement string `json:"ddl_statement"`
	Description  string `json:"description,omitempty"`
}

func handleEmbedSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req embedSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if strings.TrimSpace(req.TableName) == "" || strings.TrimSpace(req.DDLStatement) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "table_name and ddl_statement are required", false, nil)
		return
	}

	text := req.DDLStatement
	if req.Description != "" {
		text = req.Description + "\n" + text
	}
	vector, err := deps.Embedder.Embed(r.Context(), text)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EMBEDDING_FAILED", err.Error(), true, nil)
		return
	}

	doc := schemaindex.SchemaDocument{
		ID:           uuid.NewString(),
		TableName:    strings.TrimSpace(req.TableName),
		DDLStatement: req.DDLStatement,
		Description:  req.Description,
		Embedding:    vector,
		CreatedAt:    time.Now().UTC(),
	}
	if err := deps.SchemaStore.Upsert(r.Context(), doc); err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_STORE_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table_name": doc.TableName,
		"dimensions": len(vector),
	})
}

type searchSchemasRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func handleSearchSchemas(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req searchSchemasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", false, nil)
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = deps.TopK
	}
	if topK <= 0 {
		topK = 3
	}

	vector, err := deps.Embedder.Embed(r.Context(), req.Query)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EMBEDDING_FAILED", err.Error(), true, nil)
		return
	}
	results, err := deps.SchemaStore.Search(r.Context(), vector, topK)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_SEARCH_FAILED", err.Error(), true, nil)
		return
	}
	if results == nil {
		results = []schemaindex.ScoredDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func handleListSchemas(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	docs, err := deps.SchemaStore.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_LIST_FAILED", err.Error(), true, nil)
		return
	}
	if docs == nil {
		docs = []schemaindex.SchemaDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": docs, "count": len(docs)})
}
