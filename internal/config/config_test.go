package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("ledgerchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.PoolSize != 5 {
		t.Fatalf("Database.PoolSize = %d", cfg.Database.PoolSize)
	}
	if cfg.Database.MaxOverflow != 10 {
		t.Fatalf("Database.MaxOverflow = %d", cfg.Database.MaxOverflow)
	}
	if cfg.Query.Timeout != 30*time.Second {
		t.Fatalf("Query.Timeout = %s", cfg.Query.Timeout)
	}
	if cfg.Query.MaxResultRows != 1000 {
		t.Fatalf("Query.MaxResultRows = %d", cfg.Query.MaxResultRows)
	}
	if cfg.Index.TopK != 3 {
		t.Fatalf("Index.TopK = %d", cfg.Index.TopK)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Sessions.Backend != "sqlite" {
		t.Fatalf("Sessions.Backend = %q", cfg.Sessions.Backend)
	}
	if cfg.Export.Enabled {
		t.Fatal("Export.Enabled should default to false")
	}
}

func TestLoadTestProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"LEDGERCHAT_PROFILE": "test"})
	cfg, err := Load("ledgerchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":18080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Sessions.Backend != "memory" {
		t.Fatalf("Sessions.Backend = %q", cfg.Sessions.Backend)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"LEDGERCHAT_PROFILE": "prod"})
	cfg, err := Load("ledgerchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Export.UseSSL {
		t.Fatal("Export.UseSSL should default to true in prod")
	}
	if cfg.Export.AutoCreateBucket {
		t.Fatal("Export.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"LEDGERCHAT_PROFILE":                "test",
		"LEDGERCHAT_SERVICE_NAME":           "ledgerchat-custom",
		"LEDGERCHAT_HTTP_ADDR":              ":9999",
		"LEDGERCHAT_HTTP_READ_TIMEOUT":      "2s",
		"LEDGERCHAT_DB_DRIVER":              "duckdb",
		"LEDGERCHAT_DB_DSN":                 "/tmp/banking.db",
		"LEDGERCHAT_DB_POOL_SIZE":           "7",
		"LEDGERCHAT_DB_MAX_OVERFLOW":        "3",
		"LEDGERCHAT_QUERY_TIMEOUT":          "9s",
		"LEDGERCHAT_QUERY_MAX_RESULT_ROWS":  "250",
		"LEDGERCHAT_QUERY_ACQUIRE_WAIT":     "700ms",
		"LEDGERCHAT_INDEX_DATA_DIR":         "/var/lib/ledgerchat",
		"LEDGERCHAT_INDEX_TOP_K":            "5",
		"LEDGERCHAT_INDEX_EMBED_BASE_URL":   "http://embed.example.com",
		"LEDGERCHAT_INDEX_EMBED_MODEL":      "all-minilm",
		"LEDGERCHAT_LLM_PROVIDER":           "openai",
		"LEDGERCHAT_LLM_BASE_URL":           "https://api.example.com",
		"LEDGERCHAT_LLM_API_KEY":            "secret-key",
		"LEDGERCHAT_LLM_MODEL":              "gpt-5.2",
		"LEDGERCHAT_LLM_TEMPERATURE":        "0.3",
		"LEDGERCHAT_LLM_MAX_TOKENS":         "900",
		"LEDGERCHAT_LLM_TIMEOUT":            "21s",
		"LEDGERCHAT_SESSIONS_BACKEND":       "memory",
		"LEDGERCHAT_EXPORT_ENABLED":         "true",
		"LEDGERCHAT_EXPORT_ENDPOINT":        "s3.example.com",
		"LEDGERCHAT_EXPORT_BUCKET":          "exports-prod",
		"LEDGERCHAT_EXPORT_USE_SSL":         "true",
		"LEDGERCHAT_LOG_LEVEL":              "error",
	})
	cfg, err := Load("ledgerchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "ledgerchat-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "/tmp/banking.db" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.PoolSize != 7 {
		t.Fatalf("Database.PoolSize = %d", cfg.Database.PoolSize)
	}
	if cfg.Database.MaxOverflow != 3 {
		t.Fatalf("Database.MaxOverflow = %d", cfg.Database.MaxOverflow)
	}
	if cfg.Query.Timeout != 9*time.Second {
		t.Fatalf("Query.Timeout = %s", cfg.Query.Timeout)
	}
	if cfg.Query.MaxResultRows != 250 {
		t.Fatalf("Query.MaxResultRows = %d", cfg.Query.MaxResultRows)
	}
	if cfg.Query.AcquireWait != 700*time.Millisecond {
		t.Fatalf("Query.AcquireWait = %s", cfg.Query.AcquireWait)
	}
	if cfg.Index.DataDir != "/var/lib/ledgerchat" {
		t.Fatalf("Index.DataDir = %q", cfg.Index.DataDir)
	}
	if cfg.Index.TopK != 5 {
		t.Fatalf("Index.TopK = %d", cfg.Index.TopK)
	}
	if cfg.Index.EmbedModel != "all-minilm" {
		t.Fatalf("Index.EmbedModel = %q", cfg.Index.EmbedModel)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "https://api.example.com" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKey != "secret-key" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 900 {
		t.Fatalf("LLM.MaxTokens = %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Timeout != 21*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if !cfg.Export.Enabled {
		t.Fatal("Export.Enabled = false, want true")
	}
	if cfg.Export.Endpoint != "s3.example.com" {
		t.Fatalf("Export.Endpoint = %q", cfg.Export.Endpoint)
	}
	if cfg.Export.Bucket != "exports-prod" {
		t.Fatalf("Export.Bucket = %q", cfg.Export.Bucket)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"LEDGERCHAT_PROFILE": "oops"},
		{"LEDGERCHAT_HTTP_READ_TIMEOUT": "NaN"},
		{"LEDGERCHAT_DB_DRIVER": "mysql"},
		{"LEDGERCHAT_DB_POOL_SIZE": "oops"},
		{"LEDGERCHAT_QUERY_MAX_RESULT_ROWS": "0"},
		{"LEDGERCHAT_LLM_PROVIDER": "gemini"},
		{"LEDGERCHAT_LLM_TEMPERATURE": "bad"},
		{"LEDGERCHAT_SESSIONS_BACKEND": "redis"},
		{"LEDGERCHAT_EXPORT_ENABLED": "not-bool"},
		{"LEDGERCHAT_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("ledgerchat-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
