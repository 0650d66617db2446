package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 6000, cfg.Merger.TokenBudget)
	assert.Equal(t, 4, cfg.Merger.MaxConcurrency)
	assert.Equal(t, 20*time.Second, cfg.Merger.CollectorTimeout)
	assert.Equal(t, 60*time.Second, cfg.Merger.CollectDeadline)
	assert.Equal(t, "http", cfg.Sources.WebFetch.Fetcher)
	assert.Equal(t, "serper", cfg.Sources.WebSearch.Provider)
	assert.Equal(t, "file", cfg.Storage.Memory.Backend)
	assert.Equal(t, "data/customers", cfg.Storage.File.DataDir)
	assert.Equal(t, "/metrics", cfg.Telemetry.MetricsPath)
	assert.False(t, cfg.Sources.Statistics.Configured())
	assert.False(t, cfg.Storage.S3.Enabled())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"llm": {"provider": " Gemini ", "model": "gemini-2.0-flash"},
		"merger": {"token_budget": 3000, "collector_timeout": "5s", "category_weights": {"RSS": 1.4, "ads": -1}},
		"sources": {"crawl_policy": {"disallow": ["https://www.Blocked.com"]}},
		"storage": {"memory": {"backend": "sqlite"}, "sqlite": {"path": "/tmp/mem.db"}}
	}`)
	t.Setenv("CTXMERGE_LLM_API_KEY", "secret")
	t.Setenv("CTXMERGE_SOURCES_STATISTICS_TOKEN", "tok")
	t.Setenv("CTXMERGE_SERVER_ADDRESS", ":9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, 3000, cfg.Merger.TokenBudget)
	assert.Equal(t, 5*time.Second, cfg.Merger.CollectorTimeout)
	assert.Equal(t, map[string]float64{"rss": 1, "ads": 0}, cfg.Merger.CategoryWeights)
	assert.Equal(t, []string{"blocked.com"}, cfg.Sources.CrawlPolicy.Disallow)
	assert.True(t, cfg.Sources.Statistics.Configured())
	assert.Equal(t, "sqlite", cfg.Storage.Memory.Backend)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown llm provider", `{"llm": {"provider": "llama"}}`},
		{"negative budget", `{"merger": {"token_budget": -1}}`},
		{"bad fetcher", `{"sources": {"web_fetch": {"fetcher": "curl"}}}`},
		{"bad search provider", `{"sources": {"web_search": {"provider": "bing"}}}`},
		{"policy conflict", `{"sources": {"crawl_policy": {"allow": ["a.com"], "disallow": ["a.com"]}}}`},
		{"unknown memory backend", `{"storage": {"memory": {"backend": "mongo"}}}`},
		{"sqlite without path", `{"storage": {"memory": {"backend": "sqlite"}}}`},
		{"s3 without keys", `{"storage": {"s3": {"endpoint": "minio:9000"}}}`},
		{"metrics path", `{"telemetry": {"metrics_path": "metrics"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "postgres://u:p@db/x", PostgresConfig{URL: "postgres://u:p@db/x", Host: "ignored"}.DSN())
	assert.Equal(t,
		"host=db port=5432 dbname=ctx sslmode=disable user=app password=pw",
		PostgresConfig{Host: "db", Port: "5432", DBName: "ctx", User: "app", Password: "pw"}.DSN())
}
