package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/infrastructure/resilience"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTP.Port)
	require.Equal(t, "documents.ingested", cfg.NATS.Subject)
	require.Equal(t, "documents.indexed", cfg.NATS.IndexSubject)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	require.Equal(t, "prose", cfg.NLP.Backend)
	require.Equal(t, classification.DefaultParams(), cfg.Classification.Params)
	require.Equal(t, 250*time.Millisecond, cfg.HTTP.BackpressureWait)
	require.Equal(t, 2*time.Minute, cfg.Worker.ProcessTimeout)
	require.Equal(t, resilience.DefaultConfig(), cfg.Resilience)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")
	t.Setenv("DOCUSCAN_HTTP_PORT", "9999")
	t.Setenv("DOCUSCAN_CACHE_BACKEND", "Redis")
	t.Setenv("DOCUSCAN_CLASSIFICATION_DATE_URGENCY_BONUS", "-1")
	t.Setenv("DOCUSCAN_CLASSIFICATION_SUMMARY_SENTENCES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9999", cfg.HTTP.Port)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, -1.0, cfg.Classification.Params.DateUrgencyBonus)
	require.Equal(t, 5, cfg.Classification.Params.SummarySentences)
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "docuscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nlp:
  backend: ollama
  ollama_model: mistral
classification:
  max_tags: 5
logging:
  level: debug
`), 0o600))
	t.Setenv("DOCUSCAN_CONFIG", path)
	t.Setenv("DOCUSCAN_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ollama", cfg.NLP.Backend)
	require.Equal(t, "mistral", cfg.NLP.OllamaModel)
	require.Equal(t, 5, cfg.Classification.Params.MaxTags)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "/nonexistent/docuscan.yaml")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")
	t.Setenv("DOCUSCAN_NATS_SUBJECT", "")
	require.NoError(t, os.Unsetenv("DOCUSCAN_NATS_SUBJECT"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCUSCAN_NATS_SUBJECT=legal.intake\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DOCUSCAN_NATS_SUBJECT") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "legal.intake", cfg.NATS.Subject)
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")
	t.Setenv("DOCUSCAN_CACHE_BACKEND", "memcached")
	t.Setenv("DOCUSCAN_NLP_BACKEND", "spacy")

	_, err := Load()
	require.ErrorContains(t, err, "cache.backend")
	require.ErrorContains(t, err, "nlp.backend")
}

func TestLoadNestedResilienceOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")
	t.Setenv("DOCUSCAN_RESILIENCE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("DOCUSCAN_RESILIENCE_BREAKER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Resilience.Retry.MaxAttempts)
	require.False(t, cfg.Resilience.Breaker.Enabled)
	require.Equal(t, resilience.DefaultConfig().Breaker.OpenTimeout, cfg.Resilience.Breaker.OpenTimeout)
}

func TestValidateRejectsOutOfRangeJitter(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DOCUSCAN_CONFIG", "")
	t.Setenv("DOCUSCAN_RESILIENCE_RETRY_JITTER", "1.5")

	_, err := Load()
	require.ErrorContains(t, err, "resilience.retry.jitter")
}
