package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"REWRITER_BATCH_SIZE":               "rewriter.batch_size",
		"REWRITER_CONCATENATE_ORIGINAL":     "rewriter.concatenate_original",
		"LLM_API_KEY":                       "llm.api_key",
		"OBSERVABILITY_ENABLED":             "observability.enabled",
		"OBSERVABILITY_SERVICE_NAME":        "observability.service_name",
		"OBSERVABILITY_TRACING_SAMPLE_RATE": "observability.tracing.sample_rate",
		"OBSERVABILITY_LOGGING_LEVEL":       "observability.logging.level",
		"DEBUG":                             "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: vllm
  model: Qwen/Qwen2.5-7B-Instruct
  timeout: 45s
  concurrency: 2
rewriter:
  variant: title
  batch_size: 8
  concatenate_original: false
observability:
  tracing:
    exporter: stdout
  logging:
    level: debug
`), 0o600))

	t.Setenv("CTXREFINE_REWRITER_MAX_NEW_TOKENS", "128")
	t.Setenv("CTXREFINE_OBSERVABILITY_LOGGING_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderVLLM, cfg.LLM.Provider)
	assert.Equal(t, "Qwen/Qwen2.5-7B-Instruct", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.Concurrency)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)

	assert.Equal(t, VariantTitle, cfg.Rewriter.Variant)
	assert.Equal(t, 8, cfg.Rewriter.BatchSize)
	assert.Equal(t, 128, cfg.Rewriter.MaxNewTokens)
	assert.False(t, cfg.Rewriter.Concatenate())
	assert.True(t, cfg.Rewriter.Separately())

	assert.Equal(t, "stdout", cfg.Observability.Tracing.Exporter)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, "ctxrefine", cfg.Observability.ServiceName)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, VariantPlain, cfg.Rewriter.Variant)
	assert.Equal(t, DefaultBatchSize, cfg.Rewriter.BatchSize)
	assert.Equal(t, DefaultMaxNewTokens, cfg.Rewriter.MaxNewTokens)
	assert.True(t, cfg.Rewriter.Separately())
	assert.True(t, cfg.Rewriter.Concatenate())

	assert.ErrorIs(t, cfg.Validate(), ErrModelRequired)
}

func TestLoader_Getters(t *testing.T) {
	t.Setenv("CTXREFINE_LLM_RETRY_DELAY", "2s")
	t.Setenv("CTXREFINE_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("CTXREFINE_REWRITER_BATCH_SIZE", "6")
	t.Setenv("CTXREFINE_OBSERVABILITY_ENABLED", "true")

	l := NewLoader()
	require.NoError(t, l.LoadEnv(EnvPrefix))

	assert.Equal(t, "gpt-4o-mini", l.GetString("llm.model"))
	assert.Equal(t, 6, l.GetInt("rewriter.batch_size"))
	assert.True(t, l.GetBool("observability.enabled"))
	assert.Equal(t, 2*time.Second, l.GetDuration("llm.retry_delay"))
}

func TestValidate(t *testing.T) {
	hot, zero := 3.0, 0.0
	llm := LLMConfig{Provider: ProviderOpenAI, Model: "m", Temperature: &hot}
	assert.ErrorIs(t, llm.Validate(), ErrInvalidTemperature)

	llm = LLMConfig{Provider: ProviderOpenAI, Model: "m", Temperature: &zero}
	assert.NoError(t, llm.Validate())

	llm = LLMConfig{Provider: "other", Model: "m"}
	assert.ErrorIs(t, llm.Validate(), ErrInvalidProvider)

	llm = LLMConfig{Provider: ProviderOllama, Model: "m", MaxRetries: 50, Timeout: time.Hour}
	require.NoError(t, llm.Validate())
	assert.Equal(t, 10, llm.MaxRetries)
	assert.Equal(t, 5*time.Minute, llm.Timeout)

	rw := RewriterConfig{Variant: "summary"}
	assert.ErrorIs(t, rw.Validate(), ErrInvalidVariant)
	rw = RewriterConfig{BatchSize: -1}
	assert.ErrorIs(t, rw.Validate(), ErrInvalidBatchSize)
	rw = RewriterConfig{MaxNewTokens: -1}
	assert.ErrorIs(t, rw.Validate(), ErrInvalidMaxNewTokens)

	obs := ObservabilityConfig{Tracing: TracingConfig{SampleRate: 1.5}}
	assert.ErrorIs(t, obs.Validate(), ErrInvalidSampleRate)
}
