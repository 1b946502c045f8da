package rewriter_test

import (
	"context"
	"testing"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"github.com/easyops/ctxrefine-go/pkg/rewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestFromConfig(t *testing.T) {
	t.Run("plain defaults", func(t *testing.T) {
		p, err := rewriter.FromConfig(config.RewriterConfig{}, newMockGenerator(prefixEcho))
		require.NoError(t, err)

		r, ok := p.(*rewriter.Rewriter)
		require.True(t, ok)
		cfg := r.Config()
		assert.Equal(t, 4, cfg.BatchSize)
		assert.Equal(t, 256, cfg.MaxNewTokens)
		assert.True(t, cfg.ProcessSeparately)
		assert.True(t, cfg.ConcatenateOriginal)
	})

	t.Run("plain overrides", func(t *testing.T) {
		p, err := rewriter.FromConfig(config.RewriterConfig{
			Variant:             config.VariantPlain,
			BatchSize:           2,
			MaxNewTokens:        128,
			ProcessSeparately:   boolPtr(false),
			ConcatenateOriginal: boolPtr(false),
		}, newMockGenerator(prefixEcho))
		require.NoError(t, err)

		cfg := p.(*rewriter.Rewriter).Config()
		assert.Equal(t, 2, cfg.BatchSize)
		assert.Equal(t, 128, cfg.MaxNewTokens)
		assert.False(t, cfg.ProcessSeparately)
		assert.False(t, cfg.ConcatenateOriginal)
	})

	t.Run("title variant", func(t *testing.T) {
		gen := newMockGenerator(constant("R"))
		p, err := rewriter.FromConfig(config.RewriterConfig{Variant: config.VariantTitle}, gen,
			rewriter.WithConcatenateOriginal(false),
		)
		require.NoError(t, err)
		assert.Equal(t, "llm_rewriter_title_org_mock-model", p.Name())

		out, _, err := p.Process(context.Background(), [][]string{{"Head. Body."}}, []string{"Q"})
		require.NoError(t, err)
		require.Len(t, out[0], 1)
		assert.Equal(t, "Head. R", out[0][0])
	})

	t.Run("invalid variant", func(t *testing.T) {
		_, err := rewriter.FromConfig(config.RewriterConfig{Variant: "summary"}, newMockGenerator(prefixEcho))
		assert.ErrorIs(t, err, config.ErrInvalidVariant)
	})

	t.Run("nil generator", func(t *testing.T) {
		p, err := rewriter.FromConfig(config.RewriterConfig{}, nil)
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}
