package generator_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	coreerrors "github.com/easyops/ctxrefine-go/pkg/core/errors"
	"github.com/easyops/ctxrefine-go/pkg/core/llm"
	"github.com/easyops/ctxrefine-go/pkg/core/message"
	"github.com/easyops/ctxrefine-go/pkg/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider 记录请求的 LLM Provider
type mockProvider struct {
	mu         sync.Mutex
	requests   []llm.Request
	generateFn func(req llm.Request) (llm.Response, error)
}

func (m *mockProvider) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.generateFn(req)
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock/model" }
func (m *mockProvider) Close() error  { return nil }

func echoProvider() *mockProvider {
	return &mockProvider{generateFn: func(req llm.Request) (llm.Response, error) {
		last := req.Messages[len(req.Messages)-1]
		return llm.Response{
			Content:    "echo:" + last.Content,
			TokenUsage: message.TokenUsage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
		}, nil
	}}
}

// budgetGenerator 仅实现 token 设置的 Generator
type budgetGenerator struct {
	max int
}

func (b *budgetGenerator) Model() string         { return "budget" }
func (b *budgetGenerator) MaxNewTokens() int     { return b.max }
func (b *budgetGenerator) SetMaxNewTokens(n int) { b.max = n }
func (b *budgetGenerator) GenerateBatch(context.Context, []string) ([]string, error) {
	return nil, nil
}

func TestWithTokenBudget(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		g := &budgetGenerator{max: 1024}
		err := generator.WithTokenBudget(g, 256, func() error {
			assert.Equal(t, 256, g.MaxNewTokens())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1024, g.MaxNewTokens())
	})

	t.Run("error", func(t *testing.T) {
		g := &budgetGenerator{max: 1024}
		boom := errors.New("boom")
		err := generator.WithTokenBudget(g, 256, func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1024, g.MaxNewTokens())
	})

	t.Run("panic", func(t *testing.T) {
		g := &budgetGenerator{max: 1024}
		assert.Panics(t, func() {
			_ = generator.WithTokenBudget(g, 256, func() error { panic("boom") })
		})
		assert.Equal(t, 1024, g.MaxNewTokens())
	})
}

func TestLLMGenerator_GenerateBatch(t *testing.T) {
	p := echoProvider()
	g := generator.NewLLMGenerator(p,
		generator.WithMaxNewTokens(64),
		generator.WithSystemPrompt("be brief"),
		generator.WithTemperature(0.2),
	)

	out, err := g.GenerateBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"echo:a", "echo:b", "echo:c"}, out)
	assert.Equal(t, "mock/model", g.Model())

	require.Len(t, p.requests, 3)
	req := p.requests[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, message.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be brief", req.Messages[0].Content)
	assert.Equal(t, message.RoleUser, req.Messages[1].Role)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 64, *req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.2, *req.Temperature, 1e-9)

	usage := g.Usage()
	assert.Equal(t, 6, usage.PromptTokens)
	assert.Equal(t, 9, usage.CompletionTokens)
	assert.Equal(t, 15, usage.TotalTokens)
}

func TestLLMGenerator_MaxNewTokensFollowsSetting(t *testing.T) {
	p := echoProvider()
	g := generator.NewLLMGenerator(p)
	assert.Equal(t, generator.DefaultMaxNewTokens, g.MaxNewTokens())

	err := generator.WithTokenBudget(g, 32, func() error {
		_, err := g.GenerateBatch(context.Background(), []string{"x"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 32, *p.requests[0].MaxTokens)
	assert.Equal(t, generator.DefaultMaxNewTokens, g.MaxNewTokens())
}

func TestLLMGenerator_Empty(t *testing.T) {
	p := echoProvider()
	g := generator.NewLLMGenerator(p)
	out, err := g.GenerateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, p.requests)
}

func TestLLMGenerator_ErrorFailsBatch(t *testing.T) {
	p := &mockProvider{generateFn: func(req llm.Request) (llm.Response, error) {
		if strings.Contains(req.Messages[0].Content, "bad") {
			return llm.Response{}, errors.New("rejected")
		}
		return llm.Response{Content: "ok"}, nil
	}}
	g := generator.NewLLMGenerator(p)

	out, err := g.GenerateBatch(context.Background(), []string{"good", "bad"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prompt 1")
	assert.Nil(t, out)
}

func TestLLMGenerator_ConcurrencyKeepsOrder(t *testing.T) {
	var inFlight, peak int32
	p := &mockProvider{generateFn: func(req llm.Request) (llm.Response, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return llm.Response{Content: "r:" + req.Messages[0].Content}, nil
	}}
	g := generator.NewLLMGenerator(p, generator.WithConcurrency(3))

	prompts := make([]string, 10)
	want := make([]string, 10)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("p%d", i)
		want[i] = "r:" + prompts[i]
	}

	out, err := g.GenerateBatch(context.Background(), prompts)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))

	seen := make([]string, 0, len(p.requests))
	for _, r := range p.requests {
		seen = append(seen, r.Messages[0].Content)
	}
	sort.Strings(seen)
	sorted := append([]string(nil), prompts...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, seen)
}

// countingGenerator 记录转发的提示
type countingGenerator struct {
	max   int
	calls [][]string
	err   error
	// drop 丢弃结果末尾的条数
	drop int
}

func (c *countingGenerator) Model() string         { return "counting" }
func (c *countingGenerator) MaxNewTokens() int     { return c.max }
func (c *countingGenerator) SetMaxNewTokens(n int) { c.max = n }
func (c *countingGenerator) GenerateBatch(_ context.Context, prompts []string) ([]string, error) {
	c.calls = append(c.calls, append([]string(nil), prompts...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([]string, len(prompts))
	for i, p := range prompts {
		if p != "blank" {
			out[i] = strings.ToUpper(p)
		}
	}
	return out[:max(0, len(out)-c.drop)], nil
}

func TestCached(t *testing.T) {
	inner := &countingGenerator{max: 100}
	c, err := generator.NewCached(inner, 16)
	require.NoError(t, err)

	out, err := c.GenerateBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, out)

	out, err = c.GenerateBatch(context.Background(), []string{"b", "c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, out)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, inner.calls)
	assert.Equal(t, 3, c.Len())

	// 不同的 token 上限不命中
	c.SetMaxNewTokens(10)
	assert.Equal(t, 10, inner.MaxNewTokens())
	_, err = c.GenerateBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, inner.calls[2])
}

func TestCached_EmptyResultsAndErrors(t *testing.T) {
	inner := &countingGenerator{max: 100}
	c, err := generator.NewCached(inner, 16)
	require.NoError(t, err)

	_, err = c.GenerateBatch(context.Background(), []string{"blank"})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	inner.err = errors.New("down")
	_, err = c.GenerateBatch(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestCached_ResultCountMismatch(t *testing.T) {
	inner := &countingGenerator{max: 100, drop: 1}
	c, err := generator.NewCached(inner, 16)
	require.NoError(t, err)

	out, err := c.GenerateBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, coreerrors.ErrBatchSizeMismatch)
	assert.Nil(t, out)
	assert.Equal(t, 0, c.Len())

	inner.drop = 0
	out, err = c.GenerateBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, out)
}

func TestNewCached_InvalidSize(t *testing.T) {
	_, err := generator.NewCached(&countingGenerator{}, 0)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	g, err := generator.FromConfig(echoProvider(), config.LLMConfig{Model: "m"})
	require.NoError(t, err)
	_, ok := g.(*generator.LLMGenerator)
	assert.True(t, ok)

	g, err = generator.FromConfig(echoProvider(), config.LLMConfig{Model: "m", CacheSize: 8})
	require.NoError(t, err)
	_, ok = g.(*generator.Cached)
	assert.True(t, ok)
}

func TestFromConfig_Temperature(t *testing.T) {
	t.Run("explicit zero", func(t *testing.T) {
		provider := echoProvider()
		zero := 0.0
		g, err := generator.FromConfig(provider, config.LLMConfig{Model: "m", Temperature: &zero})
		require.NoError(t, err)

		_, err = g.GenerateBatch(context.Background(), []string{"p"})
		require.NoError(t, err)
		require.Len(t, provider.requests, 1)
		require.NotNil(t, provider.requests[0].Temperature)
		assert.Equal(t, 0.0, *provider.requests[0].Temperature)
	})

	t.Run("unset", func(t *testing.T) {
		provider := echoProvider()
		g, err := generator.FromConfig(provider, config.LLMConfig{Model: "m"})
		require.NoError(t, err)

		_, err = g.GenerateBatch(context.Background(), []string{"p"})
		require.NoError(t, err)
		require.Len(t, provider.requests, 1)
		assert.Nil(t, provider.requests[0].Temperature)
	})
}
