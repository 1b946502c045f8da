package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/easyops/ctxrefine-go/pkg/core/llm"
	"github.com/easyops/ctxrefine-go/pkg/core/message"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxNewTokens LLMGenerator 的默认最大生成 token 数
const DefaultMaxNewTokens = 1024

// LLMGenerator 将 llm.Provider 适配为 Generator
//
// 每个提示作为一条用户消息单独请求；同一批次内的请求可按 concurrency 并发，
// 结果顺序始终与提示顺序一致。
type LLMGenerator struct {
	provider     llm.Provider
	systemPrompt string
	temperature  *float64
	concurrency  int

	mu           sync.RWMutex
	maxNewTokens int
	usage        message.TokenUsage
}

// Option LLMGenerator 选项
type Option func(*LLMGenerator)

// WithMaxNewTokens 设置初始的最大生成 token 数
func WithMaxNewTokens(n int) Option {
	return func(g *LLMGenerator) {
		if n > 0 {
			g.maxNewTokens = n
		}
	}
}

// WithConcurrency 设置批次内并发请求数，默认 1（顺序执行）
func WithConcurrency(n int) Option {
	return func(g *LLMGenerator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithSystemPrompt 设置每个请求附带的系统提示
func WithSystemPrompt(prompt string) Option {
	return func(g *LLMGenerator) {
		g.systemPrompt = prompt
	}
}

// WithTemperature 设置采样温度
func WithTemperature(t float64) Option {
	return func(g *LLMGenerator) {
		g.temperature = &t
	}
}

// NewLLMGenerator 创建基于 LLM Provider 的生成器
func NewLLMGenerator(provider llm.Provider, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{
		provider:     provider,
		concurrency:  1,
		maxNewTokens: DefaultMaxNewTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model 返回底层模型名称
func (g *LLMGenerator) Model() string {
	return g.provider.Model()
}

// MaxNewTokens 返回当前的最大生成 token 数
func (g *LLMGenerator) MaxNewTokens() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.maxNewTokens
}

// SetMaxNewTokens 设置最大生成 token 数
func (g *LLMGenerator) SetMaxNewTokens(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maxNewTokens = n
}

// Usage 返回累计的 Token 使用量
func (g *LLMGenerator) Usage() message.TokenUsage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usage
}

// GenerateBatch 批量生成，首个失败的提示使整个批次失败
func (g *LLMGenerator) GenerateBatch(ctx context.Context, prompts []string) ([]string, error) {
	results := make([]string, len(prompts))
	if len(prompts) == 0 {
		return results, nil
	}

	maxTokens := g.MaxNewTokens()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, prompt := range prompts {
		eg.Go(func() error {
			resp, err := g.provider.Generate(egCtx, g.buildRequest(prompt, maxTokens))
			if err != nil {
				return fmt.Errorf("prompt %d: %w", i, err)
			}
			results[i] = resp.Content

			g.mu.Lock()
			g.usage.Add(resp.TokenUsage)
			g.mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// buildRequest 构建单个提示的请求
func (g *LLMGenerator) buildRequest(prompt string, maxTokens int) llm.Request {
	msgs := make([]message.Message, 0, 2)
	if g.systemPrompt != "" {
		msgs = append(msgs, message.NewSystemMessage(g.systemPrompt))
	}
	msgs = append(msgs, message.NewUserMessage(prompt))

	opts := []llm.RequestOption{llm.WithRequestMaxTokens(maxTokens)}
	if g.temperature != nil {
		opts = append(opts, llm.WithRequestTemperature(*g.temperature))
	}
	return llm.NewRequest(msgs, opts...)
}

// compile-time interface check
var _ Generator = (*LLMGenerator)(nil)
