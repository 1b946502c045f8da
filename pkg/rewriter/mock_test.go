package rewriter_test

import (
	"context"
	"sync"
)

// mockGenerator 可编程的生成器，记录每次批量调用
type mockGenerator struct {
	mu           sync.Mutex
	model        string
	maxNewTokens int
	calls        [][]string
	budgets      []int
	generateFn   func(prompts []string) ([]string, error)
}

func newMockGenerator(fn func(prompts []string) ([]string, error)) *mockGenerator {
	return &mockGenerator{
		model:        "org/mock-model",
		maxNewTokens: 1024,
		generateFn:   fn,
	}
}

func (m *mockGenerator) Model() string { return m.model }

func (m *mockGenerator) MaxNewTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxNewTokens
}

func (m *mockGenerator) SetMaxNewTokens(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxNewTokens = n
}

func (m *mockGenerator) GenerateBatch(_ context.Context, prompts []string) ([]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), prompts...))
	m.budgets = append(m.budgets, m.maxNewTokens)
	m.mu.Unlock()
	return m.generateFn(prompts)
}

func (m *mockGenerator) allPrompts() []string {
	var out []string
	for _, c := range m.calls {
		out = append(out, c...)
	}
	return out
}

// prefixEcho 返回 "X:" + 提示前 10 个字符
func prefixEcho(prompts []string) ([]string, error) {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = "X:" + p[:min(10, len(p))]
	}
	return out, nil
}

// constant 对每个提示返回固定文本
func constant(text string) func([]string) ([]string, error) {
	return func(prompts []string) ([]string, error) {
		out := make([]string, len(prompts))
		for i := range out {
			out[i] = text
		}
		return out, nil
	}
}
