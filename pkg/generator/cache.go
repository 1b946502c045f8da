package generator

import (
	"context"
	"fmt"

	"github.com/easyops/ctxrefine-go/pkg/core/errors"
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey 缓存键：相同提示在不同 token 上限下的结果不可互换
type cacheKey struct {
	maxNewTokens int
	prompt       string
}

// Cached 为 Generator 增加进程内 LRU 记忆
//
// 只有未命中的提示会转发给底层生成器；空结果不缓存。缓存仅存在于内存中。
type Cached struct {
	next  Generator
	cache *lru.Cache[cacheKey, string]
}

// NewCached 创建带 LRU 缓存的生成器，size 为缓存条数
func NewCached(next Generator, size int) (*Cached, error) {
	cache, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

// Model 返回底层模型名称
func (c *Cached) Model() string {
	return c.next.Model()
}

// MaxNewTokens 返回底层生成器的最大生成 token 数
func (c *Cached) MaxNewTokens() int {
	return c.next.MaxNewTokens()
}

// SetMaxNewTokens 设置底层生成器的最大生成 token 数
func (c *Cached) SetMaxNewTokens(n int) {
	c.next.SetMaxNewTokens(n)
}

// Len 返回缓存条数
func (c *Cached) Len() int {
	return c.cache.Len()
}

// GenerateBatch 先查缓存，再将未命中的提示作为一个批次转发
func (c *Cached) GenerateBatch(ctx context.Context, prompts []string) ([]string, error) {
	maxTokens := c.next.MaxNewTokens()
	results := make([]string, len(prompts))

	var missIdx []int
	var missPrompts []string
	for i, p := range prompts {
		if v, ok := c.cache.Get(cacheKey{maxTokens, p}); ok {
			results[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missPrompts = append(missPrompts, p)
	}

	if len(missPrompts) == 0 {
		return results, nil
	}

	generated, err := c.next.GenerateBatch(ctx, missPrompts)
	if err != nil {
		return nil, err
	}
	if len(generated) != len(missPrompts) {
		return nil, fmt.Errorf("%w: got %d results for %d prompts", errors.ErrBatchSizeMismatch, len(generated), len(missPrompts))
	}

	for j, i := range missIdx {
		results[i] = generated[j]
		if generated[j] != "" {
			c.cache.Add(cacheKey{maxTokens, prompts[i]}, generated[j])
		}
	}
	return results, nil
}

// compile-time interface check
var _ Generator = (*Cached)(nil)
