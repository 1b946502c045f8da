package generator

import (
	"fmt"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"github.com/easyops/ctxrefine-go/pkg/core/llm"
)

// FromConfig 基于 LLM 配置构建生成器，CacheSize > 0 时包一层 LRU 缓存
func FromConfig(provider llm.Provider, cfg config.LLMConfig) (Generator, error) {
	cfg = cfg.WithDefaults()

	opts := []Option{WithConcurrency(cfg.Concurrency)}
	if cfg.Temperature != nil {
		opts = append(opts, WithTemperature(*cfg.Temperature))
	}

	var gen Generator = NewLLMGenerator(provider, opts...)
	if cfg.CacheSize > 0 {
		cached, err := NewCached(gen, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create generation cache: %w", err)
		}
		gen = cached
	}
	return gen, nil
}
