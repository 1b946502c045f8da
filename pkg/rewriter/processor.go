package rewriter

import (
	"context"
	"fmt"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"github.com/easyops/ctxrefine-go/pkg/generator"
)

// ContextProcessor 上下文处理阶段
//
// 输入每个查询对应的文档列表，输出改写后的文档列表与辅助指标。
type ContextProcessor interface {
	Name() string
	Process(ctx context.Context, contexts [][]string, queries []string) ([][]string, map[string]float64, error)
}

// FromConfig 根据配置构建改写器，opts 在配置项之后应用
func FromConfig(cfg config.RewriterConfig, gen generator.Generator, opts ...Option) (ContextProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	base := []Option{
		WithBatchSize(cfg.BatchSize),
		WithMaxNewTokens(cfg.MaxNewTokens),
		WithPromptTemplate(cfg.PromptTemplate),
		WithProcessSeparately(cfg.Separately()),
		WithConcatenateOriginal(cfg.Concatenate()),
	}
	all := append(base, opts...)

	switch cfg.Variant {
	case config.VariantPlain:
		r, err := New(gen, all...)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.VariantTitle:
		t, err := NewTitle(gen, all)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidVariant, cfg.Variant)
	}
}

// compile-time interface check
var (
	_ ContextProcessor = (*Rewriter)(nil)
	_ ContextProcessor = (*TitleRewriter)(nil)
)
