package rewriter

import (
	"context"
	"strings"

	"github.com/easyops/ctxrefine-go/pkg/generator"
)

// TitleRewriter 保留标题的改写器
//
// 每个文档先拆分为标题（首句）与正文，只改写正文，输出时将原标题放回改写结果之前。
// 始终逐文档处理，输出形状与输入一致。
type TitleRewriter struct {
	engine
	splitter SentenceSplitter
}

// TitleOption TitleRewriter 专属选项
type TitleOption func(*TitleRewriter)

// WithSentenceSplitter 替换默认的 Punkt 分句器
func WithSentenceSplitter(s SentenceSplitter) TitleOption {
	return func(t *TitleRewriter) {
		t.splitter = s
	}
}

// NewTitle 创建保留标题的改写器，gen 不可为 nil
func NewTitle(gen generator.Generator, opts []Option, titleOpts ...TitleOption) (*TitleRewriter, error) {
	e, err := newEngine(gen, "llm_rewriter_title_", defaultTitleTemplate, opts)
	if err != nil {
		return nil, err
	}
	e.cfg.ProcessSeparately = true

	t := &TitleRewriter{engine: e}
	for _, opt := range titleOpts {
		opt(t)
	}
	if t.splitter == nil {
		t.splitter = DefaultSplitter()
	}
	return t, nil
}

// Name 返回诊断标签 llm_rewriter_title_<model>
func (t *TitleRewriter) Name() string {
	return t.name
}

// Config 返回生效的配置
func (t *TitleRewriter) Config() Config {
	return t.cfg
}

// Process 改写上下文正文并保留标题，输出形状与输入一致
func (t *TitleRewriter) Process(ctx context.Context, contexts [][]string, queries []string) ([][]string, map[string]float64, error) {
	if err := checkShape(contexts, queries); err != nil {
		return nil, nil, err
	}

	var prompts []string
	var refs []docRef
	var titles []string
	log := t.cfg.Logger.WithContext(ctx)
	for qi, docs := range contexts {
		for di, doc := range docs {
			if isBlank(doc) {
				continue
			}
			title, content, fallback := splitTitle(t.splitter, doc)
			if fallback {
				log.Debug("sentence segmentation unavailable, split title heuristically",
					"query", qi,
					"doc", di,
				)
			}
			prompts = append(prompts, t.tpl.Render(map[string]string{
				"query":   queries[qi],
				"title":   title,
				"content": content,
			}))
			refs = append(refs, docRef{query: qi, doc: di})
			titles = append(titles, title)
		}
	}

	outputs := t.generate(ctx, len(queries), prompts)

	out := cloneContexts(contexts)
	fallbacks := 0
	for k, ref := range refs {
		rewrite := strings.TrimSpace(outputs[k])
		if rewrite == "" {
			fallbacks++
			continue
		}
		withTitle := rewrite
		if titles[k] != "" {
			withTitle = titles[k] + " " + rewrite
		}
		if t.cfg.ConcatenateOriginal {
			out[ref.query][ref.doc] = contexts[ref.query][ref.doc] + RefinedSeparator + withTitle
		} else {
			out[ref.query][ref.doc] = withTitle
		}
	}
	t.recordFallbacks(ctx, fallbacks)
	return out, map[string]float64{}, nil
}
