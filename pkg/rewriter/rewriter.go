// Package rewriter 使用生成模型按查询改写检索到的上下文文档。
//
// 改写器对每个 (查询, 文档) 构造提示，按固定批大小顺序提交给 generator.Generator，
// 再按配置将改写结果拼接到原文之后或直接替换原文。生成失败或结果为空时，
// 文档保持原文不变，Process 不会因生成失败而返回错误。
package rewriter

import (
	"context"
	"fmt"
	"strings"

	"github.com/easyops/ctxrefine-go/pkg/generator"
)

// CombinedSeparator 合并模式下原文与改写之间的分隔符
const CombinedSeparator = "\n\nRefined version:\n"

// Rewriter 普通上下文改写器
type Rewriter struct {
	engine
}

// New 创建普通改写器，gen 不可为 nil
func New(gen generator.Generator, opts ...Option) (*Rewriter, error) {
	e, err := newEngine(gen, "llm_rewriter_", defaultTemplate, opts)
	if err != nil {
		return nil, err
	}
	return &Rewriter{engine: e}, nil
}

// Name 返回诊断标签 llm_rewriter_<model>
func (r *Rewriter) Name() string {
	return r.name
}

// Config 返回生效的配置
func (r *Rewriter) Config() Config {
	return r.cfg
}

// Process 改写上下文
//
// 逐文档模式下输出与输入形状一致。合并模式下，改写成功的查询收敛为单个元素，
// 改写失败的查询保留原始文档列表，下游需容忍每个查询的文档数变化。
// 返回的指标映射始终为空，仅在 contexts 与 queries 长度不一致时返回错误。
func (r *Rewriter) Process(ctx context.Context, contexts [][]string, queries []string) ([][]string, map[string]float64, error) {
	if err := checkShape(contexts, queries); err != nil {
		return nil, nil, err
	}
	if r.cfg.ProcessSeparately {
		return r.processSeparately(ctx, contexts, queries), map[string]float64{}, nil
	}
	return r.processCombined(ctx, contexts, queries), map[string]float64{}, nil
}

// docRef 提示对应的 (查询, 文档) 下标
type docRef struct {
	query, doc int
}

func (r *Rewriter) processSeparately(ctx context.Context, contexts [][]string, queries []string) [][]string {
	var prompts []string
	var refs []docRef
	for qi, docs := range contexts {
		for di, doc := range docs {
			if isBlank(doc) {
				continue
			}
			prompts = append(prompts, r.tpl.Render(map[string]string{
				"query":   queries[qi],
				"passage": doc,
			}))
			refs = append(refs, docRef{query: qi, doc: di})
		}
	}

	outputs := r.generate(ctx, len(queries), prompts)

	out := cloneContexts(contexts)
	fallbacks := 0
	for k, ref := range refs {
		rewrite := strings.TrimSpace(outputs[k])
		if rewrite == "" {
			fallbacks++
			continue
		}
		if r.cfg.ConcatenateOriginal {
			out[ref.query][ref.doc] = contexts[ref.query][ref.doc] + RefinedSeparator + rewrite
		} else {
			out[ref.query][ref.doc] = rewrite
		}
	}
	r.recordFallbacks(ctx, fallbacks)
	return out
}

func (r *Rewriter) processCombined(ctx context.Context, contexts [][]string, queries []string) [][]string {
	var prompts []string
	var refs []int
	for qi, docs := range contexts {
		passage := labelDocuments("Passage", docs)
		if passage == "" {
			continue
		}
		prompts = append(prompts, r.tpl.Render(map[string]string{
			"query":   queries[qi],
			"passage": passage,
		}))
		refs = append(refs, qi)
	}

	outputs := r.generate(ctx, len(queries), prompts)

	out := cloneContexts(contexts)
	fallbacks := 0
	for k, qi := range refs {
		rewrite := outputs[k]
		if strings.TrimSpace(rewrite) == "" {
			fallbacks++
			continue
		}
		if r.cfg.ConcatenateOriginal {
			out[qi] = []string{labelDocuments("Document", contexts[qi]) + CombinedSeparator + rewrite}
		} else {
			out[qi] = []string{rewrite}
		}
	}
	r.recordFallbacks(ctx, fallbacks)
	return out
}

// labelDocuments 将非空白文档标注为 "<label> k: doc" 并以空行连接，k 为原列表中从 1 开始的位置
func labelDocuments(label string, docs []string) string {
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		if isBlank(doc) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d: %s", label, i+1, doc))
	}
	return strings.Join(parts, "\n\n")
}
