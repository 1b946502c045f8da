package rewriter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/easyops/ctxrefine-go/pkg/core/errors"
	"github.com/easyops/ctxrefine-go/pkg/generator"
	"github.com/easyops/ctxrefine-go/pkg/otel"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// RefinedSeparator 逐文档拼接模式下原文与改写之间的分隔符
const RefinedSeparator = "\n\nRefined version: "

// batchRange 批次在提示列表中的区间 [start, end)
type batchRange struct {
	start, end int
}

// chunk 将 n 个提示按 size 切分为连续区间，共 ceil(n/size) 个
func chunk(n, size int) []batchRange {
	if n <= 0 || size <= 0 {
		return nil
	}
	ranges := make([]batchRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, batchRange{start: start, end: min(start+size, n)})
	}
	return ranges
}

// engine 两种改写器共享的批量执行逻辑
type engine struct {
	gen  generator.Generator
	cfg  Config
	tpl  *Template
	name string
}

func newEngine(gen generator.Generator, prefix string, fallback *Template, opts []Option) (engine, error) {
	if gen == nil {
		return engine{}, errors.ErrNilGenerator
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()

	tpl := fallback
	if cfg.PromptTemplate != "" {
		custom, err := NewTemplate(cfg.PromptTemplate)
		if err != nil {
			return engine{}, err
		}
		tpl = custom
	}
	cfg.PromptTemplate = tpl.String()

	return engine{
		gen:  gen,
		cfg:  cfg,
		tpl:  tpl,
		name: prefix + strings.ReplaceAll(gen.Model(), "/", "_"),
	}, nil
}

// checkShape 校验查询与上下文一一对应
func checkShape(contexts [][]string, queries []string) error {
	if len(contexts) != len(queries) {
		return fmt.Errorf("%w: %d contexts for %d queries", errors.ErrShapeMismatch, len(contexts), len(queries))
	}
	return nil
}

// isBlank 空白文档不参与生成
func isBlank(doc string) bool {
	return strings.TrimSpace(doc) == ""
}

// cloneContexts 复制上下文，外层与内层切片均不与输入共享
func cloneContexts(contexts [][]string) [][]string {
	out := make([][]string, len(contexts))
	for i, docs := range contexts {
		out[i] = make([]string, len(docs))
		copy(out[i], docs)
	}
	return out
}

// generate 在 token 预算覆盖期间按批次顺序生成，返回与 prompts 等长的结果。
// 失败批次的结果为空字符串，不会中断后续批次；ctx 取消后剩余批次直接跳过。
func (e *engine) generate(ctx context.Context, queries int, prompts []string) []string {
	runID := uuid.NewString()
	start := time.Now()
	log := e.cfg.Logger.WithContext(ctx).WithFields(map[string]any{
		"rewriter": e.name,
		"run_id":   runID,
	})
	ranges := chunk(len(prompts), e.cfg.BatchSize)

	ctx, span := e.cfg.Tracer.Start(ctx, "rewriter.process",
		otel.WithAttributes(
			otel.RewriterName(e.name),
			attribute.String(otel.AttrRewriterRunID, runID),
			attribute.Int(otel.AttrRewriterQueries, queries),
			attribute.Int(otel.AttrRewriterPrompts, len(prompts)),
			attribute.Int(otel.AttrRewriterBatchLen, e.cfg.BatchSize),
		),
	)
	defer span.End()

	nameAttr := otel.NewAttr(otel.AttrRewriterName, e.name)
	e.cfg.Metrics.Counter(otel.MetricRewriteRuns).Add(ctx, 1, nameAttr)
	e.cfg.Metrics.Counter(otel.MetricRewritePrompts).Add(ctx, int64(len(prompts)), nameAttr)

	log.Info("rewrite started",
		"queries", queries,
		"prompts", len(prompts),
		"batches", len(ranges),
		"max_new_tokens", e.cfg.MaxNewTokens,
	)

	outputs := make([]string, len(prompts))
	failures := 0

	err := generator.WithTokenBudget(e.gen, e.cfg.MaxNewTokens, func() error {
		for i, r := range ranges {
			if err := ctx.Err(); err != nil {
				failures += len(ranges) - i
				return err
			}
			batch := prompts[r.start:r.end]
			e.cfg.Metrics.Counter(otel.MetricRewriteBatches).Add(ctx, 1, nameAttr)

			results, err := e.submit(ctx, i, batch)
			if err != nil {
				failures++
				e.cfg.Metrics.Counter(otel.MetricRewriteBatchFailures).Add(ctx, 1, nameAttr)
				span.AddEvent("batch.failed",
					attribute.Int(otel.AttrRewriterBatch, i),
					attribute.String("error", err.Error()),
				)
				log.Warn("generation batch failed, keeping original documents",
					"batch", i,
					"size", len(batch),
					"error", err,
				)
				continue
			}
			copy(outputs[r.start:r.end], results)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		log.Warn("rewrite interrupted, keeping original documents for remaining batches",
			"error", err,
		)
	}

	elapsed := time.Since(start)
	e.cfg.Metrics.Histogram(otel.MetricRewriteDuration).Record(ctx, float64(elapsed.Milliseconds()), nameAttr)
	if failures > 0 {
		span.SetStatus(otel.StatusError, fmt.Sprintf("%d of %d batches failed", failures, len(ranges)))
	} else {
		span.SetStatus(otel.StatusOK, "")
	}

	log.Info("rewrite finished",
		"prompts", len(prompts),
		"batches", len(ranges),
		"failed_batches", failures,
		"duration", elapsed,
	)
	return outputs
}

// submit 提交单个批次，结果数量不符时视为失败
func (e *engine) submit(ctx context.Context, index int, batch []string) (results []string, err error) {
	ctx, span := e.cfg.Tracer.Start(ctx, "rewriter.batch",
		otel.WithSpanKind(otel.SpanKindClient),
		otel.WithAttributes(
			attribute.Int(otel.AttrRewriterBatch, index),
			attribute.Int(otel.AttrRewriterBatchLen, len(batch)),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("generator panic: %v", r)
			span.RecordError(err)
			span.SetStatus(otel.StatusError, err.Error())
		}
	}()

	results, err = e.gen.GenerateBatch(ctx, batch)
	if err == nil && len(results) != len(batch) {
		err = fmt.Errorf("%w: got %d results for %d prompts", errors.ErrBatchSizeMismatch, len(results), len(batch))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otel.StatusError, err.Error())
		return nil, err
	}

	span.SetStatus(otel.StatusOK, "")
	return results, nil
}

// recordFallbacks 记录回退为原文的文档数
func (e *engine) recordFallbacks(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	e.cfg.Metrics.Counter(otel.MetricRewriteFallbacks).Add(ctx, int64(n), otel.NewAttr(otel.AttrRewriterName, e.name))
}
