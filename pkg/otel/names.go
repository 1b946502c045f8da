package otel

import "go.opentelemetry.io/otel/attribute"

// 预定义的指标名称
const (
	// 改写指标
	MetricRewriteRuns          = "rewrite.runs"           // 计数器: Process 调用次数
	MetricRewritePrompts       = "rewrite.prompts"        // 计数器: 提交给生成器的提示数
	MetricRewriteBatches       = "rewrite.batches"        // 计数器: 提交的批次数
	MetricRewriteBatchFailures = "rewrite.batch.failures" // 计数器: 失败并降级的批次数
	MetricRewriteFallbacks     = "rewrite.fallbacks"      // 计数器: 回退为原文的文档数
	MetricRewriteDuration      = "rewrite.duration"       // 直方图: Process 耗时(ms)

	// LLM 指标
	MetricLLMRequests         = "llm.requests"          // 计数器: LLM 请求次数
	MetricLLMRequestDuration  = "llm.request.duration"  // 直方图: LLM 请求时间(ms)
	MetricLLMTokensPrompt     = "llm.tokens.prompt"     // 计数器: Prompt Token 总数
	MetricLLMTokensCompletion = "llm.tokens.completion" // 计数器: Completion Token 总数
	MetricLLMErrors           = "llm.errors"            // 计数器: LLM 错误次数
)

// MetricUnit 指标单位
type MetricUnit string

const (
	UnitMilliseconds MetricUnit = "ms"
	UnitCount        MetricUnit = "1"
)

// MetricDescription 指标描述
type MetricDescription struct {
	Name        string
	Description string
	Unit        MetricUnit
}

// PredefinedMetrics 预定义指标列表
var PredefinedMetrics = []MetricDescription{
	{MetricRewriteRuns, "Number of context rewrite runs", UnitCount},
	{MetricRewritePrompts, "Number of rewrite prompts submitted", UnitCount},
	{MetricRewriteBatches, "Number of generation batches submitted", UnitCount},
	{MetricRewriteBatchFailures, "Number of failed generation batches", UnitCount},
	{MetricRewriteFallbacks, "Number of documents kept as original text", UnitCount},
	{MetricRewriteDuration, "Duration of context rewrite runs", UnitMilliseconds},

	{MetricLLMRequests, "Number of LLM requests", UnitCount},
	{MetricLLMRequestDuration, "Duration of LLM requests", UnitMilliseconds},
	{MetricLLMTokensPrompt, "Number of prompt tokens", UnitCount},
	{MetricLLMTokensCompletion, "Number of completion tokens", UnitCount},
	{MetricLLMErrors, "Number of LLM errors", UnitCount},
}

// describe 查找预定义指标描述，未知指标返回仅含名称的描述
func describe(name string) MetricDescription {
	for _, d := range PredefinedMetrics {
		if d.Name == name {
			return d
		}
	}
	return MetricDescription{Name: name, Unit: UnitCount}
}

// 预定义的语义属性键
const (
	AttrLLMProvider         = "llm.provider"
	AttrLLMModel            = "llm.model"
	AttrLLMMaxTokens        = "llm.max_tokens"
	AttrLLMPromptTokens     = "llm.prompt_tokens"
	AttrLLMCompletionTokens = "llm.completion_tokens"

	AttrRewriterName     = "rewriter.name"
	AttrRewriterRunID    = "rewriter.run_id"
	AttrRewriterQueries  = "rewriter.queries"
	AttrRewriterPrompts  = "rewriter.prompts"
	AttrRewriterBatch    = "rewriter.batch"
	AttrRewriterBatchLen = "rewriter.batch_size"
)

// LLMProvider 创建 LLM 提供商属性
func LLMProvider(provider string) attribute.KeyValue {
	return attribute.String(AttrLLMProvider, provider)
}

// LLMModel 创建 LLM 模型属性
func LLMModel(model string) attribute.KeyValue {
	return attribute.String(AttrLLMModel, model)
}

// RewriterName 创建改写器名称属性
func RewriterName(name string) attribute.KeyValue {
	return attribute.String(AttrRewriterName, name)
}
