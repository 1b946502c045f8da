package rewriter

import (
	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"github.com/easyops/ctxrefine-go/pkg/otel"
)

// Config 改写器配置
type Config struct {
	// BatchSize 每次提交给生成器的提示数，<= 0 时使用默认值 4
	BatchSize int
	// MaxNewTokens 改写期间临时覆盖的生成 token 上限，<= 0 时使用默认值 256
	MaxNewTokens int
	// PromptTemplate 提示模板，为空时使用各改写器的内置模板
	PromptTemplate string
	// ProcessSeparately 逐文档改写；为 false 时每个查询的文档合并为一个提示。
	// 保留标题的改写器忽略此项，始终逐文档处理。
	ProcessSeparately bool
	// ConcatenateOriginal 为 true 时输出"原文 + 分隔符 + 改写"，否则只输出改写
	ConcatenateOriginal bool

	Logger  otel.Logger
	Tracer  otel.Tracer
	Metrics otel.Metrics
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BatchSize:           config.DefaultBatchSize,
		MaxNewTokens:        config.DefaultMaxNewTokens,
		ProcessSeparately:   true,
		ConcatenateOriginal: true,
		Logger:              otel.NewNoopLogger(),
		Tracer:              otel.NewNoopTracer(),
		Metrics:             otel.NewNoopMetrics(),
	}
}

// normalize 将非法取值回退为默认值
func (c *Config) normalize() {
	if c.BatchSize <= 0 {
		c.BatchSize = config.DefaultBatchSize
	}
	if c.MaxNewTokens <= 0 {
		c.MaxNewTokens = config.DefaultMaxNewTokens
	}
	if c.Logger == nil {
		c.Logger = otel.NewNoopLogger()
	}
	if c.Tracer == nil {
		c.Tracer = otel.NewNoopTracer()
	}
	if c.Metrics == nil {
		c.Metrics = otel.NewNoopMetrics()
	}
}

// Option 改写器选项
type Option func(*Config)

// WithBatchSize 设置批大小
func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// WithMaxNewTokens 设置改写期间的生成 token 上限
func WithMaxNewTokens(n int) Option {
	return func(c *Config) {
		c.MaxNewTokens = n
	}
}

// WithPromptTemplate 设置自定义提示模板
//
// 普通改写器的模板槽位为 {query} 与 {passage}；
// 保留标题的改写器为 {query}、{title} 与 {content}。
func WithPromptTemplate(tpl string) Option {
	return func(c *Config) {
		c.PromptTemplate = tpl
	}
}

// WithProcessSeparately 设置是否逐文档改写
func WithProcessSeparately(separately bool) Option {
	return func(c *Config) {
		c.ProcessSeparately = separately
	}
}

// WithConcatenateOriginal 设置是否保留原文
func WithConcatenateOriginal(concat bool) Option {
	return func(c *Config) {
		c.ConcatenateOriginal = concat
	}
}

// WithLogger 设置日志器
func WithLogger(l otel.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithTracer 设置追踪器
func WithTracer(t otel.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m otel.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}
