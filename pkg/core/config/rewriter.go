package config

// Variant 改写器类型
type Variant string

const (
	// VariantPlain 普通改写器
	VariantPlain Variant = "plain"
	// VariantTitle 保留标题的改写器
	VariantTitle Variant = "title"
)

// 改写器默认值
const (
	DefaultBatchSize    = 4
	DefaultMaxNewTokens = 256
)

// RewriterConfig 上下文改写器配置
type RewriterConfig struct {
	// Variant 改写器类型: plain 或 title
	Variant Variant `koanf:"variant"`
	// BatchSize 每次提交给生成器的提示数
	// 默认: 4
	BatchSize int `koanf:"batch_size"`
	// MaxNewTokens 改写期间临时覆盖的生成 token 上限
	// 默认: 256
	MaxNewTokens int `koanf:"max_new_tokens"`
	// PromptTemplate 自定义提示模板，为空时使用内置模板
	PromptTemplate string `koanf:"prompt_template"`
	// ProcessSeparately 是否逐文档改写（仅 plain 生效）
	// 默认: true
	ProcessSeparately *bool `koanf:"process_separately"`
	// ConcatenateOriginal 是否在原文后拼接改写结果
	// 默认: true
	ConcatenateOriginal *bool `koanf:"concatenate_original"`
}

// Validate 验证改写器配置
func (c *RewriterConfig) Validate() error {
	switch c.Variant {
	case "", VariantPlain, VariantTitle:
	default:
		return ErrInvalidVariant
	}
	if c.BatchSize < 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxNewTokens < 0 {
		return ErrInvalidMaxNewTokens
	}
	return nil
}

// WithDefaults 返回带默认值的配置
func (c RewriterConfig) WithDefaults() RewriterConfig {
	if c.Variant == "" {
		c.Variant = VariantPlain
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxNewTokens == 0 {
		c.MaxNewTokens = DefaultMaxNewTokens
	}
	if c.ProcessSeparately == nil {
		c.ProcessSeparately = boolPtr(true)
	}
	if c.ConcatenateOriginal == nil {
		c.ConcatenateOriginal = boolPtr(true)
	}
	return c
}

// Separately 返回 ProcessSeparately，未设置时为 true
func (c RewriterConfig) Separately() bool {
	return c.ProcessSeparately == nil || *c.ProcessSeparately
}

// Concatenate 返回 ConcatenateOriginal，未设置时为 true
func (c RewriterConfig) Concatenate() bool {
	return c.ConcatenateOriginal == nil || *c.ConcatenateOriginal
}

func boolPtr(b bool) *bool { return &b }
