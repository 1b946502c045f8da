// Package compression 计算上下文改写前后的 Token 压缩比。
//
// 改写器本身不产出指标，压缩比由本包在改写之外按原始与改写后的上下文计算。
package compression

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter 定义 Token 计数接口。
type TokenCounter interface {
	// Count 返回给定文本的 Token 数量。
	Count(text string) int
}

// TiktokenCounter 使用 tiktoken 实现精确的 Token 计数。
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

// TiktokenOption 配置 TiktokenCounter。
type TiktokenOption func(*TiktokenCounter)

// WithModel 设置 Token 编码使用的模型。
func WithModel(model string) TiktokenOption {
	return func(c *TiktokenCounter) {
		c.model = model
	}
}

// NewTiktokenCounter 创建 TiktokenCounter，模型未知时使用 cl100k_base 编码。
//
// 编码表首次使用时可能需要联网下载，失败时返回错误。
func NewTiktokenCounter(opts ...TiktokenOption) (*TiktokenCounter, error) {
	c := &TiktokenCounter{model: "gpt-4o"}
	for _, opt := range opts {
		opt(c)
	}

	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encoding = encoding
	return c, nil
}

// Count 返回给定文本的 Token 数量。
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return estimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimatedCounter 按字符与词数估算 Token，用于 tiktoken 不可用时。
type EstimatedCounter struct{}

// NewEstimatedCounter 创建 EstimatedCounter。
func NewEstimatedCounter() *EstimatedCounter {
	return &EstimatedCounter{}
}

// Count 返回估算的 Token 数量。
func (c *EstimatedCounter) Count(text string) int {
	return estimateTokens(text)
}

// estimateTokens 取字符估算（约 4 字符/token）与词估算（约 1.3 token/词）的平均值。
func estimateTokens(text string) int {
	charBased := len(text) / 4
	words := len(strings.Fields(text))
	if words == 0 {
		return charBased
	}
	return (charBased + int(float64(words)*1.3)) / 2
}

// DefaultTokenCounter 优先使用 TiktokenCounter，不可用时降级到 EstimatedCounter。
func DefaultTokenCounter() TokenCounter {
	counter, err := NewTiktokenCounter()
	if err != nil {
		return NewEstimatedCounter()
	}
	return counter
}

var (
	_ TokenCounter = (*TiktokenCounter)(nil)
	_ TokenCounter = (*EstimatedCounter)(nil)
)
