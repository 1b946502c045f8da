package config

import "errors"

// 配置验证相关错误
var (
	// ErrModelRequired 模型名称必填
	ErrModelRequired = errors.New("model name is required")
	// ErrInvalidProvider 提供商无效
	ErrInvalidProvider = errors.New("unsupported LLM provider")
	// ErrInvalidTimeout 超时时间无效
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidMaxRetries 重试次数无效
	ErrInvalidMaxRetries = errors.New("invalid max retries value")
	// ErrInvalidTemperature 温度值无效
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	// ErrInvalidVariant 改写器类型无效
	ErrInvalidVariant = errors.New("rewriter variant must be \"plain\" or \"title\"")
	// ErrInvalidBatchSize 批大小无效
	ErrInvalidBatchSize = errors.New("batch size must not be negative")
	// ErrInvalidMaxNewTokens 最大生成 token 数无效
	ErrInvalidMaxNewTokens = errors.New("max new tokens must not be negative")
	// ErrInvalidSampleRate 采样率无效
	ErrInvalidSampleRate = errors.New("sample rate must be between 0 and 1")
)
