package llm

import (
	"fmt"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"github.com/easyops/ctxrefine-go/pkg/core/errors"
)

// FromConfig 从配置创建 LLM Provider
func FromConfig(cfg config.LLMConfig) (Provider, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}

	opts := []Option{
		WithModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetries),
		WithRetryDelay(cfg.RetryDelay),
	}
	if cfg.Temperature != nil {
		opts = append(opts, WithTemperature(*cfg.Temperature))
	}
	if cfg.APIKey != "" {
		opts = append(opts, WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := NewOpenAI(opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderDeepSeek:
		client, err := NewDeepSeek(opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOllama:
		return NewOllama(opts...), nil
	case config.ProviderVLLM:
		return NewVLLM(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// MustFromConfig 从配置创建 Provider，失败时 panic
func MustFromConfig(cfg config.LLMConfig) Provider {
	provider, err := FromConfig(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create provider from config: %v", err))
	}
	return provider
}
