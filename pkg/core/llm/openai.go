package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"net/http"

	"github.com/easyops/ctxrefine-go/pkg/core/errors"
	"github.com/easyops/ctxrefine-go/pkg/core/message"
	openai "github.com/sashabaranov/go-openai"
)

// 各提供商的默认端点与模型
const (
	deepSeekBaseURL = "https://api.deepseek.com/v1"
	ollamaBaseURL   = "http://localhost:11434/v1"
	vllmBaseURL     = "http://localhost:8000/v1"

	// placeholderAPIKey 自托管端点不校验密钥，但 SDK 仍会发送 Authorization 头
	placeholderAPIKey = "EMPTY"
)

// OpenAIClient OpenAI 及其兼容端点的 LLM 客户端
//
// DeepSeek、Ollama、vLLM 都暴露 OpenAI 兼容的 /chat/completions 接口，
// 因此共用同一实现，仅默认端点与名称不同。
type OpenAIClient struct {
	client  *openai.Client
	options *Options
	name    string
}

// NewOpenAI 创建 OpenAI 客户端
func NewOpenAI(opts ...Option) (*OpenAIClient, error) {
	options := applyClientOptions(opts)
	if options.APIKey == "" {
		return nil, errors.ErrInvalidAPIKey
	}
	if options.Model == "" {
		options.Model = "gpt-4o-mini"
	}
	return newCompatibleClient("openai", options), nil
}

// NewDeepSeek 创建 DeepSeek 客户端
func NewDeepSeek(opts ...Option) (*OpenAIClient, error) {
	options := DefaultOptions()
	options.BaseURL = deepSeekBaseURL
	options.Model = "deepseek-chat"
	for _, opt := range opts {
		opt(options)
	}
	if options.APIKey == "" {
		return nil, errors.ErrInvalidAPIKey
	}
	return newCompatibleClient("deepseek", options), nil
}

// NewOllama 创建 Ollama 客户端（无需 API Key）
func NewOllama(opts ...Option) *OpenAIClient {
	options := DefaultOptions()
	options.BaseURL = ollamaBaseURL
	options.Model = "llama3.2"
	options.APIKey = placeholderAPIKey
	for _, opt := range opts {
		opt(options)
	}
	return newCompatibleClient("ollama", options)
}

// NewVLLM 创建 vLLM 客户端（API Key 可选）
func NewVLLM(opts ...Option) *OpenAIClient {
	options := DefaultOptions()
	options.BaseURL = vllmBaseURL
	options.Model = "default"
	options.APIKey = placeholderAPIKey
	for _, opt := range opts {
		opt(options)
	}
	return newCompatibleClient("vllm", options)
}

func applyClientOptions(opts []Option) *Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func newCompatibleClient(name string, options *Options) *OpenAIClient {
	config := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: options.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		options: options,
		name:    name,
	}
}

// Name 返回提供商名称
func (c *OpenAIClient) Name() string {
	return c.name
}

// Model 返回当前模型名称
func (c *OpenAIClient) Model() string {
	return c.options.Model
}

// Close 关闭客户端连接
func (c *OpenAIClient) Close() error {
	return nil
}

// Generate 生成响应（非流式）
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	for i := range req.Messages {
		if err := req.Messages[i].Validate(); err != nil {
			return Response{}, fmt.Errorf("message %d: %w", i, err)
		}
	}
	chatReq := c.buildChatRequest(req)

	var resp openai.ChatCompletionResponse
	var err error

	err = retry(ctx, c.options.MaxRetries, c.options.RetryDelay, func() error {
		resp, err = c.client.CreateChatCompletion(ctx, chatReq)
		return mapOpenAIError(err)
	})

	if err != nil {
		return Response{}, err
	}

	if len(resp.Choices) == 0 {
		return Response{}, errors.ErrInvalidResponse
	}

	return parseResponse(resp), nil
}

// buildChatRequest 构建 OpenAI 请求
func (c *OpenAIClient) buildChatRequest(req Request) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:    c.options.Model,
		Messages: convertMessages(req.Messages),
	}

	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	} else {
		chatReq.Temperature = float32(c.options.Temperature)
	}
	// temperature 字段带 omitempty，0 会被省略而落回服务端默认值
	if chatReq.Temperature == 0 {
		chatReq.Temperature = math.SmallestNonzeroFloat32
	}

	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	} else {
		chatReq.MaxTokens = c.options.MaxTokens
	}

	if len(req.Stop) > 0 {
		chatReq.Stop = req.Stop
	}

	return chatReq
}

// convertMessages 转换消息格式
func convertMessages(msgs []message.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}

// parseResponse 解析响应
func parseResponse(resp openai.ChatCompletionResponse) Response {
	choice := resp.Choices[0]
	return Response{
		ID:           resp.ID,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		TokenUsage: message.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// mapOpenAIError 映射 OpenAI 错误到框架错误
func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapError(errors.ErrTimeout, err.Error())
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case stderrors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return errors.WrapError(err, "openai request failed")
	}

	switch status {
	case http.StatusUnauthorized:
		return errors.ErrInvalidAPIKey
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", errors.ErrModelNotFound, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", errors.ErrRateLimited, err)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %v", errors.ErrProviderUnavailable, err)
	default:
		return fmt.Errorf("openai error (code=%d): %w", status, err)
	}
}

// compile-time interface check
var _ Provider = (*OpenAIClient)(nil)
