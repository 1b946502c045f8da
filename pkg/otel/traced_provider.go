package otel

import (
	"context"
	"time"

	"github.com/easyops/ctxrefine-go/pkg/core/llm"
	"go.opentelemetry.io/otel/attribute"
)

// TracedProvider wraps an LLM provider with tracing and metrics
type TracedProvider struct {
	provider llm.Provider
	tracer   Tracer
	metrics  Metrics
}

// TracedProviderOption configures the traced provider
type TracedProviderOption func(*TracedProvider)

// WithTracedProviderTracer sets the tracer
func WithTracedProviderTracer(tracer Tracer) TracedProviderOption {
	return func(p *TracedProvider) {
		p.tracer = tracer
	}
}

// WithTracedProviderMetrics sets the metrics
func WithTracedProviderMetrics(metrics Metrics) TracedProviderOption {
	return func(p *TracedProvider) {
		p.metrics = metrics
	}
}

// NewTracedProvider creates a traced LLM provider wrapper
func NewTracedProvider(provider llm.Provider, opts ...TracedProviderOption) *TracedProvider {
	tp := &TracedProvider{
		provider: provider,
		tracer:   NewNoopTracer(),
		metrics:  NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(tp)
	}

	return tp
}

// Generate generates a response inside an "llm.generate" client span
func (p *TracedProvider) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	attrs := []attribute.KeyValue{
		LLMProvider(p.provider.Name()),
		LLMModel(p.provider.Model()),
	}
	if req.MaxTokens != nil {
		attrs = append(attrs, attribute.Int(AttrLLMMaxTokens, *req.MaxTokens))
	}
	ctx, span := p.tracer.Start(ctx, "llm.generate",
		WithSpanKind(SpanKindClient),
		WithAttributes(attrs...),
	)
	defer span.End()

	startTime := time.Now()
	resp, err := p.provider.Generate(ctx, req)
	p.recordMetrics(ctx, resp, err, time.Since(startTime))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(StatusError, err.Error())
		return resp, err
	}

	span.SetAttributes(
		attribute.Int(AttrLLMPromptTokens, resp.TokenUsage.PromptTokens),
		attribute.Int(AttrLLMCompletionTokens, resp.TokenUsage.CompletionTokens),
	)
	span.AddEvent("llm.response",
		attribute.String("finish_reason", resp.FinishReason),
	)
	span.SetStatus(StatusOK, "")

	return resp, nil
}

// Name returns the wrapped provider name
func (p *TracedProvider) Name() string {
	return p.provider.Name()
}

// Model returns the wrapped model name
func (p *TracedProvider) Model() string {
	return p.provider.Model()
}

// Close closes the wrapped provider
func (p *TracedProvider) Close() error {
	return p.provider.Close()
}

// recordMetrics records LLM call metrics
func (p *TracedProvider) recordMetrics(ctx context.Context, resp llm.Response, err error, duration time.Duration) {
	provider := NewAttr("provider", p.provider.Name())
	model := NewAttr("model", p.provider.Model())

	if err != nil {
		p.metrics.Counter(MetricLLMRequests).Add(ctx, 1, provider, model, NewAttr("status", "error"))
		p.metrics.Counter(MetricLLMErrors).Add(ctx, 1, provider, model)
	} else {
		p.metrics.Counter(MetricLLMRequests).Add(ctx, 1, provider, model, NewAttr("status", "success"))
		p.metrics.Counter(MetricLLMTokensPrompt).Add(ctx, int64(resp.TokenUsage.PromptTokens), provider, model)
		p.metrics.Counter(MetricLLMTokensCompletion).Add(ctx, int64(resp.TokenUsage.CompletionTokens), provider, model)
	}

	p.metrics.Histogram(MetricLLMRequestDuration).Record(ctx, float64(duration.Milliseconds()), provider, model)
}

// compile-time interface check
var _ llm.Provider = (*TracedProvider)(nil)
