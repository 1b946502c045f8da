package otel

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/easyops/ctxrefine-go/pkg/core/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// instrumentationName 追踪器与 Meter 的名称
const instrumentationName = "github.com/easyops/ctxrefine-go"

// Provider 可观测性提供者
//
// 管理追踪、指标和日志的生命周期。
type Provider struct {
	tracer   Tracer
	metrics  Metrics
	logger   Logger
	shutdown []func(context.Context) error
}

// NewProvider 创建可观测性提供者，日志写入 logOut（nil 表示 stderr）
func NewProvider(ctx context.Context, cfg config.ObservabilityConfig, logOut io.Writer) (*Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		tracer:  NewNoopTracer(),
		metrics: NewNoopMetrics(),
		logger:  NewLoggerFromConfig(cfg.Logging, logOut),
	}

	if !cfg.Enabled || !cfg.Tracing.Enabled {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	exporterCfg := ExporterConfig{
		Type:     ExporterType(cfg.Tracing.Exporter),
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.Insecure,
		Timeout:  10 * time.Second,
	}
	if err := p.initTracing(ctx, res, exporterCfg, cfg.Tracing.SampleRate); err != nil {
		return nil, err
	}
	if err := p.initMetrics(ctx, res, exporterCfg); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}

	return p, nil
}

// initTracing 初始化追踪
func (p *Provider) initTracing(ctx context.Context, res *resource.Resource, exporterCfg ExporterConfig, sampleRate float64) error {
	var sampler sdktrace.Sampler
	switch {
	case sampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case sampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(sampleRate)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}

	exporter, err := CreateTraceExporter(ctx, exporterCfg)
	if err != nil {
		return err
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.shutdown = append(p.shutdown, tp.Shutdown)
	p.tracer = NewTracer(tp.Tracer(instrumentationName))
	return nil
}

// initMetrics 初始化指标
func (p *Provider) initMetrics(ctx context.Context, res *resource.Resource, exporterCfg ExporterConfig) error {
	exporter, err := CreateMetricExporter(ctx, exporterCfg)
	if err != nil {
		return err
	}
	if exporter == nil {
		return nil
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(mp)

	p.shutdown = append(p.shutdown, mp.Shutdown)
	metrics := NewOTelMetrics(mp.Meter(instrumentationName))
	if err := metrics.RegisterPredefined(); err != nil {
		p.logger.Warn("some metric instruments unavailable", "error", err)
	}
	p.metrics = metrics
	return nil
}

// Tracer 返回追踪器
func (p *Provider) Tracer() Tracer {
	return p.tracer
}

// Metrics 返回指标收集器
func (p *Provider) Metrics() Metrics {
	return p.metrics
}

// Logger 返回日志器
func (p *Provider) Logger() Logger {
	return p.logger
}

// Shutdown 刷新并关闭所有导出器
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdown = nil
	return stderrors.Join(errs...)
}
