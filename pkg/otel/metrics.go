package otel

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics 定义指标接口
type Metrics interface {
	// Counter 返回或创建计数器
	Counter(name string) Counter
	// Histogram 返回或创建直方图
	Histogram(name string) Histogram
}

// Counter 计数器接口
type Counter interface {
	// Add 增加计数
	Add(ctx context.Context, value int64, attrs ...Attr)
}

// Histogram 直方图接口
type Histogram interface {
	// Record 记录值
	Record(ctx context.Context, value float64, attrs ...Attr)
}

// Attr 指标属性
type Attr struct {
	Key   string
	Value interface{}
}

// NewAttr 创建指标属性
func NewAttr(key string, value interface{}) Attr {
	return Attr{Key: key, Value: value}
}

// keyValue 转换为 OpenTelemetry 属性
func (a Attr) keyValue() attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}

// InMemoryMetrics 内存指标实现（用于测试和简单场景）
type InMemoryMetrics struct {
	counters   map[string]*InMemoryCounter
	histograms map[string]*InMemoryHistogram
	mu         sync.Mutex
}

// NewInMemoryMetrics 创建内存指标
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]*InMemoryCounter),
		histograms: make(map[string]*InMemoryHistogram),
	}
}

// Counter 返回或创建计数器
func (m *InMemoryMetrics) Counter(name string) Counter {
	return m.counter(name)
}

func (m *InMemoryMetrics) counter(name string) *InMemoryCounter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &InMemoryCounter{}
	m.counters[name] = c
	return c
}

// Histogram 返回或创建直方图
func (m *InMemoryMetrics) Histogram(name string) Histogram {
	return m.histogram(name)
}

func (m *InMemoryMetrics) histogram(name string) *InMemoryHistogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h
	}
	h := &InMemoryHistogram{}
	m.histograms[name] = h
	return h
}

// CounterValue 获取计数器当前值
func (m *InMemoryMetrics) CounterValue(name string) int64 {
	return m.counter(name).Value()
}

// HistogramValues 获取直方图已记录的值
func (m *InMemoryMetrics) HistogramValues(name string) []float64 {
	return m.histogram(name).Values()
}

// InMemoryCounter 内存计数器
type InMemoryCounter struct {
	value int64
	mu    sync.Mutex
}

// Add 增加计数
func (c *InMemoryCounter) Add(_ context.Context, value int64, _ ...Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += value
}

// Value 返回当前值
func (c *InMemoryCounter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// InMemoryHistogram 内存直方图
type InMemoryHistogram struct {
	values []float64
	mu     sync.Mutex
}

// Record 记录值
func (h *InMemoryHistogram) Record(_ context.Context, value float64, _ ...Attr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, value)
}

// Values 返回记录值的副本
func (h *InMemoryHistogram) Values() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// OTelMetrics 基于 OpenTelemetry Meter 的指标实现
//
// 仪表在首次使用时创建并缓存；创建失败时退化为空实现。
type OTelMetrics struct {
	meter      metric.Meter
	counters   map[string]Counter
	histograms map[string]Histogram
	mu         sync.Mutex
}

// NewOTelMetrics 创建 OpenTelemetry 指标
func NewOTelMetrics(meter metric.Meter) *OTelMetrics {
	return &OTelMetrics{
		meter:      meter,
		counters:   make(map[string]Counter),
		histograms: make(map[string]Histogram),
	}
}

// Counter 返回或创建计数器
func (m *OTelMetrics) Counter(name string) Counter {
	c, _ := m.counter(name)
	return c
}

// Histogram 返回或创建直方图
func (m *OTelMetrics) Histogram(name string) Histogram {
	h, _ := m.histogram(name)
	return h
}

// RegisterPredefined 预先创建全部预定义仪表，返回创建失败的汇总错误
func (m *OTelMetrics) RegisterPredefined() error {
	var errs []error
	for _, d := range PredefinedMetrics {
		var err error
		if d.Unit == UnitMilliseconds {
			_, err = m.histogram(d.Name)
		} else {
			_, err = m.counter(d.Name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m *OTelMetrics) counter(name string) (Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	desc := describe(name)
	inst, err := m.meter.Int64Counter(name,
		metric.WithDescription(desc.Description),
		metric.WithUnit(string(desc.Unit)),
	)
	if err != nil {
		m.counters[name] = &NoopCounter{}
		return m.counters[name], fmt.Errorf("%w %s: %v", ErrInstrumentCreation, name, err)
	}
	m.counters[name] = &otelCounter{inst: inst}
	return m.counters[name], nil
}

func (m *OTelMetrics) histogram(name string) (Histogram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h, nil
	}
	desc := describe(name)
	inst, err := m.meter.Float64Histogram(name,
		metric.WithDescription(desc.Description),
		metric.WithUnit(string(desc.Unit)),
	)
	if err != nil {
		m.histograms[name] = &NoopHistogram{}
		return m.histograms[name], fmt.Errorf("%w %s: %v", ErrInstrumentCreation, name, err)
	}
	m.histograms[name] = &otelHistogram{inst: inst}
	return m.histograms[name], nil
}

type otelCounter struct {
	inst metric.Int64Counter
}

func (c *otelCounter) Add(ctx context.Context, value int64, attrs ...Attr) {
	c.inst.Add(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type otelHistogram struct {
	inst metric.Float64Histogram
}

func (h *otelHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {
	h.inst.Record(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

func toKeyValues(attrs []Attr) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		kvs[i] = a.keyValue()
	}
	return kvs
}

// NoopMetrics 空实现指标
type NoopMetrics struct{}

// NewNoopMetrics 创建空实现指标
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) Counter(name string) Counter     { return &NoopCounter{} }
func (m *NoopMetrics) Histogram(name string) Histogram { return &NoopHistogram{} }

// NoopCounter 空实现计数器
type NoopCounter struct{}

func (c *NoopCounter) Add(ctx context.Context, value int64, attrs ...Attr) {}

// NoopHistogram 空实现直方图
type NoopHistogram struct{}

func (h *NoopHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {}

// compile-time interface check
var _ Metrics = (*InMemoryMetrics)(nil)
var _ Metrics = (*OTelMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
