package otel

import "errors"

// 可观测性相关错误
var (
	// ErrUnsupportedExporter 不支持的导出器类型
	ErrUnsupportedExporter = errors.New("unsupported exporter type")
	// ErrInstrumentCreation 指标创建失败
	ErrInstrumentCreation = errors.New("failed to create metric instrument")
)
