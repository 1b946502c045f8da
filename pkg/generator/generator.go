// Package generator 定义上下文改写所依赖的文本生成协作者。
//
// Generator 是改写器唯一依赖的外部能力：批量地将提示转换为生成文本，
// 并暴露一个可被临时覆盖的"最大生成 token 数"设置。
package generator

import "context"

// Generator 文本生成协作者接口
type Generator interface {
	// Model 返回模型标识，仅用于构造诊断标签
	Model() string

	// MaxNewTokens 返回当前的最大生成 token 数
	MaxNewTokens() int

	// SetMaxNewTokens 设置最大生成 token 数
	SetMaxNewTokens(n int)

	// GenerateBatch 同步批量生成
	//
	// 返回结果与 prompts 等长且顺序一致；任一提示失败时返回错误。
	GenerateBatch(ctx context.Context, prompts []string) ([]string, error)
}

// WithTokenBudget 在 fn 执行期间将 g 的最大生成 token 数覆盖为 n。
//
// 原值在 defer 中恢复，fn 正常返回、返回错误或 panic 时都会恢复。
func WithTokenBudget(g Generator, n int, fn func() error) error {
	prev := g.MaxNewTokens()
	g.SetMaxNewTokens(n)
	defer g.SetMaxNewTokens(prev)
	return fn()
}
