package rewriter

import "errors"

// ErrInvalidTemplate 提示模板无法解析（如存在未闭合的 "{"）
var ErrInvalidTemplate = errors.New("rewriter: invalid prompt template")
