package rewriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

// 内置提示模板
const (
	// DefaultPromptTemplate 普通改写器模板，槽位: query, passage
	DefaultPromptTemplate = `Given the following query and passage, rewrite the passage to:
1. Remove redundant information
2. Highlight information relevant to the query
3. Integrate any relevant knowledge to make it more coherent
4. Keep the passage concise and focused

Query: {query}

Original Passage: {passage}

Rewritten Passage:`

	// DefaultTitlePromptTemplate 保留标题的改写器模板，槽位: query, title, content
	DefaultTitlePromptTemplate = `Given the following query and passage with its title, rewrite ONLY the passage content to:
1. Remove redundant information
2. Highlight information relevant to the query
3. Integrate any relevant knowledge to make it more coherent
4. Keep the passage concise and focused

Do NOT include the title in your response, only output the rewritten content.

Query: {query}

Title: {title}

Original Content: {content}

Rewritten Content:`
)

// 转义的花括号在解析前改写为保留槽位，渲染时由槽位函数输出字面量花括号
const (
	openBraceTag  = "\uE000"
	closeBraceTag = "\uE001"
)

var escaper = strings.NewReplacer("{{", "{"+openBraceTag+"}", "}}", "{"+closeBraceTag+"}")

// 内置模板
var (
	defaultTemplate      = MustTemplate(DefaultPromptTemplate)
	defaultTitleTemplate = MustTemplate(DefaultTitlePromptTemplate)
)

// Template 带 {name} 槽位的提示模板
//
// 未知槽位按原样保留，"{{" 与 "}}" 渲染为字面量花括号。
type Template struct {
	raw string
	tpl *fasttemplate.Template
}

// NewTemplate 解析模板
func NewTemplate(s string) (*Template, error) {
	tpl, err := fasttemplate.NewTemplate(escaper.Replace(s), "{", "}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return &Template{raw: s, tpl: tpl}, nil
}

// MustTemplate 解析模板，失败时 panic
func MustTemplate(s string) *Template {
	t, err := NewTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Render 用 values 填充槽位
func (t *Template) Render(values map[string]string) string {
	return t.tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		switch tag {
		case openBraceTag:
			return io.WriteString(w, "{")
		case closeBraceTag:
			return io.WriteString(w, "}")
		}
		if v, ok := values[tag]; ok {
			return io.WriteString(w, v)
		}
		return io.WriteString(w, "{"+tag+"}")
	})
}

// String 返回原始模板文本
func (t *Template) String() string {
	return t.raw
}
