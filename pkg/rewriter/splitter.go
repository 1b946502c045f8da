package rewriter

import (
	"errors"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// ErrNoSentences 分句器未找到任何句子
var ErrNoSentences = errors.New("rewriter: no sentences found")

// SentenceSplitter 分句器
type SentenceSplitter interface {
	Split(text string) ([]string, error)
}

// PunktSplitter 基于 Punkt 英文模型的分句器
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter 加载内置英文模型并创建分句器
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

// Split 将文本切分为去除首尾空白的句子
func (s *PunktSplitter) Split(text string) ([]string, error) {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(sent.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSentences
	}
	return out, nil
}

var (
	defaultSplitterOnce sync.Once
	defaultSplitter     SentenceSplitter
)

// DefaultSplitter 返回进程内共享的 Punkt 分句器，模型加载失败时返回 nil
func DefaultSplitter() SentenceSplitter {
	defaultSplitterOnce.Do(func() {
		if s, err := NewPunktSplitter(); err == nil {
			defaultSplitter = s
		}
	})
	return defaultSplitter
}

// SplitTitle 用默认分句器将文档拆分为标题（首句）与正文（其余句子）
func SplitTitle(doc string) (title, content string) {
	title, content, _ = splitTitle(DefaultSplitter(), doc)
	return title, content
}

// splitTitle 拆分标题与正文，fallback 表示是否走了 ". " 启发式
func splitTitle(splitter SentenceSplitter, doc string) (title, content string, fallback bool) {
	if splitter != nil {
		if sents, err := splitter.Split(doc); err == nil && len(sents) > 0 {
			return sents[0], strings.Join(sents[1:], " "), false
		}
	}

	before, after, found := strings.Cut(doc, ". ")
	if !found {
		return "", doc, true
	}
	return before + ".", after, true
}
