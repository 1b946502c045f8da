package rewriter_test

import (
	"testing"

	"github.com/easyops/ctxrefine-go/pkg/rewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Render(t *testing.T) {
	tests := []struct {
		name   string
		tpl    string
		values map[string]string
		want   string
	}{
		{
			name:   "slots",
			tpl:    "Query: {query}\nPassage: {passage}",
			values: map[string]string{"query": "q", "passage": "p"},
			want:   "Query: q\nPassage: p",
		},
		{
			name:   "unknown slot kept",
			tpl:    "{query} {missing}",
			values: map[string]string{"query": "q"},
			want:   "q {missing}",
		},
		{
			name:   "escaped braces",
			tpl:    `{{"answer": "{query}"}}`,
			values: map[string]string{"query": "q"},
			want:   `{"answer": "q"}`,
		},
		{
			name:   "values are not re-expanded",
			tpl:    "{passage}",
			values: map[string]string{"passage": "{query}", "query": "x"},
			want:   "{query}",
		},
		{
			name:   "private-use runes in values kept",
			tpl:    "{query} {passage}",
			values: map[string]string{"query": "q", "passage": "a\uE000b\uE001c"},
			want:   "q a\uE000b\uE001c",
		},
		{
			name:   "escaped slot name",
			tpl:    "{{query}} {query}",
			values: map[string]string{"query": "q"},
			want:   "{query} q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := rewriter.NewTemplate(tt.tpl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tpl.Render(tt.values))
			assert.Equal(t, tt.tpl, tpl.String())
		})
	}
}

func TestNewTemplate_Unclosed(t *testing.T) {
	_, err := rewriter.NewTemplate("{query")
	assert.ErrorIs(t, err, rewriter.ErrInvalidTemplate)

	assert.Panics(t, func() { rewriter.MustTemplate("{query") })
}

func TestDefaultTemplates(t *testing.T) {
	plain := rewriter.MustTemplate(rewriter.DefaultPromptTemplate).Render(map[string]string{
		"query":   "Q",
		"passage": "P",
	})
	assert.Contains(t, plain, "Query: Q\n\nOriginal Passage: P\n\nRewritten Passage:")

	title := rewriter.MustTemplate(rewriter.DefaultTitlePromptTemplate).Render(map[string]string{
		"query":   "Q",
		"title":   "T",
		"content": "C",
	})
	assert.Contains(t, title, "Title: T\n\nOriginal Content: C\n\nRewritten Content:")
}
