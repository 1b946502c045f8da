package message_test

import (
	"testing"

	"github.com/easyops/ctxrefine-go/pkg/core/message"
	"github.com/stretchr/testify/assert"
)

func TestMessage_Validate(t *testing.T) {
	msg := message.NewUserMessage("hi")
	assert.NoError(t, msg.Validate())

	msg = message.NewSystemMessage("")
	assert.ErrorIs(t, msg.Validate(), message.ErrEmptyContent)

	msg = message.Message{Role: "tool", Content: "x"}
	assert.ErrorIs(t, msg.Validate(), message.ErrInvalidRole)
	assert.True(t, message.RoleAssistant.IsValid())
}

func TestTokenUsage_Add(t *testing.T) {
	var u message.TokenUsage
	assert.True(t, u.IsEmpty())

	u.Add(message.TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	u.Add(message.TokenUsage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9})
	assert.Equal(t, message.TokenUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}, u)
	assert.False(t, u.IsEmpty())
}
