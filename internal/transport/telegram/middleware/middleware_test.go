package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandOf(t *testing.T) {
	assert.Equal(t, "/buy", commandOf("/buy fund-1 10"))
	assert.Equal(t, "/start", commandOf("/start@fund_bot"))
	assert.Equal(t, "/value", commandOf("/value"))
	assert.Equal(t, "text", commandOf("my secret portfolio"))
	assert.Equal(t, "text", commandOf(""))
}
