package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "access_token", "abc", "email", "kid@example.com", "dangling"})

	assert.Equal(t, []interface{}{
		"user_id", "u1",
		"access_token", "[REDACTED]",
		"email", "[REDACTED]",
		"dangling",
	}, out)
}

func TestNop(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("nothing happens", "password", "hunter2")
}
