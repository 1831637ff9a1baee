package entrypoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://localhost:5173"}, allowedOrigins("http://localhost:5173"))
	assert.Equal(t, []string{"https://quested.app"}, allowedOrigins("https://quested.app/play?x=1"))
	assert.Nil(t, allowedOrigins(""))
	assert.Nil(t, allowedOrigins("localhost"))
}

func TestTrustedOrigins(t *testing.T) {
	assert.Equal(t, []string{"localhost:5173"}, trustedOrigins("http://localhost:5173"))
	assert.Equal(t, []string{"quested.app"}, trustedOrigins("https://quested.app/"))
	assert.Nil(t, trustedOrigins(""))
}
