package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("alice_01"))
	assert.False(t, ValidUsername(""))
	assert.False(t, ValidUsername("alice smith"))
	assert.False(t, ValidUsername(strings.Repeat("a", MaxUsernameLength+1)))
}

func TestCleanInput(t *testing.T) {
	assert.Equal(t, "add milk", CleanInput("add\x00 milk"))
	assert.Equal(t, "ok", CleanInput("o\xffk"))

	long := strings.Repeat("₹", MaxInputLength)
	cleaned := CleanInput(long)
	assert.LessOrEqual(t, len(cleaned), MaxInputLength)
	assert.True(t, strings.HasPrefix(long, cleaned))
	assert.Equal(t, 0, len(cleaned)%len("₹"), "no rune is split")
}
