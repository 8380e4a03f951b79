package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("green!2024"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nosymbol12"))
}

func TestIsValidTitle(t *testing.T) {
	assert.True(t, IsValidTitle("  Solar roofs  "))
	assert.False(t, IsValidTitle("   "))
	assert.False(t, IsValidTitle(strings.Repeat("x", MaxTitleLength+1)))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	got, ok := ParseUUIDParam(id.String())
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = ParseUUIDParam("nope")
	assert.False(t, ok)
	_, ok = ParseUUIDParam("")
	assert.False(t, ok)
}
