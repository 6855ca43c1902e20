package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "juan perez", NormalizeKey("  Juan Perez "))
	assert.Equal(t, "", NormalizeKey("   "))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "099123456", Digits("099-123 456"))
	assert.Equal(t, "12345678", Digits("+1 (234) 56-78"))
	assert.Equal(t, "", Digits("no digits here"))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Maria del Carmen", CollapseSpaces("  Maria   del\tCarmen "))
}

func TestDedupeAndTrim(t *testing.T) {
	got := DedupeAndTrim([]string{" name ", "email", "name", "", "  "})
	assert.Equal(t, []string{"name", "email"}, got)
}
