package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name untouched", "maria", "maria"},
		{"percent is literal", "100%", `100\%`},
		{"underscore is literal", "ana_maria", `ana\_maria`},
		{"backslash escapes first", `a\%b`, `a\\\%b`},
		{"wildcard-only criterion", "%", `\%`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.input))
		})
	}
}
