package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinid/internal/identity/models"
)

func candidatesOfType(cs []models.Candidate, t models.IdentifierType) []models.Candidate {
	var out []models.Candidate
	for _, c := range cs {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestExtractNationalID(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantValue     string
		minConfidence float64
	}{
		{"with cedula keyword", "cedula 12345678", "12345678", 0.8},
		{"with accented keyword", "mi cédula es 4567890", "4567890", 0.8},
		{"bare digit run", "el número es 123456789", "123456789", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := candidatesOfType(Extract(tt.text), models.IdentifierNationalID)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantValue, got[0].Value)
			assert.GreaterOrEqual(t, got[0].Confidence, tt.minConfidence)
			assert.LessOrEqual(t, got[0].Confidence, 1.0)
		})
	}

	t.Run("too short and too long runs are ignored", func(t *testing.T) {
		got := candidatesOfType(Extract("cedula 123456 y 1234567890123"), models.IdentifierNationalID)
		assert.Empty(t, got)
	})

	t.Run("ids one space apart are both extracted", func(t *testing.T) {
		got := candidatesOfType(Extract("cedula 12345678 87654321"), models.IdentifierNationalID)
		require.Len(t, got, 2)
		assert.Equal(t, "12345678", got[0].Value)
		assert.Equal(t, "87654321", got[1].Value)
	})
}

func TestExtractRecordID(t *testing.T) {
	text := "expediente 550e8400-e29b-41d4-a716-446655440000 del paciente"
	got := candidatesOfType(Extract(text), models.IdentifierRecordID)
	require.Len(t, got, 1)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", got[0].Value)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.8)

	// The UUID's digit segments must not leak into other identifier types.
	assert.Empty(t, candidatesOfType(Extract(text), models.IdentifierNationalID))
}

func TestExtractPhone(t *testing.T) {
	t.Run("separated digits with keyword", func(t *testing.T) {
		got := candidatesOfType(Extract("tel: 099-123-4567"), models.IdentifierPhone)
		require.Len(t, got, 1)
		assert.Equal(t, "0991234567", got[0].Value)
		assert.GreaterOrEqual(t, got[0].Confidence, 0.8)
	})

	t.Run("digit count out of range is dropped", func(t *testing.T) {
		got := candidatesOfType(Extract("código 1234567"), models.IdentifierPhone)
		assert.Empty(t, got)
	})

	t.Run("adjacent phones are extracted separately", func(t *testing.T) {
		got := candidatesOfType(Extract("tel 0991234567 0997654321"), models.IdentifierPhone)
		require.Len(t, got, 2)
		assert.Equal(t, "0991234567", got[0].Value)
		assert.Equal(t, "0997654321", got[1].Value)
	})

	t.Run("full number is kept when separated by spaces", func(t *testing.T) {
		got := candidatesOfType(Extract("celular 099 123 4567"), models.IdentifierPhone)
		require.Len(t, got, 1)
		assert.Equal(t, "0991234567", got[0].Value)
	})
}

func TestExtractEmail(t *testing.T) {
	got := candidatesOfType(Extract("correo juan.perez@example.com por favor"), models.IdentifierEmail)
	require.Len(t, got, 1)
	assert.Equal(t, "juan.perez@example.com", got[0].Value)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.8)
}

func TestExtractName(t *testing.T) {
	t.Run("keyword name outranks fallback", func(t *testing.T) {
		got := candidatesOfType(Extract("el paciente Juan Pérez llegó"), models.IdentifierName)
		require.NotEmpty(t, got)
		best := Dedupe(got)[0]
		assert.Equal(t, "Juan Pérez", best.Value)
		// keyword + two parts + -ez surname on top of the base score
		assert.GreaterOrEqual(t, best.Confidence, 0.7)
	})

	t.Run("role words are rejected", func(t *testing.T) {
		got := candidatesOfType(Extract("el Doctor Hospital"), models.IdentifierName)
		assert.Empty(t, got)
	})

	t.Run("lowercase text yields no names", func(t *testing.T) {
		got := candidatesOfType(Extract("el paciente juan pérez"), models.IdentifierName)
		assert.Empty(t, got)
	})

	t.Run("three part name scores above two part", func(t *testing.T) {
		three := Dedupe(candidatesOfType(Extract("paciente Ana Maria Ruiz"), models.IdentifierName))[0]
		two := Dedupe(candidatesOfType(Extract("paciente Ana Ruiz"), models.IdentifierName))[0]
		assert.Greater(t, three.Confidence, two.Confidence)
	})
}

func TestExtractUnmatchedTextIsEmpty(t *testing.T) {
	assert.Empty(t, Extract("hola, quiero una cita"))
	assert.Empty(t, Extract(""))
}

func TestExtractDeterminism(t *testing.T) {
	text := "paciente Juan Pérez, cedula 12345678, tel 099-123-4567, juan@example.com"
	first := Extract(text)
	for range 5 {
		assert.Equal(t, first, Extract(text))
	}
}

func TestConfidenceBounds(t *testing.T) {
	text := "expediente id 550e8400-e29b-41d4-a716-446655440000 paciente Juan Pérez González cedula 12345678"
	for _, c := range Extract(text) {
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
}
