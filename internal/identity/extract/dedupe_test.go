package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinid/internal/identity/models"
)

func TestDedupe(t *testing.T) {
	t.Run("keeps highest confidence per key", func(t *testing.T) {
		in := []models.Candidate{
			{Value: "Juan Pérez", Type: models.IdentifierName, Confidence: 0.5},
			{Value: "juan pérez", Type: models.IdentifierName, Confidence: 0.7},
			{Value: "12345678", Type: models.IdentifierNationalID, Confidence: 0.9},
		}
		out := Dedupe(in)
		require.Len(t, out, 2)
		assert.Equal(t, models.IdentifierNationalID, out[0].Type)
		assert.Equal(t, 0.7, out[1].Confidence)
	})

	t.Run("same value different type is not a duplicate", func(t *testing.T) {
		in := []models.Candidate{
			{Value: "12345678", Type: models.IdentifierNationalID, Confidence: 0.6},
			{Value: "12345678", Type: models.IdentifierPhone, Confidence: 0.5},
		}
		assert.Len(t, Dedupe(in), 2)
	})

	t.Run("orders by confidence descending with stable ties", func(t *testing.T) {
		in := []models.Candidate{
			{Value: "a@example.com", Type: models.IdentifierEmail, Confidence: 0.5},
			{Value: "b@example.com", Type: models.IdentifierEmail, Confidence: 0.5},
			{Value: "Ana Ruiz", Type: models.IdentifierName, Confidence: 0.8},
		}
		out := Dedupe(in)
		require.Len(t, out, 3)
		assert.Equal(t, "Ana Ruiz", out[0].Value)
		assert.Equal(t, "a@example.com", out[1].Value)
		assert.Equal(t, "b@example.com", out[2].Value)
	})

	t.Run("no two outputs share a key", func(t *testing.T) {
		in := Extract("paciente Juan Pérez, cedula 12345678, Juan Pérez otra vez")
		out := Dedupe(in)
		seen := map[string]float64{}
		for _, c := range out {
			_, dup := seen[c.Key()]
			assert.False(t, dup, "duplicate key %s", c.Key())
			seen[c.Key()] = c.Confidence
		}
		// Surviving confidence equals the max over the inputs for the key.
		for _, c := range in {
			assert.GreaterOrEqual(t, seen[c.Key()], c.Confidence)
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Dedupe(nil))
	})
}
