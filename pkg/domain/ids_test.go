package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Parsing happens at trust boundaries, so malformed input must never
// produce a usable id.
func TestParsePatientID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"not a uuid", "not-a-uuid", true},
		{"sql injection attempt", "'; DROP TABLE patients;--", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"valid lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
		{"valid uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatientID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIDRoundTrip(t *testing.T) {
	patientID := NewPatientID()
	parsed, err := ParsePatientID(patientID.String())
	require.NoError(t, err)
	assert.Equal(t, patientID, parsed)

	sessionID := NewSessionID()
	parsedSession, err := ParseSessionID(sessionID.String())
	require.NoError(t, err)
	assert.Equal(t, sessionID, parsedSession)
}

func TestIsNil(t *testing.T) {
	assert.True(t, PatientID{}.IsNil())
	assert.True(t, SessionID{}.IsNil())
	assert.False(t, NewPatientID().IsNil())
	assert.False(t, NewSessionID().IsNil())

	nilParsed, err := ParsePatientID(uuid.Nil.String())
	require.NoError(t, err)
	assert.True(t, nilParsed.IsNil())
}

// PatientID and SessionID are distinct types; mixing them at a call site is
// a compile error. The runtime check below only documents the distinction.
func TestTypedIDsAreDistinct(t *testing.T) {
	raw := uuid.New()
	assert.Equal(t, uuid.UUID(PatientID(raw)), uuid.UUID(SessionID(raw)))
	// var _ PatientID = SessionID(raw)  // does not compile
}
