// Package domain holds the typed identifiers shared across the engine.
// Wrapping uuid.UUID keeps patient and session ids from being swapped at
// call sites and gives parse-time validation at the transport boundary.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// PatientID is the stable primary identifier of a patient record.
type PatientID uuid.UUID

// NewPatientID returns a fresh random PatientID.
func NewPatientID() PatientID {
	return PatientID(uuid.New())
}

// ParsePatientID validates and converts a string into a PatientID.
func ParsePatientID(s string) (PatientID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PatientID{}, fmt.Errorf("invalid patient id %q: %w", s, err)
	}
	return PatientID(u), nil
}

func (p PatientID) String() string {
	return uuid.UUID(p).String()
}

// IsNil reports whether the id is the zero value.
func (p PatientID) IsNil() bool {
	return uuid.UUID(p) == uuid.Nil
}

// SessionID identifies one conversation. Sessions are minted by the
// conversation layer; the engine only threads them through.
type SessionID uuid.UUID

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID validates and converts a string into a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return SessionID(u), nil
}

func (s SessionID) String() string {
	return uuid.UUID(s).String()
}

// IsNil reports whether the id is the zero value.
func (s SessionID) IsNil() bool {
	return uuid.UUID(s) == uuid.Nil
}
