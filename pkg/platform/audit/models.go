// Package audit captures the identity-resolution audit trail. Healthcare
// lookups are audited with hashed subject identifiers: the trail records
// that a resolution happened and how, never the raw identifier itself.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// a patient identity was looked up or bound to a conversation.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility (cache behavior, search volume).
	CategoryOperations EventCategory = "operations"
)

// Action names the audited operation.
type Action string

const (
	ActionIdentityResolved Action = "identity_resolved"
	ActionIdentityBound    Action = "identity_bound"
	ActionPatientSearch    Action = "patient_search"
	ActionSessionCleared   Action = "session_cleared"
)

// Event is emitted from the resolver to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Action    Action
	Timestamp time.Time
	SessionID string
	// SubjectHash is a SHA-256 hash of the identifier used for resolution.
	// Raw identifiers (national ids, phones, emails) never enter the trail.
	SubjectHash    string
	IdentifierType string
	Outcome        string
	RequestID      string
}

// HashSubject derives the audit-safe form of an identifier value.
func HashSubject(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
