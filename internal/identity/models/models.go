// Package models defines the identity-resolution domain types: extracted
// candidates, patient records, search criteria, and the per-session
// identity binding.
package models

import (
	"time"

	id "clinid/pkg/domain"
	dErrors "clinid/pkg/domain-errors"
	pstrings "clinid/pkg/platform/strings"
)

// IdentifierType classifies what kind of identifier a value is.
type IdentifierType string

const (
	IdentifierNationalID IdentifierType = "national_id"
	IdentifierRecordID   IdentifierType = "record_id"
	IdentifierPhone      IdentifierType = "phone"
	IdentifierEmail      IdentifierType = "email"
	IdentifierName       IdentifierType = "name"
)

// Valid reports whether t is a known identifier type.
func (t IdentifierType) Valid() bool {
	switch t {
	case IdentifierNationalID, IdentifierRecordID, IdentifierPhone, IdentifierEmail, IdentifierName:
		return true
	}
	return false
}

// CandidateSource records which extraction path produced a candidate.
type CandidateSource string

const (
	SourcePatternExtraction CandidateSource = "pattern_extraction"
	SourceNameExtraction    CandidateSource = "name_extraction"
)

// Candidate is a typed, confidence-scored identifier extracted from free
// text. Confidence is additive from type-specific heuristics and always
// lands in [0,1].
type Candidate struct {
	Value      string
	Type       IdentifierType
	Confidence float64
	Source     CandidateSource
}

// Key returns the dedup/cache key: type plus the normalized value. Two
// candidates with equal keys refer to the same identifier.
func (c Candidate) Key() string {
	return CacheKey(c.Type, c.Value)
}

// CacheKey builds the canonical `(type, normalized value)` key used by both
// the deduplicator and the resolution cache.
func CacheKey(t IdentifierType, value string) string {
	return string(t) + ":" + pstrings.NormalizeKey(value)
}

// Patient is the resolved entity. Optional fields are empty strings / nil.
type Patient struct {
	ID          id.PatientID `json:"id"`
	FullName    string       `json:"full_name"`
	NationalID  string       `json:"national_id,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Email       string       `json:"email,omitempty"`
	DateOfBirth *time.Time   `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Search limits. Requests above MaxSearchLimit are rejected, not clamped.
const (
	DefaultSearchLimit = 3
	MaxSearchLimit     = 10
	maxCriterionLength = 200
)

// SearchCriteria combines structured lookup fields with AND semantics.
type SearchCriteria struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id,omitempty"`
}

// Normalize trims every criterion in place.
func (c *SearchCriteria) Normalize() {
	c.Name = pstrings.CollapseSpaces(c.Name)
	c.Email = pstrings.NormalizeKey(c.Email)
	c.Phone = pstrings.Digits(c.Phone)
	c.NationalID = pstrings.Digits(c.NationalID)
}

// Empty reports whether no criterion is set.
func (c SearchCriteria) Empty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == "" && c.NationalID == ""
}

// Used lists the names of non-empty criteria for observability reporting.
func (c SearchCriteria) Used() []string {
	var used []string
	if c.NationalID != "" {
		used = append(used, "national_id")
	}
	if c.Email != "" {
		used = append(used, "email")
	}
	if c.Phone != "" {
		used = append(used, "phone")
	}
	if c.Name != "" {
		used = append(used, "name")
	}
	return pstrings.DedupeAndTrim(used)
}

// Validate rejects malformed criteria before any store access.
func (c SearchCriteria) Validate() error {
	if c.Empty() {
		return dErrors.New(dErrors.CodeBadRequest, "at least one search criterion is required")
	}
	for field, value := range map[string]string{
		"name":        c.Name,
		"email":       c.Email,
		"phone":       c.Phone,
		"national_id": c.NationalID,
	} {
		if len(value) > maxCriterionLength {
			return dErrors.Newf(dErrors.CodeBadRequest, "criterion %q exceeds maximum length", field)
		}
	}
	return nil
}

// ValidateSearchLimit checks the requested result cap. Zero means "use the
// default"; anything else must sit in [1, MaxSearchLimit].
func ValidateSearchLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultSearchLimit, nil
	}
	if limit < 1 || limit > MaxSearchLimit {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "limit must be between 1 and %d", MaxSearchLimit)
	}
	return limit, nil
}

// SessionIdentity is the currently bound patient identity for one
// conversation, plus the provenance of the binding.
type SessionIdentity struct {
	PatientID   id.PatientID `json:"patient_id"`
	FullName    string       `json:"full_name"`
	NationalID  string       `json:"national_id,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Email       string       `json:"email,omitempty"`
	DateOfBirth *time.Time   `json:"date_of_birth,omitempty"`

	IdentifierUsed string         `json:"identifier_used"`
	IdentifierType IdentifierType `json:"identifier_type"`
	Confidence     float64        `json:"confidence"`
	BoundAt        time.Time      `json:"bound_at"`
}
