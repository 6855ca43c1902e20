// Package session holds the per-conversation identity binding. A session's
// identity context is created empty, overwritten when a different patient
// resolves, refreshed (not "changed") when the same patient resolves again,
// and clearable by the caller.
//
// The engine owns only the identity sub-object; everything else the
// conversation layer stashes per session lives in the opaque Extra map and
// is never inspected here.
package session

import (
	"context"
	"sync"

	"clinid/internal/identity/models"
	id "clinid/pkg/domain"
	"clinid/pkg/requestcontext"
)

// State is the per-session blob. Identity is nil until the first binding.
type State struct {
	ID       id.SessionID
	Identity *models.SessionIdentity
	Extra    map[string]any
}

type slot struct {
	mu    sync.Mutex
	state State
}

// Manager tracks sessions. Each session serializes its own mutations; there
// is no cross-session coordination because sessions never share identity.
type Manager struct {
	mu    sync.Mutex
	slots map[id.SessionID]*slot
}

// NewManager constructs an empty session manager.
func NewManager() *Manager {
	return &Manager{slots: make(map[id.SessionID]*slot)}
}

func (m *Manager) slotFor(sessionID id.SessionID) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[sessionID]
	if !ok {
		s = &slot{state: State{ID: sessionID, Extra: make(map[string]any)}}
		m.slots[sessionID] = s
	}
	return s
}

// Bind attaches the resolved patient to the session and returns the
// resulting identity plus whether the binding changed the bound patient.
// Binding the already-bound patient refreshes provenance and the timestamp
// but reports changed=false, so callers can skip change notifications.
func (m *Manager) Bind(ctx context.Context, sessionID id.SessionID, p *models.Patient,
	identifierUsed string, identifierType models.IdentifierType, confidence float64,
) (models.SessionIdentity, bool) {
	s := m.slotFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := models.SessionIdentity{
		PatientID:      p.ID,
		FullName:       p.FullName,
		NationalID:     p.NationalID,
		Phone:          p.Phone,
		Email:          p.Email,
		DateOfBirth:    p.DateOfBirth,
		IdentifierUsed: identifierUsed,
		IdentifierType: identifierType,
		Confidence:     confidence,
		BoundAt:        requestcontext.Now(ctx),
	}

	changed := s.state.Identity == nil || s.state.Identity.PatientID != p.ID
	s.state.Identity = &identity
	return identity, changed
}

// Current returns the bound identity, or ok=false when the session has none.
func (m *Manager) Current(sessionID id.SessionID) (*models.SessionIdentity, bool) {
	s := m.slotFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Identity == nil {
		return nil, false
	}
	out := *s.state.Identity
	return &out, true
}

// Clear removes the bound identity, reporting whether one existed.
func (m *Manager) Clear(sessionID id.SessionID) bool {
	s := m.slotFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.state.Identity != nil
	s.state.Identity = nil
	return had
}

// PutExtra stores a conversation-layer value the engine never interprets.
func (m *Manager) PutExtra(sessionID id.SessionID, key string, value any) {
	s := m.slotFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Extra[key] = value
}

// GetExtra retrieves a conversation-layer value.
func (m *Manager) GetExtra(sessionID id.SessionID, key string) (any, bool) {
	s := m.slotFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.Extra[key]
	return v, ok
}
