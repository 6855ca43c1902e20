// Package cache implements the TTL-bounded resolution cache mapping
// `(identifier type, normalized value)` to a resolved patient record.
//
// Error Contract: the cache fails open. Any infrastructure failure or
// corrupt entry is reported as a miss so resolution falls through to the
// backing store; a cache problem must never fail a resolution.
package cache

import (
	"context"
	"sync"
	"time"

	"clinid/internal/identity/models"
	"clinid/pkg/requestcontext"
)

// DefaultTTL bounds how long a resolved identity is trusted without
// re-querying the backing store.
const DefaultTTL = 300 * time.Second

// DefaultMaxEntries bounds the in-memory cache size.
const DefaultMaxEntries = 1024

// ResolutionCache is consulted before every backing store lookup.
type ResolutionCache interface {
	// Get returns the cached record for the identifier, or ok=false on a
	// miss. Expired entries are misses.
	Get(ctx context.Context, t models.IdentifierType, value string) (*models.Patient, bool)
	// Put stores a resolved record under the identifier that resolved it.
	Put(ctx context.Context, t models.IdentifierType, value string, p *models.Patient)
	// Invalidate drops one entry.
	Invalidate(ctx context.Context, t models.IdentifierType, value string)
	// Clear empties the cache unconditionally.
	Clear(ctx context.Context)
}

type entry struct {
	patient  models.Patient
	cachedAt time.Time
}

// Memory is the in-process implementation: a bounded map with lazy TTL
// expiry evaluated at Get time. No background sweeper; a hit on an expired
// entry is reported as a miss and the stale entry is dropped.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
}

// NewMemory constructs a memory cache. Zero ttl or maxEntries select the
// defaults.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (m *Memory) Get(ctx context.Context, t models.IdentifierType, value string) (*models.Patient, bool) {
	key := models.CacheKey(t, value)
	now := requestcontext.Now(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.cachedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	p := e.patient
	return &p, true
}

func (m *Memory) Put(ctx context.Context, t models.IdentifierType, value string, p *models.Patient) {
	if p == nil {
		return
	}
	key := models.CacheKey(t, value)
	now := requestcontext.Now(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.entries[key] = entry{patient: *p, cachedAt: now}
}

// evictLocked makes room for one entry: expired entries go first, then the
// oldest entry.
func (m *Memory) evictLocked(now time.Time) {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range m.entries {
		if now.Sub(e.cachedAt) >= m.ttl {
			delete(m.entries, k)
		} else if oldestKey == "" || e.cachedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.cachedAt
		}
	}
	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) Invalidate(_ context.Context, t models.IdentifierType, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, models.CacheKey(t, value))
}

func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
}

// Len reports the current entry count (test helper).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
