package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"clinid/internal/identity/models"
	id "clinid/pkg/domain"
	pstrings "clinid/pkg/platform/strings"
	"clinid/pkg/platform/sentinel"
	"clinid/pkg/requestcontext"
)

// Memory stores patients in memory for development and tests.
type Memory struct {
	mu       sync.RWMutex
	patients map[id.PatientID]models.Patient
}

// NewMemory constructs an empty in-memory patient store.
func NewMemory() *Memory {
	return &Memory{patients: make(map[id.PatientID]models.Patient)}
}

// Create inserts a patient, enforcing national id and email uniqueness.
func (s *Memory) Create(ctx context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.patients {
		if p.NationalID != "" && pstrings.Digits(existing.NationalID) == pstrings.Digits(p.NationalID) {
			return fmt.Errorf("national id already registered: %w", sentinel.ErrInvalidState)
		}
		if p.Email != "" && pstrings.NormalizeKey(existing.Email) == pstrings.NormalizeKey(p.Email) {
			return fmt.Errorf("email already registered: %w", sentinel.ErrInvalidState)
		}
	}

	record := *p
	if record.ID.IsNil() {
		record.ID = id.NewPatientID()
	}
	now := requestcontext.Now(ctx)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.patients[record.ID] = record
	*p = record
	return nil
}

func (s *Memory) FindByID(_ context.Context, patientID id.PatientID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.patients[patientID]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("patient %s: %w", patientID, sentinel.ErrNotFound)
}

func (s *Memory) FindByNationalID(_ context.Context, value string) (*models.Patient, error) {
	return s.findOne(func(p models.Patient) bool {
		return p.NationalID != "" && pstrings.Digits(p.NationalID) == pstrings.Digits(value)
	})
}

func (s *Memory) FindByEmail(_ context.Context, value string) (*models.Patient, error) {
	return s.findOne(func(p models.Patient) bool {
		return p.Email != "" && pstrings.NormalizeKey(p.Email) == pstrings.NormalizeKey(value)
	})
}

func (s *Memory) FindByPhone(_ context.Context, value string) (*models.Patient, error) {
	return s.findOne(func(p models.Patient) bool {
		return p.Phone != "" && pstrings.Digits(p.Phone) == pstrings.Digits(value)
	})
}

func (s *Memory) findOne(match func(models.Patient) bool) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if match(p) {
			out := p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("patient: %w", sentinel.ErrNotFound)
}

func (s *Memory) FindByName(ctx context.Context, substring string, limit int) ([]models.Patient, error) {
	return s.Search(ctx, models.SearchCriteria{Name: pstrings.CollapseSpaces(substring)}, limit)
}

func (s *Memory) Search(_ context.Context, criteria models.SearchCriteria, limit int) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Patient
	for _, p := range s.patients {
		if criteria.Matches(p) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		ri, rj := criteria.Rank(matched[i]), criteria.Rank(matched[j])
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(matched[i].FullName) < strings.ToLower(matched[j].FullName)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Memory) ListRecent(_ context.Context, limit int) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
