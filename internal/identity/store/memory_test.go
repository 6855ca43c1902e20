package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinid/internal/identity/models"
	id "clinid/pkg/domain"
	"clinid/pkg/platform/sentinel"
	"clinid/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) seed(p models.Patient) models.Patient {
	s.Require().NoError(s.store.Create(s.ctx, &p))
	return p
}

func (s *MemoryStoreSuite) TestExactLookups() {
	juan := s.seed(models.Patient{
		FullName:   "Juan Pérez",
		NationalID: "12345678",
		Phone:      "0991234567",
		Email:      "juan@example.com",
	})

	s.Run("by national id", func() {
		found, err := s.store.FindByNationalID(s.ctx, "12345678")
		s.Require().NoError(err)
		s.Equal(juan.ID, found.ID)
	})

	s.Run("by email is case-insensitive", func() {
		found, err := s.store.FindByEmail(s.ctx, "JUAN@Example.com")
		s.Require().NoError(err)
		s.Equal(juan.ID, found.ID)
	})

	s.Run("by phone ignores separators", func() {
		found, err := s.store.FindByPhone(s.ctx, "099-123-4567")
		s.Require().NoError(err)
		s.Equal(juan.ID, found.ID)
	})

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, juan.ID)
		s.Require().NoError(err)
		s.Equal("Juan Pérez", found.FullName)
	})

	s.Run("unknown values return ErrNotFound", func() {
		_, err := s.store.FindByNationalID(s.ctx, "99999999")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByID(s.ctx, id.NewPatientID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUniqueness() {
	s.seed(models.Patient{FullName: "Juan Pérez", NationalID: "12345678", Email: "juan@example.com"})

	err := s.store.Create(s.ctx, &models.Patient{FullName: "Otro Juan", NationalID: "12345678"})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	err = s.store.Create(s.ctx, &models.Patient{FullName: "Otro Juan", Email: "JUAN@example.com"})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *MemoryStoreSuite) TestSearchANDSemantics() {
	maria := s.seed(models.Patient{FullName: "Maria González", Email: "maria@example.com"})
	s.seed(models.Patient{FullName: "Maria Fernández", Email: "mfernandez@example.com"})

	criteria := models.SearchCriteria{Name: "maria", Email: "maria@example.com"}
	criteria.Normalize()
	results, err := s.store.Search(s.ctx, criteria, models.MaxSearchLimit)
	s.Require().NoError(err)

	// Only the record satisfying both criteria appears.
	s.Require().Len(results, 1)
	s.Equal(maria.ID, results[0].ID)
}

func (s *MemoryStoreSuite) TestSearchRanking() {
	s.Run("prefix match ranks above mid-string match", func() {
		s.seed(models.Patient{FullName: "Ana Maria Ruiz"})
		s.seed(models.Patient{FullName: "Maria González"})

		criteria := models.SearchCriteria{Name: "maria"}
		criteria.Normalize()
		results, err := s.store.Search(s.ctx, criteria, models.MaxSearchLimit)
		s.Require().NoError(err)
		s.Require().Len(results, 2)
		s.Equal("Maria González", results[0].FullName)
		s.Equal("Ana Maria Ruiz", results[1].FullName)
	})
}

func (s *MemoryStoreSuite) TestSearchRankingAcrossTypes() {
	s.seed(models.Patient{FullName: "Ana Ruiz", NationalID: "11111111", Email: "ana@example.com"})
	s.seed(models.Patient{FullName: "Ana Bela", Email: "anabela@example.com"})

	criteria := models.SearchCriteria{Name: "ana"}
	criteria.Normalize()
	results, err := s.store.Search(s.ctx, criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	// Both are name-prefix matches, so ties break by full name ascending.
	s.Equal("Ana Bela", results[0].FullName)
	s.Equal("Ana Ruiz", results[1].FullName)

	criteria = models.SearchCriteria{NationalID: "111-111-11"}
	criteria.Normalize()
	results, err = s.store.Search(s.ctx, criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Ana Ruiz", results[0].FullName)
}

func (s *MemoryStoreSuite) TestSearchLimit() {
	for _, name := range []string{"Maria A", "Maria B", "Maria C", "Maria D"} {
		s.seed(models.Patient{FullName: name})
	}
	criteria := models.SearchCriteria{Name: "maria"}
	criteria.Normalize()
	results, err := s.store.Search(s.ctx, criteria, 3)
	s.Require().NoError(err)
	s.Len(results, 3)
}

func (s *MemoryStoreSuite) TestSearchNoMatchesIsEmptyNotError() {
	criteria := models.SearchCriteria{Name: "nadie"}
	criteria.Normalize()
	results, err := s.store.Search(s.ctx, criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *MemoryStoreSuite) TestListRecent() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"First", "Second", "Third"} {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Hour))
		p := models.Patient{FullName: name}
		s.Require().NoError(s.store.Create(ctx, &p))
	}

	results, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("Third", results[0].FullName)
	s.Equal("Second", results[1].FullName)
}
