//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"clinid/internal/identity/models"
	"clinid/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("clinid_test"),
		tcpostgres.WithUsername("clinid"),
		tcpostgres.WithPassword("clinid"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = Connect(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(Migrate(ctx, s.pool))
	s.store = NewPostgres(s.pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		testcontainers.CleanupContainer(s.T(), s.container)
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE patients`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seed(p models.Patient) models.Patient {
	s.Require().NoError(s.store.Create(context.Background(), &p))
	return p
}

func (s *PostgresStoreSuite) TestExactLookups() {
	juan := s.seed(models.Patient{
		FullName:   "Juan Pérez",
		NationalID: "123-456-78",
		Phone:      "099 123 4567",
		Email:      "Juan@Example.com",
	})

	found, err := s.store.FindByNationalID(context.Background(), "12345678")
	s.Require().NoError(err)
	s.Equal(juan.ID, found.ID)

	found, err = s.store.FindByEmail(context.Background(), "juan@example.com")
	s.Require().NoError(err)
	s.Equal(juan.ID, found.ID)

	found, err = s.store.FindByPhone(context.Background(), "0991234567")
	s.Require().NoError(err)
	s.Equal(juan.ID, found.ID)

	found, err = s.store.FindByID(context.Background(), juan.ID)
	s.Require().NoError(err)
	s.Equal("Juan Pérez", found.FullName)

	_, err = s.store.FindByNationalID(context.Background(), "00000000")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSearchANDSemanticsAndRanking() {
	s.seed(models.Patient{FullName: "Maria González", Email: "maria@example.com"})
	s.seed(models.Patient{FullName: "Ana Maria Ruiz", Email: "ana@example.com"})

	criteria := models.SearchCriteria{Name: "maria"}
	criteria.Normalize()
	results, err := s.store.Search(context.Background(), criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("Maria González", results[0].FullName)
	s.Equal("Ana Maria Ruiz", results[1].FullName)

	criteria = models.SearchCriteria{Name: "maria", Email: "maria@example.com"}
	criteria.Normalize()
	results, err = s.store.Search(context.Background(), criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Maria González", results[0].FullName)
}

func (s *PostgresStoreSuite) TestSearchNameMatchesLiterally() {
	s.seed(models.Patient{FullName: "Maria González"})
	s.seed(models.Patient{FullName: "Ana 100% Ruiz"})

	// LIKE metacharacters in the criterion match literally, mirroring the
	// memory store's substring semantics.
	criteria := models.SearchCriteria{Name: "%"}
	criteria.Normalize()
	results, err := s.store.Search(context.Background(), criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Ana 100% Ruiz", results[0].FullName)

	criteria = models.SearchCriteria{Name: "a_a"}
	criteria.Normalize()
	results, err = s.store.Search(context.Background(), criteria, models.MaxSearchLimit)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *PostgresStoreSuite) TestListRecent() {
	s.seed(models.Patient{FullName: "First", CreatedAt: time.Now().Add(-2 * time.Hour)})
	second := s.seed(models.Patient{FullName: "Second", CreatedAt: time.Now().Add(-1 * time.Hour)})

	results, err := s.store.ListRecent(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(second.ID, results[0].ID)
}
