package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinid/internal/identity/models"
	id "clinid/pkg/domain"
	pstrings "clinid/pkg/platform/strings"
	"clinid/pkg/platform/sentinel"
	"clinid/pkg/requestcontext"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const patientColumns = "id, full_name, national_id, phone, email, date_of_birth, created_at, updated_at"

// Postgres persists patients in PostgreSQL. Identifier fields are stored
// normalized (digits-only national id and phone, lowercase email) so the
// exact-match lookups stay index-friendly.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. The caller owns the pool lifecycle.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Connect builds a pgx pool with the project's pool settings and verifies
// connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies pending schema migrations in lexical order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[version] = true
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if applied[name] {
			continue
		}
		sql, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters so a name criterion matches
// by literal substring containment.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// wrapQueryErr classifies infrastructure failures as unavailable so the
// service layer can retry them, without leaking pgx internals.
func wrapQueryErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrUnavailable)
}

func (s *Postgres) Create(ctx context.Context, p *models.Patient) error {
	record := *p
	if record.ID.IsNil() {
		record.ID = id.NewPatientID()
	}
	now := requestcontext.Now(ctx)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO patients (id, full_name, national_id, phone, email, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)`,
		record.ID.String(),
		record.FullName,
		pstrings.Digits(record.NationalID),
		pstrings.Digits(record.Phone),
		pstrings.NormalizeKey(record.Email),
		record.DateOfBirth,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return wrapQueryErr("create patient", err)
	}
	*p = record
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	return s.findOne(ctx, "find by id",
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, patientID.String())
}

func (s *Postgres) FindByNationalID(ctx context.Context, value string) (*models.Patient, error) {
	return s.findOne(ctx, "find by national id",
		`SELECT `+patientColumns+` FROM patients WHERE national_id = $1`, pstrings.Digits(value))
}

func (s *Postgres) FindByEmail(ctx context.Context, value string) (*models.Patient, error) {
	return s.findOne(ctx, "find by email",
		`SELECT `+patientColumns+` FROM patients WHERE email = $1`, pstrings.NormalizeKey(value))
}

func (s *Postgres) FindByPhone(ctx context.Context, value string) (*models.Patient, error) {
	return s.findOne(ctx, "find by phone",
		`SELECT `+patientColumns+` FROM patients WHERE phone = $1`, pstrings.Digits(value))
}

func (s *Postgres) findOne(ctx context.Context, op, query string, arg any) (*models.Patient, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
		return nil, wrapQueryErr(op, err)
	}
	return p, nil
}

func (s *Postgres) FindByName(ctx context.Context, substring string, limit int) ([]models.Patient, error) {
	return s.Search(ctx, models.SearchCriteria{Name: pstrings.CollapseSpaces(substring)}, limit)
}

// Search builds one statement combining every supplied criterion with AND
// and ranking matches most-to-least specific, mirroring models.Rank.
func (s *Postgres) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.Patient, error) {
	var (
		conds     []string
		rankCases []string
		args      []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if criteria.NationalID != "" {
		ph := arg(criteria.NationalID)
		conds = append(conds, "national_id = "+ph)
		rankCases = append(rankCases, fmt.Sprintf("WHEN national_id = %s THEN %d", ph, models.RankNationalID))
	}
	if criteria.Email != "" {
		ph := arg(criteria.Email)
		conds = append(conds, "email = "+ph)
		rankCases = append(rankCases, fmt.Sprintf("WHEN email = %s THEN %d", ph, models.RankEmail))
	}
	if criteria.Phone != "" {
		ph := arg(criteria.Phone)
		conds = append(conds, "phone = "+ph)
		rankCases = append(rankCases, fmt.Sprintf("WHEN phone = %s THEN %d", ph, models.RankPhone))
	}
	if criteria.Name != "" {
		name := strings.ToLower(criteria.Name)
		// Equality compares the raw value; LIKE needs metacharacters
		// escaped so the criterion matches literally, as the memory store
		// does.
		phExact := arg(name)
		phLike := arg(escapeLike(name))
		conds = append(conds, fmt.Sprintf(`LOWER(full_name) LIKE '%%' || %s || '%%' ESCAPE '\'`, phLike))
		rankCases = append(rankCases,
			fmt.Sprintf("WHEN LOWER(full_name) = %s THEN %d", phExact, models.RankNameExact),
			fmt.Sprintf(`WHEN LOWER(full_name) LIKE %s || '%%' ESCAPE '\' THEN %d`, phLike, models.RankNamePrefix),
			fmt.Sprintf(`WHEN LOWER(full_name) LIKE '%%' || %s || '%%' ESCAPE '\' THEN %d`, phLike, models.RankNameContains),
		)
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("search without criteria: %w", sentinel.ErrInvalidState)
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       CASE %s ELSE %d END AS match_rank
		FROM patients
		WHERE %s
		ORDER BY match_rank ASC, LOWER(full_name) ASC
		LIMIT %s`,
		patientColumns,
		strings.Join(rankCases, " "),
		models.RankNoMatch,
		strings.Join(conds, " AND "),
		arg(limit),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryErr("search patients", err)
	}
	defer rows.Close()

	var out []models.Patient
	for rows.Next() {
		var rank int
		p, err := scanPatientRank(rows, &rank)
		if err != nil {
			return nil, wrapQueryErr("scan search result", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("search patients", err)
	}
	return out, nil
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]models.Patient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY created_at DESC, LOWER(full_name) ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, wrapQueryErr("list recent patients", err)
	}
	defer rows.Close()

	var out []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, wrapQueryErr("scan recent patient", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("list recent patients", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p          models.Patient
		rawID      string
		nationalID *string
		phone      *string
		email      *string
	)
	if err := row.Scan(&rawID, &p.FullName, &nationalID, &phone, &email,
		&p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return finishPatient(&p, rawID, nationalID, phone, email)
}

func scanPatientRank(row rowScanner, rank *int) (*models.Patient, error) {
	var (
		p          models.Patient
		rawID      string
		nationalID *string
		phone      *string
		email      *string
	)
	if err := row.Scan(&rawID, &p.FullName, &nationalID, &phone, &email,
		&p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt, rank); err != nil {
		return nil, err
	}
	return finishPatient(&p, rawID, nationalID, phone, email)
}

func finishPatient(p *models.Patient, rawID string, nationalID, phone, email *string) (*models.Patient, error) {
	parsed, err := id.ParsePatientID(rawID)
	if err != nil {
		return nil, err
	}
	p.ID = parsed
	if nationalID != nil {
		p.NationalID = *nationalID
	}
	if phone != nil {
		p.Phone = *phone
	}
	if email != nil {
		p.Email = *email
	}
	return p, nil
}
