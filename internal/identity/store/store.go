// Package store provides the backing patient store consumed by the
// resolver: single-criterion exact lookups, ranked multi-criteria search,
// and recency listing.
//
// Error Contract:
// All store methods follow this pattern:
//   - Single-record lookups return sentinel.ErrNotFound (wrapped) when the
//     record does not exist. Not-found is a factual outcome, never a
//     failure; services translate it, they do not escalate it.
//   - List methods return empty slices, not errors, when nothing matches.
//   - Infrastructure failures wrap sentinel.ErrUnavailable so the service
//     can distinguish retryable outages from not-found.
package store

import (
	"context"

	"clinid/internal/identity/models"
	id "clinid/pkg/domain"
)

// PatientStore is the query interface the resolver depends on.
type PatientStore interface {
	FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	FindByNationalID(ctx context.Context, value string) (*models.Patient, error)
	FindByEmail(ctx context.Context, value string) (*models.Patient, error)
	FindByPhone(ctx context.Context, value string) (*models.Patient, error)
	FindByName(ctx context.Context, substring string, limit int) ([]models.Patient, error)

	// Search combines all non-empty criteria with AND semantics and returns
	// up to limit records ordered most to least specific (see models.Rank),
	// ties broken by full name ascending. Criteria are assumed validated.
	Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.Patient, error)

	// ListRecent returns up to limit records ordered by creation time
	// descending.
	ListRecent(ctx context.Context, limit int) ([]models.Patient, error)
}

// Writer is the mutation side, used by seeding and administration. The
// resolver itself never writes patient records.
type Writer interface {
	Create(ctx context.Context, p *models.Patient) error
}
