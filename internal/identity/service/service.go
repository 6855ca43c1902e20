// Package service orchestrates identity resolution: free-text extraction,
// cache-first lookups against the backing patient store, structured search,
// and session identity binding.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"clinid/internal/identity/cache"
	"clinid/internal/identity/extract"
	"clinid/internal/identity/metrics"
	"clinid/internal/identity/models"
	"clinid/internal/identity/session"
	"clinid/internal/identity/store"
	id "clinid/pkg/domain"
	dErrors "clinid/pkg/domain-errors"
	"clinid/pkg/platform/audit"
	"clinid/pkg/platform/sentinel"
	"clinid/pkg/requestcontext"
)

// Store failures wrapping sentinel.ErrUnavailable are retried this many
// times before the outage is surfaced.
const (
	maxStoreRetries   = 2
	retryBaseInterval = 50 * time.Millisecond
)

// AuditPublisher decouples the service from the audit pipeline.
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

// Service is the resolution engine. Dependencies are injected so tests can
// construct isolated instances; there is no process-wide state.
type Service struct {
	store    store.PatientStore
	cache    cache.ResolutionCache
	sessions *session.Manager

	logger       *slog.Logger
	publisher    AuditPublisher
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	storeTimeout time.Duration

	// lookups collapses concurrent misses on the same cache key into one
	// store query.
	lookups singleflight.Group
}

// Option configures optional service dependencies.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.storeTimeout = d }
}

// New constructs a Service.
func New(patients store.PatientStore, resolutionCache cache.ResolutionCache, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		store:        patients,
		cache:        resolutionCache,
		sessions:     sessions,
		logger:       slog.Default(),
		tracer:       otel.Tracer("clinid/identity"),
		storeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveResult reports the outcome of one free-text resolution attempt.
type ResolveResult struct {
	Resolved             bool                    `json:"resolved"`
	Context              *models.SessionIdentity `json:"context,omitempty"`
	CandidatesConsidered int                     `json:"candidates_considered"`
}

// ResolveFromText extracts identifier candidates from free text and tries
// them most-confident first, cache before store. The first candidate that
// resolves to a patient wins and is bound to the session. Finding nobody is
// a normal outcome, not an error; only store outages fail the call.
func (s *Service) ResolveFromText(ctx context.Context, sessionID id.SessionID, text string) (*ResolveResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.ResolveFromText")
	defer span.End()

	candidates := extract.Dedupe(extract.Extract(text))
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	s.metrics.ObserveCandidates(len(candidates))

	result := &ResolveResult{CandidatesConsidered: len(candidates)}
	if len(candidates) == 0 {
		s.metrics.IncrementResolution("no_candidates")
		return result, nil
	}

	for _, c := range candidates {
		p, err := s.lookupCandidate(ctx, c)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			s.metrics.IncrementResolution("error")
			return nil, s.translateStoreErr(err, "patient lookup failed")
		}

		identity, changed := s.sessions.Bind(ctx, sessionID, p, c.Value, c.Type, c.Confidence)
		result.Resolved = true
		result.Context = &identity

		s.metrics.IncrementResolution("resolved")
		if changed {
			s.metrics.IncrementSessionBinding("bound")
		} else {
			s.metrics.IncrementSessionBinding("rebound")
		}
		span.SetAttributes(
			attribute.String("identifier.type", string(c.Type)),
			attribute.Bool("session.identity_changed", changed),
		)
		s.audit(ctx, audit.Event{
			Category:       audit.CategoryCompliance,
			Action:         audit.ActionIdentityResolved,
			SessionID:      sessionID.String(),
			SubjectHash:    audit.HashSubject(c.Value),
			IdentifierType: string(c.Type),
			Outcome:        "resolved",
		})
		if changed {
			s.audit(ctx, audit.Event{
				Category:       audit.CategoryCompliance,
				Action:         audit.ActionIdentityBound,
				SessionID:      sessionID.String(),
				SubjectHash:    audit.HashSubject(c.Value),
				IdentifierType: string(c.Type),
				Outcome:        "bound",
			})
		}
		return result, nil
	}

	s.metrics.IncrementResolution("not_found")
	s.audit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    audit.ActionIdentityResolved,
		SessionID: sessionID.String(),
		Outcome:   "no_match",
	})
	return result, nil
}

// lookupCandidate resolves one candidate: cache first, then the backing
// store under singleflight so concurrent sessions chasing the same
// identifier share a single query.
func (s *Service) lookupCandidate(ctx context.Context, c models.Candidate) (*models.Patient, error) {
	if p, ok := s.cache.Get(ctx, c.Type, c.Value); ok {
		s.metrics.IncrementCacheLookup("hit")
		return p, nil
	}
	s.metrics.IncrementCacheLookup("miss")

	v, err, _ := s.lookups.Do(c.Key(), func() (any, error) {
		start := time.Now()
		p, err := s.queryStore(ctx, c)
		s.metrics.ObserveStoreLatency(string(c.Type), time.Since(start))
		if err != nil {
			return nil, err
		}
		s.cache.Put(ctx, c.Type, c.Value, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Patient), nil
}

func (s *Service) queryStore(ctx context.Context, c models.Candidate) (*models.Patient, error) {
	var p *models.Patient
	err := s.withRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		var err error
		switch c.Type {
		case models.IdentifierNationalID:
			p, err = s.store.FindByNationalID(ctx, c.Value)
		case models.IdentifierRecordID:
			var patientID id.PatientID
			patientID, err = id.ParsePatientID(c.Value)
			if err != nil {
				return sentinel.ErrNotFound
			}
			p, err = s.store.FindByID(ctx, patientID)
		case models.IdentifierPhone:
			p, err = s.store.FindByPhone(ctx, c.Value)
		case models.IdentifierEmail:
			p, err = s.store.FindByEmail(ctx, c.Value)
		case models.IdentifierName:
			var matches []models.Patient
			matches, err = s.store.FindByName(ctx, c.Value, 1)
			if err == nil {
				if len(matches) == 0 {
					return sentinel.ErrNotFound
				}
				p = &matches[0]
			}
		default:
			return sentinel.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SearchResult reports a structured search plus the observability fields
// every search entry point must carry.
type SearchResult struct {
	Patients        []models.Patient `json:"patients"`
	CriteriaUsed    []string         `json:"criteria_used"`
	TotalResults    int              `json:"total_results"`
	ExecutionTimeMS int64            `json:"execution_time_ms"`
}

// SearchPatients runs a ranked multi-criteria search. Validation happens
// before any store access; zero matches is a success with an empty list.
func (s *Service) SearchPatients(ctx context.Context, criteria models.SearchCriteria, limit int) (*SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.SearchPatients")
	defer span.End()

	criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	limit, err := models.ValidateSearchLimit(limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var patients []models.Patient
	err = s.withRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		var err error
		patients, err = s.store.Search(ctx, criteria, limit)
		return err
	})
	elapsed := time.Since(start)
	s.metrics.ObserveSearchLatency(elapsed)
	if err != nil {
		return nil, s.translateStoreErr(err, "patient search failed")
	}

	used := criteria.Used()
	span.SetAttributes(
		attribute.StringSlice("search.criteria", used),
		attribute.Int("search.results", len(patients)),
	)
	s.audit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    audit.ActionPatientSearch,
		SessionID: sessionIDForAudit(ctx),
		Outcome:   outcomeForCount(len(patients)),
	})

	if patients == nil {
		patients = []models.Patient{}
	}
	return &SearchResult{
		Patients:        patients,
		CriteriaUsed:    used,
		TotalResults:    len(patients),
		ExecutionTimeMS: elapsed.Milliseconds(),
	}, nil
}

// GetResult wraps a single-record lookup where absence is a valid answer.
type GetResult struct {
	Patient *models.Patient `json:"patient,omitempty"`
	Found   bool            `json:"found"`
}

// GetPatientByID fetches one record. A missing record is reported through
// Found, not as an error.
func (s *Service) GetPatientByID(ctx context.Context, patientID id.PatientID) (*GetResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.GetPatientByID")
	defer span.End()

	var p *models.Patient
	err := s.withRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		var err error
		p, err = s.store.FindByID(ctx, patientID)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &GetResult{Found: false}, nil
		}
		return nil, s.translateStoreErr(err, "patient lookup failed")
	}
	return &GetResult{Patient: p, Found: true}, nil
}

// ListRecent returns the most recently registered patients.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.Patient, error) {
	ctx, span := s.tracer.Start(ctx, "identity.ListRecent")
	defer span.End()

	limit, err := models.ValidateSearchLimit(limit)
	if err != nil {
		return nil, err
	}

	var patients []models.Patient
	err = s.withRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		var err error
		patients, err = s.store.ListRecent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, s.translateStoreErr(err, "recent patients lookup failed")
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	return patients, nil
}

// CurrentIdentity returns the identity bound to the session, if any.
func (s *Service) CurrentIdentity(sessionID id.SessionID) (*models.SessionIdentity, bool) {
	return s.sessions.Current(sessionID)
}

// ClearSessionIdentity unbinds the session's identity. Clearing an empty
// session is a no-op.
func (s *Service) ClearSessionIdentity(ctx context.Context, sessionID id.SessionID) {
	if s.sessions.Clear(sessionID) {
		s.metrics.IncrementSessionBinding("cleared")
		s.audit(ctx, audit.Event{
			Category:  audit.CategoryCompliance,
			Action:    audit.ActionSessionCleared,
			SessionID: sessionID.String(),
			Outcome:   "cleared",
		})
	}
}

// withRetry runs op, retrying only transient store outages with exponential
// backoff. Validation failures and not-found are never retried.
func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil || !errors.Is(err, sentinel.ErrUnavailable) || attempt == maxStoreRetries {
			return err
		}
		backoff := retryBaseInterval << attempt
		s.logger.WarnContext(ctx, "store unavailable, retrying",
			"attempt", attempt+1, "backoff", backoff.String(), "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return err
		}
	}
}

// translateStoreErr maps sentinel store errors to the caller-facing error
// taxonomy without leaking store internals.
func (s *Service) translateStoreErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "service temporarily unavailable")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	s.publisher.Publish(ctx, event)
}

func outcomeForCount(n int) string {
	if n == 0 {
		return "empty"
	}
	return "matched"
}

// sessionIDForAudit renders the context session id for the audit trail.
// Sessionless calls record an empty field, never the zero UUID.
func sessionIDForAudit(ctx context.Context) string {
	sid := requestcontext.SessionID(ctx)
	if sid.IsNil() {
		return ""
	}
	return sid.String()
}
