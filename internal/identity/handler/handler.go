// Package handler exposes the resolution engine over HTTP for the
// conversation platform's tools.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinid/internal/identity/models"
	"clinid/internal/identity/service"
	id "clinid/pkg/domain"
	dErrors "clinid/pkg/domain-errors"
	"clinid/pkg/platform/httputil"
	"clinid/pkg/requestcontext"
)

// Resolver is the service surface the handler depends on.
type Resolver interface {
	ResolveFromText(ctx context.Context, sessionID id.SessionID, text string) (*service.ResolveResult, error)
	SearchPatients(ctx context.Context, criteria models.SearchCriteria, limit int) (*service.SearchResult, error)
	GetPatientByID(ctx context.Context, patientID id.PatientID) (*service.GetResult, error)
	ListRecent(ctx context.Context, limit int) ([]models.Patient, error)
	CurrentIdentity(sessionID id.SessionID) (*models.SessionIdentity, bool)
	ClearSessionIdentity(ctx context.Context, sessionID id.SessionID)
}

// Handler wires identity endpoints to the resolver service.
type Handler struct {
	service Resolver
	logger  *slog.Logger
}

// New constructs an identity handler.
func New(service Resolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/resolve", h.HandleResolve)
	r.Post("/patients/search", h.HandleSearch)
	r.Get("/patients/recent", h.HandleListRecent)
	r.Get("/patients/{id}", h.HandleGetPatient)
	r.Get("/sessions/{id}/identity", h.HandleGetSessionIdentity)
	r.Delete("/sessions/{id}/identity", h.HandleClearSessionIdentity)
}

type resolveRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// HandleResolve handles POST /v1/identity/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Text == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "text is required"))
		return
	}
	sessionID, err := id.ParseSessionID(req.SessionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return
	}
	ctx = requestcontext.WithSessionID(ctx, sessionID)

	result, err := h.service.ResolveFromText(ctx, sessionID, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "resolution completed",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
		"resolved", result.Resolved,
		"candidates_considered", result.CandidatesConsidered,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type searchRequest struct {
	models.SearchCriteria
	Limit int `json:"limit,omitempty"`
}

// HandleSearch handles POST /v1/patients/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SearchPatients(ctx, req.SearchCriteria, req.Limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "patient search completed",
		"request_id", requestcontext.RequestID(ctx),
		"criteria_used", result.CriteriaUsed,
		"total_results", result.TotalResults,
		"execution_time_ms", result.ExecutionTimeMS,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGetPatient handles GET /v1/patients/{id}. A missing patient is a
// 200 with found=false, matching the resolver's "absence is an answer"
// contract.
func (h *Handler) HandleGetPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid patient id"))
		return
	}

	result, err := h.service.GetPatientByID(r.Context(), patientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleListRecent handles GET /v1/patients/recent.
func (h *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}

	patients, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

// HandleGetSessionIdentity handles GET /v1/sessions/{id}/identity.
func (h *Handler) HandleGetSessionIdentity(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return
	}

	identity, ok := h.service.CurrentIdentity(sessionID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "session has no bound identity"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// HandleClearSessionIdentity handles DELETE /v1/sessions/{id}/identity.
// Clearing an unbound session still succeeds.
func (h *Handler) HandleClearSessionIdentity(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return
	}

	h.service.ClearSessionIdentity(r.Context(), sessionID)
	w.WriteHeader(http.StatusNoContent)
}
