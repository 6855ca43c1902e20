package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Patient stores and caches return
// these (optionally wrapped) so the resolver can translate them into domain
// errors without leaking store internals.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrExpired: credential or entry aged past its lifetime
// - ErrInvalidState: entity in the wrong state for the requested operation
// - ErrUnavailable: store or cache temporarily unreachable (retryable)
//
// For validation errors (bad input, missing criteria), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
