package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and blob storage return
// these (optionally wrapped) so services can translate them into coded domain
// errors without depending on driver details.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint refused the write (duplicate phone, slug)
// - ErrInvalidState: entity in wrong lifecycle state for the requested operation
// - ErrUnavailable: store or blob storage temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
