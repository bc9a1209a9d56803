package service

import (
	"errors"
	"fmt"

	"artx/internal/models"
	"artx/internal/store"
)

// Kind classifies engine failures for callers.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindIO           Kind = "io"
	KindInternal     Kind = "internal"
)

// Error is the typed failure returned by every service operation.
type Error struct {
	Kind Kind
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func makeError(kind Kind, code int, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}

	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}

	if code == 0 {
		code = defaultErrorCodeByKind(kind)
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

func validation(err error) error {
	return validationCode(err, ErrCodeInvalidArgument)
}

func validationCode(err error, code int) error {
	return makeError(KindValidation, code, err)
}

func notFoundCode(err error, code int) error {
	return makeError(KindNotFound, code, err)
}

func conflictCode(err error, code int) error {
	return makeError(KindConflict, code, err)
}

func unauthorized(err error) error {
	return makeError(KindUnauthorized, ErrCodeUnauthorized, err)
}

func internalError(err error) error {
	return makeError(KindInternal, ErrCodeInternal, err)
}

// storeFailure classifies an error coming back from the store layer.
func storeFailure(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return makeError(KindIO, ErrCodeStoreFailure, err)
}

// modelFailure maps model invariants onto service kinds.
func modelFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrAlreadyMinted):
		return conflictCode(err, ErrCodeAlreadyMinted)
	case errors.Is(err, models.ErrFrozen):
		return validationCode(err, ErrCodeFrozen)
	case errors.Is(err, models.ErrInvalidEditions):
		return validationCode(err, ErrCodeInvalidEditions)
	default:
		return validation(err)
	}
}

func assetNotFound(xid string) error {
	return notFoundCode(fmt.Errorf("asset not found: %s", xid), ErrCodeAssetNotFound)
}

func agentNotFound(id string) error {
	return notFoundCode(fmt.Errorf("agent not found: %s", id), ErrCodeAgentNotFound)
}

// KindOf returns the classification of err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	if errors.Is(err, store.ErrNotFound) {
		return KindNotFound
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the numeric code attached to err, or 0.
func CodeOf(err error) int {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return 0
}
