package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quantract/certledger/internal/model"
)

var (
	// ErrNotFound is the single answer for unknown, foreign-tenant and (on the
	// public path) not-issued certificates.
	ErrNotFound = errors.New("certificate not found")
	// ErrConflict is a storage-level uniqueness violation. Issuance retries it;
	// callers only see it wrapped in a ConflictError.
	ErrConflict           = errors.New("conflicting write")
	ErrInvalidState       = errors.New("certificate is not in a valid state for this operation")
	ErrStorageUnavailable = errors.New("artifact storage unavailable")
	// ErrUnavailable means a missing artifact could not be regenerated.
	ErrUnavailable       = errors.New("certificate artifact unavailable")
	ErrImmutableRevision = model.ErrImmutableRevision
	ErrNoToken           = errors.New("certificate has no verification token")
	ErrAlreadyRevoked    = errors.New("verification is already revoked")
	ErrNotRevoked        = errors.New("verification is not revoked")
	ErrReasonRequired    = errors.New("revocation reason is required")
	// ErrInvalidContent wraps a body or attachment list that does not decode
	// into the certificate type's schema.
	ErrInvalidContent = errors.New("invalid certificate content")
)

// ValidationError lists the fields that block completion or issuance. Cause
// is set when the stored draft could not be decoded at all.
type ValidationError struct {
	Missing []string
	Cause   error
}

func (e *ValidationError) Error() string {
	msg := "certificate is not ready: missing " + strings.Join(e.Missing, ", ")
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// undecodable reports a stored draft whose body no longer decodes.
func (s *Service) undecodable(cert *model.Certificate, err error) *ValidationError {
	s.logger.Errorw("Stored certificate draft does not decode", "certificateId", cert.ID, "type", cert.Type, "error", err)
	return &ValidationError{Missing: []string{"body"}, Cause: err}
}

// ConflictError is returned when issuance kept colliding with concurrent
// writers. It is transient: the caller may try again.
type ConflictError struct {
	Attempts int
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("issuance conflicted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RevokedError gates the public read path of a revoked certificate.
type RevokedError struct {
	Reason string
}

func (e *RevokedError) Error() string {
	return "certificate verification revoked: " + e.Reason
}

type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render certificate: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }
