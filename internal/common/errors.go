package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Base categories. Handlers map these to HTTP status codes; everything more
// specific wraps one of them so errors.Is works on both levels.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("external service unavailable")
	ErrInternalServer     = errors.New("internal server error")
)

// Execution errors. ErrSubmissionFailed covers the submit call to the judge;
// ErrExecutionFailed covers transport failures while polling. A poll loop that
// runs out of attempts is not an error: the last snapshot is returned as-is.
var (
	ErrUnsupportedLanguage = fmt.Errorf("unsupported language: %w", ErrValidation)
	ErrSubmissionFailed    = fmt.Errorf("code submission to judge failed: %w", ErrServiceUnavailable)
	ErrExecutionFailed     = fmt.Errorf("failed to get execution result: %w", ErrServiceUnavailable)
)

// Invitation errors.
var (
	ErrSelfInvite          = fmt.Errorf("cannot invite yourself: %w", ErrValidation)
	ErrAlreadyCollaborator = fmt.Errorf("user is already a collaborator: %w", ErrConflict)
	ErrDuplicatePending    = fmt.Errorf("invitation already sent to this email: %w", ErrConflict)
	ErrInvalidOrUsedToken  = fmt.Errorf("invitation token is invalid or already used: %w", ErrBadRequest)
	ErrInvitationExpired   = fmt.Errorf("invitation has expired: %w", ErrBadRequest)
	// The invitation record survives a delivery failure; the next attempt is
	// blocked by the duplicate-pending check, not by a rollback here.
	ErrInviteDelivery = fmt.Errorf("invitation created but email delivery failed: %w", ErrServiceUnavailable)
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}

	// Unique violations bubbling up from Postgres are conflicts.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
