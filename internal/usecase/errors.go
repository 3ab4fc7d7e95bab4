package usecase

import (
	"errors"
	"fmt"
	"strings"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"
)

var (
	// retryable
	ErrStoreUnavailable     = errors.New("booking store unavailable")
	ErrClaimAborted         = errors.New("booking confirmation failed, please select seats again")
	ErrSubmissionInProgress = errors.New("a submission for this selection is already in progress")

	// terminal for the current flow
	ErrItemNotFound      = errors.New("item not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrSeatsUnavailable  = errors.New("selected seats are no longer available")
	ErrBookingNotPending = errors.New("booking is not pending")
	ErrBookingForbidden  = errors.New("booking belongs to another user")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrPaymentRejected   = errors.New("payment was rejected by the gateway")

	// validation
	ErrValidation         = errors.New("validation failed")
	ErrNoSeatsSelected    = errors.New("no seats selected")
	ErrInvalidSeat        = errors.New("invalid seat")
	ErrUnknownShowtime    = errors.New("showtime is not offered for this item")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
)

// ConflictError lists the selected seats found booked during a pre-checkout
// re-check. It matches ErrSeatsUnavailable with errors.Is.
type ConflictError struct {
	Seats []entity.SeatRef
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		ids[i] = s.ID()
	}
	return fmt.Sprintf("%s: %s", ErrSeatsUnavailable, strings.Join(ids, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrSeatsUnavailable
}

// ValidationError carries field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(utils.FormatValidationErrors(e.Fields))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRetryable reports whether the user can resubmit the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrClaimAborted) ||
		errors.Is(err, ErrSubmissionInProgress) ||
		errors.Is(err, ErrPaymentFailed) ||
		errors.Is(err, ErrPaymentRejected)
}

func asConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
