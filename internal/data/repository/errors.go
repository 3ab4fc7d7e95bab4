package repository

import (
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrBookingNotPending is returned when a claim targets a booking that is
	// missing or already confirmed.
	ErrBookingNotPending = errors.New("booking is not pending")

	// ErrSerialization is returned when Postgres aborts a transaction because
	// it conflicted with a concurrent one.
	ErrSerialization = errors.New("transaction aborted by concurrent update")
)

// SeatTakenError reports the seat whose guarded update matched no free row.
type SeatTakenError struct {
	Seat entity.SeatRef
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s is already booked", e.Seat.ID())
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// mapTxError folds Postgres concurrency failures into ErrSerialization.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
