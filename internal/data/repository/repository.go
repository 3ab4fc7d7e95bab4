package repository

import (
	"ticket-booking/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Session SessionRepository
	Item    ItemRepository
	Seat    SeatRepository
	Booking BookingRepository
	Guard   SubmissionGuard
}

// NewRepository wires the Postgres repositories. rdb may be nil, in which
// case submissions are not deduplicated.
func NewRepository(db database.PgxIface, rdb *redis.Client, log *zap.Logger) *Repository {
	var guard SubmissionGuard = NewNoopGuard()
	if rdb != nil {
		guard = NewRedisGuard(rdb, log)
	}

	return &Repository{
		User:    NewUserRepository(db, log),
		Session: NewSessionRepository(db, log),
		Item:    NewItemRepository(db, log),
		Seat:    NewSeatRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Guard:   guard,
	}
}
