package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

type Booking struct {
	BaseNoDelete
	Reference     string        `db:"booking_reference"`
	UserID        uuid.UUID     `db:"user_id"`
	ItemID        uuid.UUID     `db:"item_id"`
	Title         string        `db:"title"`
	Showtime      string        `db:"showtime"`
	ShowDate      string        `db:"show_date"`
	Seats         []SeatRef     `db:"seats"`
	TotalAmount   float64       `db:"total_amount"`
	Status        BookingStatus `db:"status"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	PaymentID     *string       `db:"payment_id"`
	ConfirmedAt   *time.Time    `db:"confirmed_at"`
}

func (b *Booking) ShowKey() ShowKey {
	return ShowKey{ItemID: b.ItemID, Showtime: b.Showtime, ShowDate: b.ShowDate}
}

// SeatClaim is everything the claim transaction needs to confirm a booking
// and book its seats in one step.
type SeatClaim struct {
	BookingID uuid.UUID
	PaymentID string
	Seats     []SeatRef
	Show      ShowKey
	UserID    uuid.UUID
	ClaimedAt time.Time
}
