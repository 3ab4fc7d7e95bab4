package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	Reference     string               `json:"booking_reference"`
	ItemID        string               `json:"item_id"`
	Title         string               `json:"title"`
	PosterURL     *string              `json:"poster_url,omitempty"`
	Showtime      string               `json:"showtime"`
	ShowDate      string               `json:"show_date"`
	Seats         []string             `json:"seats"`
	TotalAmount   float64              `json:"total_amount"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	PaymentID     *string              `json:"payment_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	ConfirmedAt   *time.Time           `json:"confirmed_at,omitempty"`
}

// PaymentIntent is what the client hands to the payment widget.
type PaymentIntent struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Mode        string `json:"mode"`
}

type CheckoutResponse struct {
	BookingID   string        `json:"booking_id"`
	Reference   string        `json:"booking_reference"`
	TotalAmount float64       `json:"total_amount"`
	Payment     PaymentIntent `json:"payment"`
}

type ReceiptResponse struct {
	BookingID   string    `json:"booking_id"`
	Reference   string    `json:"booking_reference"`
	Title       string    `json:"title"`
	Showtime    string    `json:"showtime"`
	ShowDate    string    `json:"show_date"`
	Seats       []string  `json:"seats"`
	TotalAmount float64   `json:"total_amount"`
	PaymentID   string    `json:"payment_id"`
	PaymentMode string    `json:"payment_mode"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PaymentResultResponse carries a receipt on success and the untouched
// pending booking when the buyer dismissed the payment widget.
type PaymentResultResponse struct {
	Outcome string           `json:"outcome"`
	Receipt *ReceiptResponse `json:"receipt,omitempty"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

func SeatIDs(seats []entity.SeatRef) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID()
	}
	return ids
}

func BookingToResponse(booking *entity.Booking, item *entity.Item) BookingResponse {
	resp := BookingResponse{
		ID:            booking.ID.String(),
		Reference:     booking.Reference,
		ItemID:        booking.ItemID.String(),
		Title:         booking.Title,
		Showtime:      booking.Showtime,
		ShowDate:      booking.ShowDate,
		Seats:         SeatIDs(booking.Seats),
		TotalAmount:   booking.TotalAmount,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		PaymentID:     booking.PaymentID,
		CreatedAt:     booking.CreatedAt,
		ConfirmedAt:   booking.ConfirmedAt,
	}
	if item != nil {
		resp.PosterURL = item.PosterURL
	}
	return resp
}
