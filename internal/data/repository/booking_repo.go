package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Confirm books every claimed seat and flips the booking to confirmed in
	// one serializable transaction. Nothing is written unless all of it is.
	Confirm(ctx context.Context, claim *entity.SeatClaim) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingSelect = `
	SELECT id, booking_reference, user_id, item_id, title, showtime, show_date,
	       seats, total_amount, status, payment_status, payment_id,
	       created_at, updated_at, confirmed_at
	FROM bookings
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	seats, err := json.Marshal(booking.Seats)
	if err != nil {
		return fmt.Errorf("encode booking seats: %w", err)
	}

	query := `
		INSERT INTO bookings (id, booking_reference, user_id, item_id, title, showtime, show_date,
		                      seats, total_amount, status, payment_status, payment_id,
		                      created_at, updated_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.UserID,
		booking.ItemID,
		booking.Title,
		booking.Showtime,
		booking.ShowDate,
		seats,
		booking.TotalAmount,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentID,
		booking.CreatedAt,
		booking.UpdatedAt,
		booking.ConfirmedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}

	return booking, nil
}

// FindByUserID lists a user's bookings, newest first.
func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := bookingSelect + `
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.log.Error("Database error counting bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings for user %s: %w", userID, err)
	}

	return count, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, claim *entity.SeatClaim) error {
	err := r.confirm(ctx, claim)
	if err != nil {
		err = mapTxError(err)
		r.log.Warn("Seat claim rolled back",
			zap.Error(err),
			zap.String("booking_id", claim.BookingID.String()),
			zap.String("show", claim.Show.String()),
		)
		return err
	}

	r.log.Info("Seat claim committed",
		zap.String("booking_id", claim.BookingID.String()),
		zap.Int("seats", len(claim.Seats)),
	)
	return nil
}

func (r *bookingRepository) confirm(ctx context.Context, claim *entity.SeatClaim) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, payment_status = $3, payment_id = $4,
		    confirmed_at = $5, updated_at = $5
		WHERE id = $1 AND status = $6
	`, claim.BookingID,
		entity.BookingStatusConfirmed,
		entity.PaymentStatusCompleted,
		claim.PaymentID,
		claim.ClaimedAt,
		entity.BookingStatusPending,
	)
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", claim.BookingID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotPending
	}

	for _, seat := range claim.Seats {
		tag, err := tx.Exec(ctx, `
			UPDATE seats
			SET is_booked = TRUE, booked_by = $6, booking_id = $7,
			    booked_at = $8, updated_at = $8
			WHERE item_id = $1 AND showtime = $2 AND show_date = $3
			  AND seat_row = $4 AND seat_number = $5
			  AND is_booked = FALSE
		`, claim.Show.ItemID,
			claim.Show.Showtime,
			claim.Show.ShowDate,
			seat.Row,
			seat.SeatNumber,
			claim.UserID,
			claim.BookingID,
			claim.ClaimedAt,
		)
		if err != nil {
			return fmt.Errorf("book seat %s: %w", seat.ID(), err)
		}
		if tag.RowsAffected() == 0 {
			return &SeatTakenError{Seat: seat}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var (
		booking entity.Booking
		seats   []byte
	)
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.UserID,
		&booking.ItemID,
		&booking.Title,
		&booking.Showtime,
		&booking.ShowDate,
		&seats,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(seats, &booking.Seats); err != nil {
		return nil, fmt.Errorf("decode booking seats: %w", err)
	}
	return &booking, nil
}
