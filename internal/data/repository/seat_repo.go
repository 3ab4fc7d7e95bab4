package repository

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	// FindByShow returns the grid for a show ordered by row and number,
	// or an empty slice when it has not been materialized yet.
	FindByShow(ctx context.Context, key entity.ShowKey) ([]*entity.Seat, error)

	// CreateGrid persists a full grid. It reports false without writing
	// anything when another caller already created the grid for key.
	CreateGrid(ctx context.Context, key entity.ShowKey, seats []*entity.Seat) (bool, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

var seatColumns = []string{
	"id", "grid_id", "item_id", "showtime", "show_date", "seat_row", "seat_number",
	"is_booked", "booked_by", "booking_id", "booked_at", "created_at", "updated_at",
}

func (r *seatRepository) FindByShow(ctx context.Context, key entity.ShowKey) ([]*entity.Seat, error) {
	query := `
		SELECT id, grid_id, item_id, showtime, show_date, seat_row, seat_number,
		       is_booked, booked_by, booking_id, booked_at, created_at, updated_at
		FROM seats
		WHERE item_id = $1 AND showtime = $2 AND show_date = $3
		ORDER BY seat_row, seat_number
	`

	rows, err := r.db.Query(ctx, query, key.ItemID, key.Showtime, key.ShowDate)
	if err != nil {
		r.log.Error("Failed to find seats by show",
			zap.Error(err),
			zap.String("show", key.String()),
		)
		return nil, fmt.Errorf("find seats for %s: %w", key, err)
	}
	defer rows.Close()

	seats := make([]*entity.Seat, 0, len(entity.SeatRows)*entity.SeatsPerRow)
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.GridID,
			&seat.ItemID,
			&seat.Showtime,
			&seat.ShowDate,
			&seat.Row,
			&seat.SeatNumber,
			&seat.IsBooked,
			&seat.BookedBy,
			&seat.BookingID,
			&seat.BookedAt,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate seat rows: %w", err)
	}

	return seats, nil
}

func (r *seatRepository) CreateGrid(ctx context.Context, key entity.ShowKey, seats []*entity.Seat) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin grid tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// the grid row is the lock: its id is derived from the show triple, so a
	// second creator finds the key taken and backs off
	tag, err := tx.Exec(ctx, `
		INSERT INTO seat_grids (id, item_id, showtime, show_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, key.GridID(), key.ItemID, key.Showtime, key.ShowDate, time.Now())
	if err != nil {
		r.log.Error("Failed to insert seat grid",
			zap.Error(err),
			zap.String("show", key.String()),
		)
		return false, fmt.Errorf("insert grid %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	rows := make([][]any, 0, len(seats))
	for _, s := range seats {
		rows = append(rows, []any{
			s.ID, s.GridID, s.ItemID, s.Showtime, s.ShowDate, s.Row, s.SeatNumber,
			s.IsBooked, s.BookedBy, s.BookingID, s.BookedAt, s.CreatedAt, s.UpdatedAt,
		})
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"seats"}, seatColumns, pgx.CopyFromRows(rows))
	if err != nil {
		r.log.Error("Failed to copy seats",
			zap.Error(err),
			zap.String("show", key.String()),
			zap.Int("count", len(seats)),
		)
		return false, fmt.Errorf("copy seats for %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("commit grid %s: %w", key, err)
	}

	r.log.Info("Seat grid created",
		zap.String("show", key.String()),
		zap.Int64("seats", copied),
	)
	return true, nil
}
