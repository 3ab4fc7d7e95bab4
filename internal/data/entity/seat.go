package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Grid layout shared by every show.
var SeatRows = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

const SeatsPerRow = 12

// gridNamespace scopes the name-based UUIDs used as grid ids.
var gridNamespace = uuid.MustParse("5b0c7a8e-3f5d-4c1e-9a47-2f6d1e8b9c30")

// ShowKey identifies one seat grid: an item at a showtime on a date.
type ShowKey struct {
	ItemID   uuid.UUID
	Showtime string
	ShowDate string // YYYY-MM-DD
}

// GridID is deterministic for a given triple so concurrent creators collide
// on the same primary key instead of producing two grids.
func (k ShowKey) GridID() uuid.UUID {
	name := k.ItemID.String() + "|" + k.Showtime + "|" + k.ShowDate
	return uuid.NewSHA1(gridNamespace, []byte(name))
}

func (k ShowKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ItemID, k.Showtime, k.ShowDate)
}

// SeatRef names a seat inside a grid, e.g. A1.
type SeatRef struct {
	Row        string `json:"row"`
	SeatNumber int    `json:"seat_number"`
}

func (r SeatRef) ID() string {
	return r.Row + strconv.Itoa(r.SeatNumber)
}

// ParseSeatRef parses "A1".."H12" (case-insensitive) and rejects anything
// outside the grid layout.
func ParseSeatRef(id string) (SeatRef, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) < 2 {
		return SeatRef{}, fmt.Errorf("invalid seat %q", id)
	}

	row := id[:1]
	if !isGridRow(row) {
		return SeatRef{}, fmt.Errorf("invalid seat row in %q", id)
	}

	number, err := strconv.Atoi(id[1:])
	if err != nil || number < 1 || number > SeatsPerRow {
		return SeatRef{}, fmt.Errorf("invalid seat number in %q", id)
	}

	return SeatRef{Row: row, SeatNumber: number}, nil
}

func isGridRow(row string) bool {
	for _, r := range SeatRows {
		if r == row {
			return true
		}
	}
	return false
}

type Seat struct {
	BaseNoDelete
	GridID     uuid.UUID  `db:"grid_id"`
	ItemID     uuid.UUID  `db:"item_id"`
	Showtime   string     `db:"showtime"`
	ShowDate   string     `db:"show_date"`
	Row        string     `db:"seat_row"`
	SeatNumber int        `db:"seat_number"`
	IsBooked   bool       `db:"is_booked"`
	BookedBy   *uuid.UUID `db:"booked_by"`
	BookingID  *uuid.UUID `db:"booking_id"`
	BookedAt   *time.Time `db:"booked_at"`
}

func (s *Seat) Ref() SeatRef {
	return SeatRef{Row: s.Row, SeatNumber: s.SeatNumber}
}

// BuildGrid synthesizes the full free grid for a show.
func BuildGrid(key ShowKey, now time.Time) []*Seat {
	gridID := key.GridID()
	seats := make([]*Seat, 0, len(SeatRows)*SeatsPerRow)
	for _, row := range SeatRows {
		for n := 1; n <= SeatsPerRow; n++ {
			seats = append(seats, &Seat{
				BaseNoDelete: BaseNoDelete{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				GridID:     gridID,
				ItemID:     key.ItemID,
				Showtime:   key.Showtime,
				ShowDate:   key.ShowDate,
				Row:        row,
				SeatNumber: n,
			})
		}
	}
	return seats
}
