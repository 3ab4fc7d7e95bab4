package response

import "ticket-booking/internal/data/entity"

type SeatResponse struct {
	ID         string `json:"id"`
	Row        string `json:"row"`
	SeatNumber int    `json:"seat_number"`
	IsBooked   bool   `json:"is_booked"`
}

type SeatRowResponse struct {
	Row   string         `json:"row"`
	Seats []SeatResponse `json:"seats"`
}

type SeatMapResponse struct {
	ItemID    string            `json:"item_id"`
	Title     string            `json:"title"`
	Showtime  string            `json:"showtime"`
	ShowDate  string            `json:"show_date"`
	Price     float64           `json:"price"`
	Total     int               `json:"total"`
	Available int               `json:"available"`
	Rows      []SeatRowResponse `json:"rows"`
}

type AvailabilityResponse struct {
	Available bool     `json:"available"`
	Conflicts []string `json:"conflicts"`
}

// SeatMapToResponse groups a grid by row in layout order. Booker identity is
// never exposed.
func SeatMapToResponse(item *entity.Item, key entity.ShowKey, price float64, seats []*entity.Seat) SeatMapResponse {
	byRow := make(map[string][]SeatResponse, len(entity.SeatRows))
	available := 0
	for _, s := range seats {
		if !s.IsBooked {
			available++
		}
		byRow[s.Row] = append(byRow[s.Row], SeatResponse{
			ID:         s.Ref().ID(),
			Row:        s.Row,
			SeatNumber: s.SeatNumber,
			IsBooked:   s.IsBooked,
		})
	}

	rows := make([]SeatRowResponse, 0, len(entity.SeatRows))
	for _, row := range entity.SeatRows {
		if len(byRow[row]) == 0 {
			continue
		}
		rows = append(rows, SeatRowResponse{Row: row, Seats: byRow[row]})
	}

	return SeatMapResponse{
		ItemID:    item.ID.String(),
		Title:     item.Title,
		Showtime:  key.Showtime,
		ShowDate:  key.ShowDate,
		Price:     price,
		Total:     len(seats),
		Available: available,
		Rows:      rows,
	}
}
