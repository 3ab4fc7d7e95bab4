package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type ShowtimeResponse struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type ItemResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Category    entity.Category    `json:"category"`
	Genres      []string           `json:"genres"`
	Duration    int                `json:"duration"`
	Rating      float64            `json:"rating"`
	PosterURL   *string            `json:"poster_url,omitempty"`
	Venue       *string            `json:"venue,omitempty"`
	Language    *string            `json:"language,omitempty"`
	Year        *string            `json:"year,omitempty"`
	Showtimes   []ShowtimeResponse `json:"showtimes"`
	CreatedAt   time.Time          `json:"created_at"`
}

func ItemToResponse(item *entity.Item) ItemResponse {
	showtimes := make([]ShowtimeResponse, len(item.Showtimes))
	for i, st := range item.Showtimes {
		showtimes[i] = ShowtimeResponse{Time: st.Time, Price: st.Price}
	}

	genres := item.Genres
	if genres == nil {
		genres = []string{}
	}

	return ItemResponse{
		ID:          item.ID.String(),
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Genres:      genres,
		Duration:    item.Duration,
		Rating:      item.Rating,
		PosterURL:   item.PosterURL,
		Venue:       item.Venue,
		Language:    item.Language,
		Year:        item.Year,
		Showtimes:   showtimes,
		CreatedAt:   item.CreatedAt,
	}
}
