package entity

type Category string

const (
	CategoryMovies    Category = "movies"
	CategoryShows     Category = "shows"
	CategoryConcerts  Category = "concerts"
	CategorySports    Category = "sports"
	CategoryParks     Category = "parks"
	CategoryFestivals Category = "festivals"
)

// Valid reports whether c is a known catalog category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMovies, CategoryShows, CategoryConcerts, CategorySports, CategoryParks, CategoryFestivals:
		return true
	}
	return false
}

// Showtime is one bookable slot of an item; Price is per seat.
type Showtime struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// Item is anything with a seat map: a movie or an entertainment event.
type Item struct {
	BaseNoDelete
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Category    Category   `db:"category"`
	Genres      []string   `db:"genres"`
	Duration    int        `db:"duration"`
	Rating      float64    `db:"rating"`
	PosterURL   *string    `db:"poster_url"`
	Venue       *string    `db:"venue"`
	Language    *string    `db:"language"`
	Year        *string    `db:"year"`
	Showtimes   []Showtime `db:"showtimes"`
	IsActive    bool       `db:"is_active"`
}

// FindShowtime looks up a showtime by its display time, e.g. "6:00 PM".
func (i *Item) FindShowtime(time string) (Showtime, bool) {
	for _, st := range i.Showtimes {
		if st.Time == time {
			return st, true
		}
	}
	return Showtime{}, false
}
