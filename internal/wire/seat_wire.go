package wire

import (
	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSeat(r chi.Router, seatHandler *adaptor.SeatHandler) {
	r.Route("/api/items/{id}/seats", func(r chi.Router) {
		// GET ?showtime=&date= materializes the grid on first access
		r.Get("/", seatHandler.GetSeatMap)
		r.Post("/availability", seatHandler.CheckAvailability)
	})
}
