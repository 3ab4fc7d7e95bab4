package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
		r.Get("/api/user/bookings/{id}", bookingHandler.GetBooking)

		// Writes that touch seats are throttled per user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(config.RateLimit, log))

			r.Post("/api/checkout", bookingHandler.Checkout)
			r.Post("/api/bookings/{id}/payment", bookingHandler.CompletePayment)
		})
	})
}
