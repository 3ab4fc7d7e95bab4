package wire

import (
	"context"
	"net/http"
	"time"

	"ticket-booking/internal/adaptor"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/database"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router
func Wiring(db database.PgxIface, repo *repository.Repository, gateway usecase.PaymentGateway, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, gateway, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, db, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	db database.PgxIface,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS))

	wireAuth(r, handler.Auth, repo, logger)
	wireUser(r, handler.User, repo, logger)
	wireItem(r, handler.Item)
	wireSeat(r, handler.Seat)
	wireBooking(r, handler.Booking, repo, config, logger)

	r.Get("/health", healthCheck(db))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func healthCheck(db database.PgxIface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			utils.ResponseServiceUnavailable(w, "Database unreachable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
