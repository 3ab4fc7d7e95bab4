package adaptor

import (
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewSeatHandler(service usecase.SeatService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// GetSeatMap handles GET /api/items/{id}/seats?showtime=&date=
func (h *SeatHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ShowRequest{
		Showtime: query.Get("showtime"),
		ShowDate: query.Get("date"),
	}

	seatMap, err := h.service.GetSeatMap(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", seatMap)
}

// CheckAvailability handles POST /api/items/{id}/seats/availability
func (h *SeatHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req request.AvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "check availability")
		return
	}

	if !result.Available {
		utils.ResponseConflict(w, "Some selected seats are no longer available", result)
		return
	}
	utils.ResponseSuccess(w, "Seats available", result)
}
