package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticket-booking/internal/dto/response"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Item    *ItemHandler
	Seat    *SeatHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Item:    NewItemHandler(service.Item, log),
		Seat:    NewSeatHandler(service.Seat, log),
		Booking: NewBookingHandler(service.Booking, log),
	}
}

// decodeJSON reads the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

type retryHint struct {
	Retryable bool `json:"retryable"`
}

// handleServiceError maps usecase errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validation *usecase.ValidationError
		conflict   *usecase.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)

	case errors.As(err, &conflict):
		log.Info(operation+" failed - seats taken", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), response.AvailabilityResponse{
			Available: false,
			Conflicts: response.SeatIDs(conflict.Seats),
		})

	case errors.Is(err, usecase.ErrNoSeatsSelected),
		errors.Is(err, usecase.ErrInvalidSeat),
		errors.Is(err, usecase.ErrUnknownShowtime),
		errors.Is(err, usecase.ErrValidation):
		log.Warn("Invalid input for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrItemNotFound),
		errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrUserNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInvalidSession):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrAccountInactive),
		errors.Is(err, usecase.ErrBookingForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrEmailTaken),
		errors.Is(err, usecase.ErrUsernameTaken),
		errors.Is(err, usecase.ErrBookingNotPending):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrClaimAborted),
		errors.Is(err, usecase.ErrSubmissionInProgress):
		log.Warn(operation+" failed - retry", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), retryHint{Retryable: true})

	case errors.Is(err, usecase.ErrPaymentFailed),
		errors.Is(err, usecase.ErrPaymentRejected):
		log.Warn(operation+" failed - payment", zap.Error(err))
		utils.ResponsePaymentRequired(w, err.Error(), retryHint{Retryable: true})

	case errors.Is(err, usecase.ErrStoreUnavailable):
		log.Error(operation+" failed - store unavailable", zap.Error(err))
		utils.ResponseJSON(w, http.StatusServiceUnavailable, false,
			"Service temporarily unavailable, please retry", nil, retryHint{Retryable: true})

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
