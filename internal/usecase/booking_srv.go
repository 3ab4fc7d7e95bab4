package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PendingBooking is the intent recorded before any money moves.
type PendingBooking struct {
	UserID      uuid.UUID
	ItemID      uuid.UUID
	Title       string
	Showtime    string
	ShowDate    string
	Seats       []entity.SeatRef
	TotalAmount float64
}

type BookingService interface {
	// CreatePendingBooking persists a pending booking without touching seat
	// state and returns it with its id and reference.
	CreatePendingBooking(ctx context.Context, in PendingBooking) (*entity.Booking, error)

	// ClaimSeats confirms the booking and books its seats atomically. Losing
	// a race for any seat fails the whole claim with ErrClaimAborted.
	ClaimSeats(ctx context.Context, claim *entity.SeatClaim) error

	Checkout(ctx context.Context, userID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error)
	CompletePayment(ctx context.Context, userID uuid.UUID, bookingID string, req *request.CompletePaymentRequest) (*response.PaymentResultResponse, error)

	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	seats   SeatService
	gateway PaymentGateway
	config  *utils.Config
	log     *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	seats SeatService,
	gateway PaymentGateway,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:    repo,
		seats:   seats,
		gateway: gateway,
		config:  config,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreatePendingBooking(ctx context.Context, in PendingBooking) (*entity.Booking, error) {
	if len(in.Seats) == 0 {
		return nil, ErrNoSeatsSelected
	}

	now := time.Now()
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:     utils.GenerateBookingReference(now),
		UserID:        in.UserID,
		ItemID:        in.ItemID,
		Title:         in.Title,
		Showtime:      in.Showtime,
		ShowDate:      in.ShowDate,
		Seats:         in.Seats,
		TotalAmount:   in.TotalAmount,
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.log.Info("Pending booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("user_id", in.UserID.String()),
		zap.Strings("seats", response.SeatIDs(in.Seats)),
	)
	return booking, nil
}

func (s *bookingService) ClaimSeats(ctx context.Context, claim *entity.SeatClaim) error {
	if len(claim.Seats) == 0 {
		return ErrNoSeatsSelected
	}

	err := s.repo.Booking.Confirm(ctx, claim)

	var taken *repository.SeatTakenError
	switch {
	case err == nil:
		metrics.IncSeatClaim(metrics.ClaimCommitted)
		return nil
	case errors.As(err, &taken):
		metrics.IncSeatClaim(metrics.ClaimConflict)
		return fmt.Errorf("%w: seat %s was booked by another buyer", ErrClaimAborted, taken.Seat.ID())
	case errors.Is(err, repository.ErrSerialization):
		metrics.IncSeatClaim(metrics.ClaimAborted)
		return fmt.Errorf("%w: %v", ErrClaimAborted, err)
	case errors.Is(err, repository.ErrBookingNotPending):
		metrics.IncSeatClaim(metrics.ClaimError)
		return ErrBookingNotPending
	default:
		metrics.IncSeatClaim(metrics.ClaimError)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (s *bookingService) Checkout(ctx context.Context, userID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	if len(req.Seats) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Checkout validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	selected, err := parseSeats(req.Seats)
	if err != nil {
		return nil, err
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	show, err := s.seats.ResolveShow(ctx, itemID, req.Showtime, req.ShowDate)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, fmt.Sprintf("checkout:%s:%s:%s:%s", userID, itemID, show.Key.Showtime, show.Key.ShowDate))
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.seats.VerifyAvailability(ctx, show.Key, selected); err != nil {
		return nil, err
	}

	total := float64(len(selected)) * show.Price
	booking, err := s.CreatePendingBooking(ctx, PendingBooking{
		UserID:      userID,
		ItemID:      show.Item.ID,
		Title:       show.Item.Title,
		Showtime:    show.Key.Showtime,
		ShowDate:    show.Key.ShowDate,
		Seats:       selected,
		TotalAmount: total,
	})
	if err != nil {
		s.log.Error("Failed to create pending booking", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, err
	}
	metrics.IncBookingCreated(string(show.Item.Category))

	return &response.CheckoutResponse{
		BookingID:   booking.ID.String(),
		Reference:   booking.Reference,
		TotalAmount: total,
		Payment: response.PaymentIntent{
			Amount:      toMinorUnits(total),
			Currency:    s.config.Payment.Currency,
			Description: fmt.Sprintf("%s - %d seats", show.Item.Title, len(selected)),
			Mode:        s.gateway.Mode(),
		},
	}, nil
}

func (s *bookingService) CompletePayment(ctx context.Context, userID uuid.UUID, bookingID string, req *request.CompletePaymentRequest) (*response.PaymentResultResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	booking, err := s.findOwnBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, ErrBookingNotPending
	}

	result := PaymentResult{Outcome: PaymentOutcome(req.Outcome)}
	if req.PaymentID != nil {
		result.PaymentID = *req.PaymentID
	}

	switch result.Outcome {
	case PaymentCancelled:
		s.log.Info("Payment dismissed, booking left pending",
			zap.String("booking_id", booking.ID.String()),
		)
		resp := response.BookingToResponse(booking, nil)
		return &response.PaymentResultResponse{Outcome: req.Outcome, Booking: &resp}, nil

	case PaymentFailed:
		s.log.Warn("Payment failed", zap.String("booking_id", booking.ID.String()))
		return nil, ErrPaymentFailed
	}

	release, err := s.acquire(ctx, "claim:"+booking.ID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	paymentID, err := s.gateway.Verify(ctx, booking, result.PaymentID)
	if err != nil {
		s.log.Warn("Payment verification failed", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, err
	}

	claim := &entity.SeatClaim{
		BookingID: booking.ID,
		PaymentID: paymentID,
		Seats:     booking.Seats,
		Show:      booking.ShowKey(),
		UserID:    userID,
		ClaimedAt: time.Now(),
	}

	if err := s.ClaimSeats(ctx, claim); err != nil {
		s.log.Warn("Seat claim failed",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("payment_id", paymentID),
		)
		return nil, err
	}

	s.log.Info("Booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("payment_id", paymentID),
	)

	return &response.PaymentResultResponse{
		Outcome: req.Outcome,
		Receipt: &response.ReceiptResponse{
			BookingID:   booking.ID.String(),
			Reference:   booking.Reference,
			Title:       booking.Title,
			Showtime:    booking.Showtime,
			ShowDate:    booking.ShowDate,
			Seats:       response.SeatIDs(booking.Seats),
			TotalAmount: booking.TotalAmount,
			PaymentID:   paymentID,
			PaymentMode: s.gateway.Mode(),
			ConfirmedAt: claim.ClaimedAt,
		},
	}, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	items := make(map[uuid.UUID]*entity.Item)
	data := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		item, seen := items[booking.ItemID]
		if !seen {
			// history still renders when the item was removed from the catalog
			item, err = s.repo.Item.FindByID(ctx, booking.ItemID)
			if err != nil {
				s.log.Warn("Failed to load item for booking", zap.Error(err), zap.String("item_id", booking.ItemID.String()))
			}
			items[booking.ItemID] = item
		}
		data[i] = response.BookingToResponse(booking, item)
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findOwnBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Item.FindByID(ctx, booking.ItemID)
	if err != nil {
		s.log.Warn("Failed to load item for booking", zap.Error(err), zap.String("item_id", booking.ItemID.String()))
	}

	resp := response.BookingToResponse(booking, item)
	return &resp, nil
}

func (s *bookingService) findOwnBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != userID {
		s.log.Warn("Booking accessed by another user",
			zap.String("booking_id", booking.ID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, ErrBookingForbidden
	}
	return booking, nil
}

// acquire takes the submission guard for key. The guard only throttles
// duplicate submissions, so a guard backend failure lets the request through.
func (s *bookingService) acquire(ctx context.Context, key string) (func(), error) {
	ttl := time.Duration(s.config.Booking.SubmissionTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	token, ok, err := s.repo.Guard.Acquire(ctx, key, ttl)
	if err != nil {
		s.log.Warn("Submission guard unavailable, continuing", zap.Error(err), zap.String("key", key))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}

	return func() {
		// release even if the request context was cancelled mid-flight
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.repo.Guard.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("Failed to release submission guard", zap.Error(err), zap.String("key", key))
		}
	}, nil
}
