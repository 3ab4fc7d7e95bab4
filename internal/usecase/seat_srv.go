package usecase

import (
	"context"
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

// Show is a validated (item, showtime, date) with its per-seat price.
type Show struct {
	Item  *entity.Item
	Key   entity.ShowKey
	Price float64
}

type SeatService interface {
	// ResolveShow checks that the item exists and offers the showtime, and
	// that the date is between today and the booking horizon.
	ResolveShow(ctx context.Context, itemID uuid.UUID, showtime, showDate string) (*Show, error)

	// FetchSeats returns the grid for key, materializing it on first access.
	// A store failure is returned as an error, never as an empty grid.
	FetchSeats(ctx context.Context, key entity.ShowKey) ([]*entity.Seat, error)

	// VerifyAvailability re-reads the grid and returns a *ConflictError
	// listing every selected seat that is now booked.
	VerifyAvailability(ctx context.Context, key entity.ShowKey, selected []entity.SeatRef) error

	GetSeatMap(ctx context.Context, itemID string, req *request.ShowRequest) (*response.SeatMapResponse, error)
	CheckAvailability(ctx context.Context, itemID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error)
}

type seatService struct {
	itemRepo       repository.ItemRepository
	seatRepo       repository.SeatRepository
	maxAdvanceDays int
	now            func() time.Time
	log            *zap.Logger
}

func NewSeatService(itemRepo repository.ItemRepository, seatRepo repository.SeatRepository, config utils.BookingConfig, log *zap.Logger) SeatService {
	return &seatService{
		itemRepo:       itemRepo,
		seatRepo:       seatRepo,
		maxAdvanceDays: config.MaxAdvanceDays,
		now:            time.Now,
		log:            log.With(zap.String("service", "seat")),
	}
}

func (s *seatService) ResolveShow(ctx context.Context, itemID uuid.UUID, showtime, showDate string) (*Show, error) {
	if err := s.checkShowDate(showDate); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	st, ok := item.FindShowtime(showtime)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShowtime, showtime)
	}

	return &Show{
		Item:  item,
		Key:   entity.ShowKey{ItemID: item.ID, Showtime: st.Time, ShowDate: showDate},
		Price: st.Price,
	}, nil
}

// checkShowDate accepts today through today+maxAdvanceDays, in server time.
func (s *seatService) checkShowDate(showDate string) error {
	now := s.now()
	day, err := time.ParseInLocation(time.DateOnly, showDate, now.Location())
	if err != nil {
		return newValidationError(map[string]string{"ShowDate": "Must match date format 2006-01-02"})
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return newValidationError(map[string]string{"ShowDate": "Must not be in the past"})
	}
	if s.maxAdvanceDays > 0 && day.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return newValidationError(map[string]string{
			"ShowDate": fmt.Sprintf("Must be within %d days from today", s.maxAdvanceDays),
		})
	}
	return nil
}

func (s *seatService) FetchSeats(ctx context.Context, key entity.ShowKey) ([]*entity.Seat, error) {
	seats, err := s.seatRepo.FindByShow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(seats) > 0 {
		return seats, nil
	}

	grid := entity.BuildGrid(key, time.Now())
	created, err := s.seatRepo.CreateGrid(ctx, key, grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if created {
		metrics.IncGridCreated()
		return grid, nil
	}

	// lost the creation race; the winner's grid is committed by now
	seats, err = s.seatRepo.FindByShow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: grid for %s missing after concurrent create", ErrStoreUnavailable, key)
	}
	return seats, nil
}

func (s *seatService) VerifyAvailability(ctx context.Context, key entity.ShowKey, selected []entity.SeatRef) error {
	seats, err := s.FetchSeats(ctx, key)
	if err != nil {
		return err
	}

	booked := make(map[entity.SeatRef]bool, len(seats))
	for _, seat := range seats {
		if seat.IsBooked {
			booked[seat.Ref()] = true
		}
	}

	var conflicts []entity.SeatRef
	for _, ref := range selected {
		if booked[ref] {
			conflicts = append(conflicts, ref)
		}
	}

	if len(conflicts) > 0 {
		metrics.IncAvailabilityConflict()
		s.log.Info("Selected seats no longer available",
			zap.String("show", key.String()),
			zap.Strings("conflicts", response.SeatIDs(conflicts)),
		)
		return &ConflictError{Seats: conflicts}
	}
	return nil
}

func (s *seatService) GetSeatMap(ctx context.Context, itemID string, req *request.ShowRequest) (*response.SeatMapResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	show, err := s.resolve(ctx, itemID, req)
	if err != nil {
		return nil, err
	}

	seats, err := s.FetchSeats(ctx, show.Key)
	if err != nil {
		s.log.Error("Failed to fetch seats", zap.Error(err), zap.String("show", show.Key.String()))
		return nil, err
	}

	resp := response.SeatMapToResponse(show.Item, show.Key, show.Price, seats)
	return &resp, nil
}

func (s *seatService) CheckAvailability(ctx context.Context, itemID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	selected, err := parseSeats(req.Seats)
	if err != nil {
		return nil, err
	}

	show, err := s.resolve(ctx, itemID, &req.ShowRequest)
	if err != nil {
		return nil, err
	}

	err = s.VerifyAvailability(ctx, show.Key, selected)
	if conflict, ok := asConflict(err); ok {
		return &response.AvailabilityResponse{Available: false, Conflicts: response.SeatIDs(conflict.Seats)}, nil
	}
	if err != nil {
		return nil, err
	}

	return &response.AvailabilityResponse{Available: true, Conflicts: []string{}}, nil
}

func (s *seatService) resolve(ctx context.Context, itemID string, req *request.ShowRequest) (*Show, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	return s.ResolveShow(ctx, id, req.Showtime, req.ShowDate)
}

// parseSeats turns client seat ids into grid references, keeping order.
func parseSeats(ids []string) ([]entity.SeatRef, error) {
	if len(ids) == 0 {
		return nil, ErrNoSeatsSelected
	}

	refs := make([]entity.SeatRef, 0, len(ids))
	seen := make(map[entity.SeatRef]struct{}, len(ids))
	for _, id := range ids {
		ref, err := entity.ParseSeatRef(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeat, err)
		}
		if _, dup := seen[ref]; dup {
			return nil, fmt.Errorf("%w: %s selected twice", ErrInvalidSeat, ref.ID())
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs, nil
}
