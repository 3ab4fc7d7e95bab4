package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// showDate is a week out so it stays inside the booking window.
var showDate = time.Now().AddDate(0, 0, 7).Format(time.DateOnly)

func testConfig() *utils.Config {
	return &utils.Config{
		Session:   utils.SessionConfig{ExpiryHours: 24},
		Booking:   utils.BookingConfig{SubmissionTTLSeconds: 30, MaxAdvanceDays: 90},
		Payment:   utils.PaymentConfig{Mode: PaymentModeTest, Currency: "INR"},
		RateLimit: utils.RateLimitConfig{RPS: 5, Burst: 10},
	}
}

func newTestService(t *testing.T, store *memStore) *Service {
	t.Helper()
	gateway, err := NewPaymentGateway(utils.PaymentConfig{Mode: PaymentModeTest})
	require.NoError(t, err)
	return NewService(store.repository(), gateway, testConfig(), zap.NewNop())
}

func seatIDSet(seats []*entity.Seat) map[string]struct{} {
	ids := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		ids[s.Ref().ID()] = struct{}{}
	}
	return ids
}

func TestFetchSeatsMaterializesOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	key := entity.ShowKey{ItemID: item.ID, Showtime: "6:00 PM", ShowDate: showDate}
	ctx := context.Background()

	first, err := svc.Seat.FetchSeats(ctx, key)
	require.NoError(t, err)
	second, err := svc.Seat.FetchSeats(ctx, key)
	require.NoError(t, err)

	assert.Len(t, first, 96)
	assert.Equal(t, seatIDSet(first), seatIDSet(second))
	for _, s := range second {
		assert.False(t, s.IsBooked)
	}
	assert.Equal(t, 1, store.gridCreates)
}

func TestFetchSeatsConcurrentFirstAccess(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	key := entity.ShowKey{ItemID: item.ID, Showtime: "6:00 PM", ShowDate: showDate}

	// hold every creator at the door until all of them saw an empty grid
	const callers = 8
	var arrived sync.WaitGroup
	arrived.Add(callers)
	gate := make(chan struct{})
	store.beforeCreateGrid = func() {
		arrived.Done()
		<-gate
	}

	var wg sync.WaitGroup
	results := make([][]*entity.Seat, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seats, err := svc.Seat.FetchSeats(context.Background(), key)
			assert.NoError(t, err)
			results[i] = seats
		}(i)
	}
	arrived.Wait()
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, store.gridCreates)
	want := seatIDSet(results[0])
	for _, r := range results {
		assert.Len(t, r, 96)
		assert.Equal(t, want, seatIDSet(r))
	}
}

func TestFetchSeatsStoreUnavailable(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	store.down = true

	seats, err := svc.Seat.FetchSeats(context.Background(), entity.ShowKey{ItemID: uuid.New(), Showtime: "6:00 PM", ShowDate: showDate})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, seats)
	assert.True(t, IsRetryable(err))
}

func TestVerifyAvailabilityReportsConflict(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	key := entity.ShowKey{ItemID: item.ID, Showtime: "6:00 PM", ShowDate: showDate}
	ctx := context.Background()

	a1 := entity.SeatRef{Row: "A", SeatNumber: 1}
	a2 := entity.SeatRef{Row: "A", SeatNumber: 2}

	// buyer one loads the grid and picks A1, A2
	_, err := svc.Seat.FetchSeats(ctx, key)
	require.NoError(t, err)
	require.NoError(t, svc.Seat.VerifyAvailability(ctx, key, []entity.SeatRef{a1, a2}))

	// buyer two books A1 in the meantime
	other := uuid.New()
	pending, err := svc.Booking.CreatePendingBooking(ctx, PendingBooking{
		UserID: other, ItemID: item.ID, Title: item.Title,
		Showtime: key.Showtime, ShowDate: key.ShowDate,
		Seats: []entity.SeatRef{a1}, TotalAmount: 400,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Booking.ClaimSeats(ctx, &entity.SeatClaim{
		BookingID: pending.ID, PaymentID: "pay_test_1", Seats: pending.Seats, Show: key, UserID: other,
	}))

	err = svc.Seat.VerifyAvailability(ctx, key, []entity.SeatRef{a1, a2})
	require.ErrorIs(t, err, ErrSeatsUnavailable)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []entity.SeatRef{a1}, conflict.Seats)
}

func TestResolveShow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	ctx := context.Background()

	show, err := svc.Seat.ResolveShow(ctx, item.ID, "6:00 PM", showDate)
	require.NoError(t, err)
	assert.Equal(t, 400.0, show.Price)
	assert.Equal(t, item.ID, show.Key.ItemID)

	_, err = svc.Seat.ResolveShow(ctx, item.ID, "7:00 PM", showDate)
	assert.ErrorIs(t, err, ErrUnknownShowtime)

	_, err = svc.Seat.ResolveShow(ctx, uuid.New(), "6:00 PM", showDate)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.Seat.ResolveShow(ctx, item.ID, "6:00 PM", "01/01/2025")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveShowDateWindow(t *testing.T) {
	store := newMemStore()
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	svc := NewSeatService(store.repository().Item, store.repository().Seat,
		utils.BookingConfig{MaxAdvanceDays: 30}, zap.NewNop()).(*seatService)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	tests := []struct {
		date    string
		wantErr bool
	}{
		{date: "2026-10-18"},
		{date: "2026-11-17"},
		{date: "2026-10-17", wantErr: true},
		{date: "1999-12-31", wantErr: true},
		{date: "0001-01-01", wantErr: true},
		{date: "2026-11-18", wantErr: true},
		{date: "9999-12-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			_, err := svc.ResolveShow(ctx, item.ID, "6:00 PM", tt.date)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, "ShowDate")
		})
	}
}

func TestGetSeatMapRejectsOutOfWindowDates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})

	for _, date := range []string{"0001-01-01", time.Now().AddDate(0, 0, -1).Format(time.DateOnly), "9999-12-31"} {
		_, err := svc.Seat.GetSeatMap(context.Background(), item.ID.String(), &request.ShowRequest{
			Showtime: "6:00 PM",
			ShowDate: date,
		})
		assert.ErrorIs(t, err, ErrValidation, date)
	}
	assert.Equal(t, 0, store.gridCreates)
}

func TestGetSeatMapGroupsRows(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})

	resp, err := svc.Seat.GetSeatMap(context.Background(), item.ID.String(), &request.ShowRequest{
		Showtime: "6:00 PM",
		ShowDate: showDate,
	})
	require.NoError(t, err)

	assert.Equal(t, 96, resp.Total)
	assert.Equal(t, 96, resp.Available)
	require.Len(t, resp.Rows, 8)
	assert.Equal(t, "A", resp.Rows[0].Row)
	assert.Equal(t, "H", resp.Rows[7].Row)
	assert.Len(t, resp.Rows[0].Seats, 12)
	assert.Equal(t, "A1", resp.Rows[0].Seats[0].ID)
}

func TestCheckAvailability(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("m1", entity.Showtime{Time: "6:00 PM", Price: 400})
	ctx := context.Background()

	req := &request.AvailabilityRequest{
		ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: showDate},
		Seats:       []string{"A1", "B2"},
	}
	resp, err := svc.Seat.CheckAvailability(ctx, item.ID.String(), req)
	require.NoError(t, err)
	assert.True(t, resp.Available)
	assert.Empty(t, resp.Conflicts)

	req.Seats = []string{"Z1"}
	_, err = svc.Seat.CheckAvailability(ctx, item.ID.String(), req)
	assert.ErrorIs(t, err, ErrInvalidSeat)

	req.Seats = []string{"a1", "A1"}
	_, err = svc.Seat.CheckAvailability(ctx, item.ID.String(), req)
	assert.ErrorIs(t, err, ErrInvalidSeat)
}
