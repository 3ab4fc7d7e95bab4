package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingFixture struct {
	store *memStore
	svc   *Service
	item  *entity.Item
	key   entity.ShowKey
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	store := newMemStore()
	svc := newTestService(t, store)
	item := store.addItem("Inception",
		entity.Showtime{Time: "9:00 AM", Price: 270},
		entity.Showtime{Time: "6:00 PM", Price: 370},
	)
	return &bookingFixture{
		store: store,
		svc:   svc,
		item:  item,
		key:   entity.ShowKey{ItemID: item.ID, Showtime: "6:00 PM", ShowDate: showDate},
	}
}

func (f *bookingFixture) checkout(t *testing.T, userID uuid.UUID, seats ...string) (string, error) {
	t.Helper()
	resp, err := f.svc.Booking.Checkout(context.Background(), userID, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: f.key.Showtime, ShowDate: f.key.ShowDate},
		Seats:       seats,
	})
	if err != nil {
		return "", err
	}
	return resp.BookingID, nil
}

func (f *bookingFixture) pay(userID uuid.UUID, bookingID string) error {
	_, err := f.svc.Booking.CompletePayment(context.Background(), userID, bookingID, &request.CompletePaymentRequest{
		Outcome: string(PaymentSuccess),
	})
	return err
}

func TestCheckoutCreatesPendingBooking(t *testing.T) {
	f := newBookingFixture(t)
	user := uuid.New()

	resp, err := f.svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: showDate},
		Seats:       []string{"a1", "A2"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Reference, "BK"))
	assert.Equal(t, 740.0, resp.TotalAmount)
	assert.Equal(t, int64(74000), resp.Payment.Amount)
	assert.Equal(t, "INR", resp.Payment.Currency)
	assert.Equal(t, "Inception - 2 seats", resp.Payment.Description)
	assert.Equal(t, PaymentModeTest, resp.Payment.Mode)

	booking := f.store.booking(uuid.MustParse(resp.BookingID))
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
	assert.Nil(t, booking.PaymentID)
	assert.Equal(t, []entity.SeatRef{{Row: "A", SeatNumber: 1}, {Row: "A", SeatNumber: 2}}, booking.Seats)

	// a pending booking holds nothing
	for _, ref := range booking.Seats {
		assert.False(t, f.store.seat(f.key, ref).IsBooked)
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := newBookingFixture(t)
	user := uuid.New()

	_, err := f.checkout(t, user)
	assert.ErrorIs(t, err, ErrNoSeatsSelected)

	_, err = f.checkout(t, user, "I1")
	assert.ErrorIs(t, err, ErrInvalidSeat)

	_, err = f.checkout(t, user, "A1", "A1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: "11:00 PM", ShowDate: showDate},
		Seats:       []string{"A1"},
	})
	assert.ErrorIs(t, err, ErrUnknownShowtime)

	_, err = f.svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      uuid.NewString(),
		ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: showDate},
		Seats:       []string{"A1"},
	})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCheckoutRejectsBookedSeats(t *testing.T) {
	f := newBookingFixture(t)
	first, second := uuid.New(), uuid.New()

	id, err := f.checkout(t, first, "A1")
	require.NoError(t, err)
	require.NoError(t, f.pay(first, id))

	_, err = f.checkout(t, second, "A1", "A2")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []entity.SeatRef{{Row: "A", SeatNumber: 1}}, conflict.Seats)
}

func TestPaymentSuccessConfirmsBookingAndSeats(t *testing.T) {
	f := newBookingFixture(t)
	user := uuid.New()

	id, err := f.checkout(t, user, "C5", "C6")
	require.NoError(t, err)

	resp, err := f.svc.Booking.CompletePayment(context.Background(), user, id, &request.CompletePaymentRequest{
		Outcome: string(PaymentSuccess),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Receipt)
	assert.True(t, strings.HasPrefix(resp.Receipt.PaymentID, "pay_test_"))
	assert.Equal(t, []string{"C5", "C6"}, resp.Receipt.Seats)
	assert.Equal(t, PaymentModeTest, resp.Receipt.PaymentMode)

	booking := f.store.booking(uuid.MustParse(id))
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, entity.PaymentStatusCompleted, booking.PaymentStatus)
	require.NotNil(t, booking.ConfirmedAt)

	for _, ref := range booking.Seats {
		seat := f.store.seat(f.key, ref)
		assert.True(t, seat.IsBooked)
		require.NotNil(t, seat.BookingID)
		assert.Equal(t, booking.ID, *seat.BookingID)
		require.NotNil(t, seat.BookedBy)
		assert.Equal(t, user, *seat.BookedBy)
	}

	// paying again is not a silent success
	err = f.pay(user, id)
	assert.ErrorIs(t, err, ErrBookingNotPending)
}

func TestConcurrentClaimsOnSameSeat(t *testing.T) {
	f := newBookingFixture(t)
	buyers := []uuid.UUID{uuid.New(), uuid.New()}

	// both buyers pass the pre-check before either pays
	ids := make([]string, len(buyers))
	for i, buyer := range buyers {
		id, err := f.checkout(t, buyer, "A1")
		require.NoError(t, err)
		ids[i] = id
	}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.pay(buyers[i], ids[i])
		}(i)
	}
	wg.Wait()

	confirmed := 0
	for i, err := range errs {
		booking := f.store.booking(uuid.MustParse(ids[i]))
		if err == nil {
			confirmed++
			assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
			seat := f.store.seat(f.key, entity.SeatRef{Row: "A", SeatNumber: 1})
			assert.Equal(t, booking.ID, *seat.BookingID)
			assert.Equal(t, buyers[i], *seat.BookedBy)
			continue
		}
		assert.ErrorIs(t, err, ErrClaimAborted)
		assert.True(t, IsRetryable(err))
		assert.Equal(t, entity.BookingStatusPending, booking.Status)
		assert.Nil(t, booking.PaymentID)
	}
	assert.Equal(t, 1, confirmed)
}

func TestFailedClaimLeavesNoPartialState(t *testing.T) {
	f := newBookingFixture(t)
	first, second := uuid.New(), uuid.New()

	losing, err := f.checkout(t, second, "B1", "B2", "B3")
	require.NoError(t, err)

	winning, err := f.checkout(t, first, "B3")
	require.NoError(t, err)
	require.NoError(t, f.pay(first, winning))

	err = f.pay(second, losing)
	require.ErrorIs(t, err, ErrClaimAborted)

	// B1 and B2 were free but must not be booked by the failed claim
	for _, n := range []int{1, 2} {
		assert.False(t, f.store.seat(f.key, entity.SeatRef{Row: "B", SeatNumber: n}).IsBooked)
	}
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(uuid.MustParse(losing)).Status)
}

func TestPaymentOutcomes(t *testing.T) {
	f := newBookingFixture(t)
	user := uuid.New()
	ctx := context.Background()

	id, err := f.checkout(t, user, "D4")
	require.NoError(t, err)

	t.Run("cancelled leaves booking pending", func(t *testing.T) {
		resp, err := f.svc.Booking.CompletePayment(ctx, user, id, &request.CompletePaymentRequest{Outcome: string(PaymentCancelled)})
		require.NoError(t, err)
		require.NotNil(t, resp.Booking)
		assert.Equal(t, entity.BookingStatusPending, resp.Booking.Status)
		assert.Nil(t, resp.Receipt)
	})

	t.Run("failed is surfaced", func(t *testing.T) {
		_, err := f.svc.Booking.CompletePayment(ctx, user, id, &request.CompletePaymentRequest{Outcome: string(PaymentFailed)})
		assert.ErrorIs(t, err, ErrPaymentFailed)
		assert.False(t, f.store.seat(f.key, entity.SeatRef{Row: "D", SeatNumber: 4}).IsBooked)
	})

	t.Run("foreign payment id is rejected", func(t *testing.T) {
		bogus := "txn_123"
		_, err := f.svc.Booking.CompletePayment(ctx, user, id, &request.CompletePaymentRequest{Outcome: string(PaymentSuccess), PaymentID: &bogus})
		assert.ErrorIs(t, err, ErrPaymentRejected)
	})

	t.Run("other user cannot pay", func(t *testing.T) {
		err := f.pay(uuid.New(), id)
		assert.ErrorIs(t, err, ErrBookingForbidden)
	})

	t.Run("unknown booking", func(t *testing.T) {
		assert.ErrorIs(t, f.pay(user, uuid.NewString()), ErrBookingNotFound)
		assert.ErrorIs(t, f.pay(user, "nope"), ErrBookingNotFound)
	})

	t.Run("gateway id is recorded", func(t *testing.T) {
		payID := "pay_live_abc"
		resp, err := f.svc.Booking.CompletePayment(ctx, user, id, &request.CompletePaymentRequest{Outcome: string(PaymentSuccess), PaymentID: &payID})
		require.NoError(t, err)
		assert.Equal(t, payID, resp.Receipt.PaymentID)
	})
}

func TestClaimSeatsStoreDown(t *testing.T) {
	f := newBookingFixture(t)
	f.store.down = true

	err := f.svc.Booking.ClaimSeats(context.Background(), &entity.SeatClaim{
		BookingID: uuid.New(),
		Seats:     []entity.SeatRef{{Row: "A", SeatNumber: 1}},
		Show:      f.key,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = f.svc.Booking.ClaimSeats(context.Background(), &entity.SeatClaim{BookingID: uuid.New()})
	assert.ErrorIs(t, err, ErrNoSeatsSelected)
}

func TestGetUserBookingsNewestFirst(t *testing.T) {
	f := newBookingFixture(t)
	user := uuid.New()
	ctx := context.Background()

	older, err := f.checkout(t, user, "E1")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := f.checkout(t, user, "E2")
	require.NoError(t, err)
	_, err = f.checkout(t, uuid.New(), "E3")
	require.NoError(t, err)

	page, err := f.svc.Booking.GetUserBookings(ctx, user, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, newer, page.Data[0].ID)
	assert.Equal(t, older, page.Data[1].ID)
	assert.Equal(t, int64(2), page.Pagination.Total)

	detail, err := f.svc.Booking.GetBooking(ctx, user, older)
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, detail.Seats)

	_, err = f.svc.Booking.GetBooking(ctx, uuid.New(), older)
	assert.ErrorIs(t, err, ErrBookingForbidden)
}

func TestCheckoutDuplicateSubmission(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newBookingFixture(t)
	repo := f.store.repository()
	repo.Guard = repository.NewRedisGuard(client, zap.NewNop())
	gateway, err := NewPaymentGateway(testConfig().Payment)
	require.NoError(t, err)
	svc := NewService(repo, gateway, testConfig(), zap.NewNop())

	user := uuid.New()
	key := "checkout:" + user.String() + ":" + f.item.ID.String() + ":6:00 PM:" + showDate
	_, ok, err := repo.Guard.Acquire(context.Background(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: showDate},
		Seats:       []string{"A1"},
	})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	// a different show is not blocked, and its guard is released afterwards
	_, err = svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: "9:00 AM", ShowDate: showDate},
		Seats:       []string{"A1"},
	})
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)
}

func newRedisGuardService(t *testing.T, f *bookingFixture, client *redis.Client) (*Service, *repository.Repository) {
	t.Helper()
	repo := f.store.repository()
	repo.Guard = repository.NewRedisGuard(client, zap.NewNop())
	gateway, err := NewPaymentGateway(testConfig().Payment)
	require.NoError(t, err)
	return NewService(repo, gateway, testConfig(), zap.NewNop()), repo
}

func TestCheckoutProceedsWhenGuardBackendIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	f := newBookingFixture(t)
	svc, _ := newRedisGuardService(t, f, client)
	mr.Close()

	user := uuid.New()
	resp, err := svc.Booking.Checkout(context.Background(), user, &request.CheckoutRequest{
		ItemID:      f.item.ID.String(),
		ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: showDate},
		Seats:       []string{"B1"},
	})
	require.NoError(t, err)

	booking := f.store.booking(uuid.MustParse(resp.BookingID))
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, user, booking.UserID)
}

func TestCompletePaymentDuplicateSubmission(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newBookingFixture(t)
	user := uuid.New()
	id, err := f.checkout(t, user, "C1", "C2")
	require.NoError(t, err)

	svc, repo := newRedisGuardService(t, f, client)
	token, ok, err := repo.Guard.Acquire(context.Background(), "claim:"+id, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	pay := func() error {
		_, err := svc.Booking.CompletePayment(context.Background(), user, id, &request.CompletePaymentRequest{
			Outcome: string(PaymentSuccess),
		})
		return err
	}

	assert.ErrorIs(t, pay(), ErrSubmissionInProgress)
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(uuid.MustParse(id)).Status)
	for _, ref := range []entity.SeatRef{{Row: "C", SeatNumber: 1}, {Row: "C", SeatNumber: 2}} {
		assert.False(t, f.store.seat(f.key, ref).IsBooked, ref.ID())
	}

	// once the first submission finishes the payment goes through
	require.NoError(t, repo.Guard.Release(context.Background(), "claim:"+id, token))
	require.NoError(t, pay())
	assert.Equal(t, entity.BookingStatusConfirmed, f.store.booking(uuid.MustParse(id)).Status)
	assert.Empty(t, mr.Keys())
}

func TestCheckoutRejectsPastShowDate(t *testing.T) {
	f := newBookingFixture(t)

	for _, date := range []string{"1999-12-31", time.Now().AddDate(0, 0, -1).Format(time.DateOnly)} {
		_, err := f.svc.Booking.Checkout(context.Background(), uuid.New(), &request.CheckoutRequest{
			ItemID:      f.item.ID.String(),
			ShowRequest: request.ShowRequest{Showtime: "6:00 PM", ShowDate: date},
			Seats:       []string{"A1"},
		})
		assert.ErrorIs(t, err, ErrValidation, date)
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	assert.Empty(t, f.store.bookings)
	assert.Equal(t, 0, f.store.gridCreates)
}
