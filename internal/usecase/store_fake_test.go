package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("connection refused")

// memStore is a transactional in-memory stand-in for Postgres. One mutex
// makes every write serializable.
type memStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*entity.Item
	grids    map[uuid.UUID]bool
	seats    map[entity.ShowKey][]*entity.Seat
	bookings map[uuid.UUID]*entity.Booking
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.Session

	down        bool
	gridCreates int
	// beforeCreateGrid runs without the lock, letting tests force a race.
	beforeCreateGrid func()
}

func newMemStore() *memStore {
	return &memStore{
		items:    make(map[uuid.UUID]*entity.Item),
		grids:    make(map[uuid.UUID]bool),
		seats:    make(map[entity.ShowKey][]*entity.Seat),
		bookings: make(map[uuid.UUID]*entity.Booking),
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[uuid.UUID]*entity.Session),
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:    memUsers{m},
		Session: memSessions{m},
		Item:    memItems{m},
		Seat:    memSeats{m},
		Booking: memBookings{m},
		Guard:   repository.NewNoopGuard(),
	}
}

func (m *memStore) addItem(title string, showtimes ...entity.Showtime) *entity.Item {
	now := time.Now()
	item := &entity.Item{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Title:        title,
		Category:     entity.CategoryMovies,
		Showtimes:    showtimes,
		IsActive:     true,
	}
	m.mu.Lock()
	m.items[item.ID] = item
	m.mu.Unlock()
	return item
}

func (m *memStore) seat(key entity.ShowKey, ref entity.SeatRef) entity.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.seats[key] {
		if s.Ref() == ref {
			return *s
		}
	}
	return entity.Seat{}
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

type memItems struct{ m *memStore }

func (r memItems) Create(_ context.Context, item *entity.Item) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return errStoreDown
	}
	r.m.items[item.ID] = item
	return nil
}

func (r memItems) FindByID(_ context.Context, id uuid.UUID) (*entity.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return nil, errStoreDown
	}
	return r.m.items[id], nil
}

func (r memItems) FindAll(_ context.Context, category entity.Category, limit, offset int) ([]*entity.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var items []*entity.Item
	for _, item := range r.m.items {
		if category == "" || item.Category == category {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (r memItems) CountAll(ctx context.Context, category entity.Category) (int64, error) {
	items, err := r.FindAll(ctx, category, 1<<30, 0)
	return int64(len(items)), err
}

func (r memItems) Count(_ context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.items)), nil
}

type memSeats struct{ m *memStore }

func (r memSeats) FindByShow(_ context.Context, key entity.ShowKey) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return nil, errStoreDown
	}
	out := make([]*entity.Seat, len(r.m.seats[key]))
	for i, s := range r.m.seats[key] {
		cp := *s
		out[i] = &cp
	}
	return out, nil
}

func (r memSeats) CreateGrid(_ context.Context, key entity.ShowKey, seats []*entity.Seat) (bool, error) {
	if r.m.beforeCreateGrid != nil {
		r.m.beforeCreateGrid()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return false, errStoreDown
	}
	if r.m.grids[key.GridID()] {
		return false, nil
	}
	r.m.grids[key.GridID()] = true
	r.m.gridCreates++
	stored := make([]*entity.Seat, len(seats))
	for i, s := range seats {
		cp := *s
		stored[i] = &cp
	}
	r.m.seats[key] = stored
	return true, nil
}

type memBookings struct{ m *memStore }

func (r memBookings) Create(_ context.Context, booking *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return errStoreDown
	}
	cp := *booking
	r.m.bookings[booking.ID] = &cp
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return nil, errStoreDown
	}
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r memBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r memBookings) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, b := range r.m.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Confirm validates everything before writing anything, so a failed claim
// leaves no trace.
func (r memBookings) Confirm(_ context.Context, claim *entity.SeatClaim) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.down {
		return errStoreDown
	}

	b, ok := r.m.bookings[claim.BookingID]
	if !ok || b.Status != entity.BookingStatusPending {
		return repository.ErrBookingNotPending
	}

	targets := make([]*entity.Seat, 0, len(claim.Seats))
	for _, ref := range claim.Seats {
		var found *entity.Seat
		for _, s := range r.m.seats[claim.Show] {
			if s.Ref() == ref {
				found = s
				break
			}
		}
		if found == nil || found.IsBooked {
			return &repository.SeatTakenError{Seat: ref}
		}
		targets = append(targets, found)
	}

	at := claim.ClaimedAt
	paymentID := claim.PaymentID
	b.Status = entity.BookingStatusConfirmed
	b.PaymentStatus = entity.PaymentStatusCompleted
	b.PaymentID = &paymentID
	b.ConfirmedAt = &at
	for _, s := range targets {
		userID, bookingID := claim.UserID, claim.BookingID
		s.IsBooked = true
		s.BookedBy = &userID
		s.BookingID = &bookingID
		s.BookedAt = &at
	}
	return nil
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateUser
		}
	}
	r.m.users[user.ID] = user
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.users[id], nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r memUsers) find(match func(*entity.User) bool) *entity.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if match(u) {
			return u
		}
	}
	return nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, session *entity.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[session.Token] = session
	return nil
}

func (r memSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok || s.RevokedAt != nil || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

func (r memSessions) Revoke(_ context.Context, token uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok || s.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (r memSessions) PurgeExpired(_ context.Context, grace time.Duration) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, s := range r.m.sessions {
		if s.ExpiresAt.Before(time.Now().Add(-grace)) {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}
