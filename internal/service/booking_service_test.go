package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
)

// ---------- Mocks ----------

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type mockRestaurantRepo struct {
	restaurants map[int64]*domain.Restaurant
}

func (m *mockRestaurantRepo) List(_ context.Context, _, _ int) ([]domain.Restaurant, error) {
	var out []domain.Restaurant
	for _, r := range m.restaurants {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id int64) (*domain.Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRestaurantRepo) GetWithDetails(ctx context.Context, id int64) (*domain.Restaurant, error) {
	return m.GetByID(ctx, id)
}

type mockCustomerRepo struct {
	nextID    int64
	byEmail   map[string]*domain.Customer
	createErr error
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{nextID: 1, byEmail: make(map[string]*domain.Customer)}
}

func (m *mockCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepo) Create(_ context.Context, name, email, phone string) (*domain.Customer, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	c := &domain.Customer{ID: m.nextID, Name: name, Email: email, Phone: phone, CreatedAt: time.Now()}
	m.nextID++
	m.byEmail[email] = c
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepo) UpdateContact(_ context.Context, id int64, name, phone *string) (*domain.Customer, error) {
	for _, c := range m.byEmail {
		if c.ID == id {
			if name != nil {
				c.Name = *name
			}
			if phone != nil {
				c.Phone = *phone
			}
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Insert(_ context.Context, b domain.Booking) (*domain.Booking, error) {
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = &b
	cp := b
	return &cp, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepo) Update(_ context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	if patch.TableID != nil {
		b.TableID = *patch.TableID
	}
	if patch.BookingDate != nil {
		b.BookingDate = *patch.BookingDate
	}
	if patch.BookingTime != nil {
		b.BookingTime = *patch.BookingTime
	}
	if patch.PartySize != nil {
		b.PartySize = *patch.PartySize
	}
	if patch.SpecialRequests != nil {
		b.SpecialRequests = *patch.SpecialRequests
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepo) FindConfirmedSlot(_ context.Context, tableID int64, date, bookingTime string, excludeID int64) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.Status == domain.BookingConfirmed && b.TableID == tableID &&
			b.BookingDate == date && b.BookingTime == bookingTime && b.ID != excludeID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) FindConfirmedForCustomerDay(_ context.Context, customerID, restaurantID int64, date string) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.Status == domain.BookingConfirmed && b.CustomerID == customerID &&
			b.RestaurantID == restaurantID && b.BookingDate == date {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) ListByIDs(_ context.Context, ids []int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, id := range ids {
		if b, ok := m.bookings[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) BulkUpdateStatus(_ context.Context, ids []int64, status domain.BookingStatus) error {
	for _, id := range ids {
		if b, ok := m.bookings[id]; ok {
			b.Status = status
			b.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *mockBookingRepo) Search(_ context.Context, f domain.SearchFilter) ([]domain.Booking, int, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if f.RestaurantID > 0 && b.RestaurantID != f.RestaurantID {
			continue
		}
		if f.TableID > 0 && b.TableID != f.TableID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.DateFrom != "" && b.BookingDate < f.DateFrom {
			continue
		}
		if f.DateTo != "" && b.BookingDate > f.DateTo {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

type mockLocker struct {
	contended bool
	acquired  int
	released  int
}

func (m *mockLocker) Acquire(_ context.Context, _ int64, _, _ string) (func(), bool, error) {
	if m.contended {
		return nil, false, nil
	}
	m.acquired++
	return func() { m.released++ }, true, nil
}

type mockPublisher struct {
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// ---------- Fixture ----------

type fixture struct {
	svc       BookingService
	bookings  *mockBookingRepo
	customers *mockCustomerRepo
	locker    *mockLocker
	bus       *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	restaurants := &mockRestaurantRepo{restaurants: map[int64]*domain.Restaurant{
		1: testRestaurant(),
	}}
	customers := newMockCustomerRepo()
	bookings := newMockBookingRepo()
	locker := &mockLocker{}
	bus := &mockPublisher{}

	svc := NewBookingService(restaurants, customers, bookings, locker, bus, fixedClock{fixedNow})
	return &fixture{svc: svc, bookings: bookings, customers: customers, locker: locker, bus: bus}
}

func validCreateReq() domain.CreateBookingRequest {
	return domain.CreateBookingRequest{
		RestaurantID:  1,
		TableID:       10,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "555-0101",
		BookingDate:   "2025-10-15",
		BookingTime:   "19:00",
		PartySize:     4,
	}
}

// ---------- Create ----------

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, booking.Status)
	assert.Equal(t, int64(10), booking.TableID)
	assert.Equal(t, "2025-10-15", booking.BookingDate)
	assert.NotZero(t, booking.CustomerID)
	assert.Contains(t, f.bus.subjects, "booking.created")
	assert.Equal(t, 1, f.locker.released, "slot lock must be released")
}

func TestCreateBookingRejectionLeavesNoCustomer(t *testing.T) {
	f := newFixture(t)

	req := validCreateReq()
	req.PartySize = 5 // exceeds table capacity 4

	_, err := f.svc.Create(context.Background(), req)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleCapacityExceeded, ruleErr.Code)

	c, _ := f.customers.FindByEmail(context.Background(), req.CustomerEmail)
	assert.Nil(t, c, "rejected booking must not create a customer row")
}

func TestCreateBookingSlotConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	req := validCreateReq()
	req.CustomerEmail = "other@example.com"
	req.CustomerName = "Grace Hopper"
	_, err = f.svc.Create(context.Background(), req)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.ConflictSlotTaken, conflict.Code)
}

func TestCreateBookingCustomerDayConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	// Same customer, same restaurant, same day, different slot.
	req := validCreateReq()
	req.BookingTime = "20:00"
	_, err = f.svc.Create(context.Background(), req)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.ConflictCustomerDay, conflict.Code)
}

func TestCreateBookingSlotContended(t *testing.T) {
	f := newFixture(t)
	f.locker.contended = true

	_, err := f.svc.Create(context.Background(), validCreateReq())

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.ConflictSlotContended, conflict.Code)
}

func TestCreateBookingUnknownRestaurantAndTable(t *testing.T) {
	f := newFixture(t)

	req := validCreateReq()
	req.RestaurantID = 99
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrRestaurantNotFound)

	req = validCreateReq()
	req.TableID = 99
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

// ---------- Update ----------

func TestUpdateSpecialRequestsOnly(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	notes := "window seat please"
	updated, err := f.svc.Update(context.Background(), created.ID, domain.BookingPatch{SpecialRequests: &notes})
	require.NoError(t, err)

	assert.Equal(t, notes, updated.SpecialRequests)
	assert.Equal(t, created.TableID, updated.TableID)
	assert.Equal(t, created.BookingDate, updated.BookingDate)
	assert.Equal(t, created.BookingTime, updated.BookingTime)
	assert.Equal(t, created.Status, updated.Status)
}

func TestUpdateCancelledBookingRejected(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)

	notes := "anything"
	_, err = f.svc.Update(context.Background(), created.ID, domain.BookingPatch{SpecialRequests: &notes})

	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleBookingCancelled, ruleErr.Code)
}

func TestUpdateConflictExcludesOwnBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	// Re-validating against its own slot must not self-conflict.
	size := 3
	_, err = f.svc.Update(context.Background(), created.ID, domain.BookingPatch{PartySize: &size})
	assert.NoError(t, err)

	// A second booking occupies 20:00; moving the first one there must conflict.
	other := validCreateReq()
	other.CustomerEmail = "grace@example.com"
	other.CustomerName = "Grace Hopper"
	other.BookingTime = "20:00"
	_, err = f.svc.Create(context.Background(), other)
	require.NoError(t, err)

	moveTo := "20:00"
	_, err = f.svc.Update(context.Background(), created.ID, domain.BookingPatch{BookingTime: &moveTo})

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.ConflictSlotTaken, conflict.Code)
}

func TestUpdateValidatesEffectiveValues(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	// Moving to the inactive table fails even with no other field supplied.
	inactive := int64(11)
	_, err = f.svc.Update(context.Background(), created.ID, domain.BookingPatch{TableID: &inactive})

	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleTableInactive, ruleErr.Code)
}

// ---------- Cancel & status ----------

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Contains(t, f.bus.subjects, "booking.cancelled")
}

func TestCancelAlreadyCancelledRejected(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), created.ID)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleAlreadyCancelled, ruleErr.Code)
}

func TestCancelPastBookingRejected(t *testing.T) {
	f := newFixture(t)

	// Seed a confirmed booking whose date has already passed.
	past, err := f.bookings.Insert(context.Background(), domain.Booking{
		RestaurantID: 1, TableID: 10, CustomerID: 1,
		BookingDate: "2025-10-01", BookingTime: "19:00",
		PartySize: 2, Status: domain.BookingConfirmed,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), past.ID)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RulePastBooking, ruleErr.Code)
}

func TestChangeStatusTransitions(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	completed, err := f.svc.ChangeStatus(context.Background(), created.ID, domain.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, completed.Status)
	assert.Contains(t, f.bus.subjects, "booking.status_changed")

	// Terminal: completed -> no_show is illegal.
	_, err = f.svc.ChangeStatus(context.Background(), created.ID, domain.BookingNoShow)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleIllegalTransition, ruleErr.Code)

	// Re-applying the same terminal status is a no-op success.
	again, err := f.svc.ChangeStatus(context.Background(), created.ID, domain.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, again.Status)
}

func TestChangeStatusCancelTwiceRejected(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateReq())
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(context.Background(), created.ID, domain.BookingCancelled)
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(context.Background(), created.ID, domain.BookingCancelled)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleAlreadyCancelled, ruleErr.Code)
}

// ---------- Bulk ----------

func seedConfirmed(t *testing.T, f *fixture, times ...string) []int64 {
	t.Helper()
	var ids []int64
	for i, at := range times {
		b, err := f.bookings.Insert(context.Background(), domain.Booking{
			RestaurantID: 1, TableID: 10, CustomerID: int64(i + 1),
			BookingDate: "2025-10-15", BookingTime: at,
			PartySize: 2, Status: domain.BookingConfirmed,
		})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	return ids
}

func TestBulkCancelAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ids := seedConfirmed(t, f, "18:00", "19:00", "20:00")

	// Pre-cancel the middle booking.
	_, err := f.bookings.UpdateStatus(context.Background(), ids[1], domain.BookingCancelled)
	require.NoError(t, err)

	_, err = f.svc.BulkCancel(context.Background(), ids)

	var bulkErr *domain.BulkRuleError
	require.True(t, errors.As(err, &bulkErr))
	assert.Equal(t, []int64{ids[1]}, bulkErr.BookingIDs)

	// Nothing was applied: the other two are still confirmed.
	for _, id := range []int64{ids[0], ids[2]} {
		b, err := f.bookings.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, b.Status)
	}
}

func TestBulkCancelSuccess(t *testing.T) {
	f := newFixture(t)
	ids := seedConfirmed(t, f, "18:00", "19:00")

	updated, err := f.svc.BulkCancel(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, b := range updated {
		assert.Equal(t, domain.BookingCancelled, b.Status)
	}
}

func TestBulkUnknownIDsRejected(t *testing.T) {
	f := newFixture(t)
	ids := seedConfirmed(t, f, "18:00")

	_, err := f.svc.BulkChangeStatus(context.Background(), append(ids, 777, 888), domain.BookingCompleted)

	var notFound *domain.BulkNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.ElementsMatch(t, []int64{777, 888}, notFound.BookingIDs)

	b, err := f.bookings.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
}

func TestBulkLimitEnforced(t *testing.T) {
	f := newFixture(t)

	ids := make([]int64, domain.MaxBulkIDs+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	_, err := f.svc.BulkChangeStatus(context.Background(), ids, domain.BookingCompleted)
	var ruleErr *domain.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, domain.RuleBulkLimit, ruleErr.Code)
}

// ---------- Search ----------

func TestSearchPagination(t *testing.T) {
	f := newFixture(t)
	seedConfirmed(t, f, "18:00", "19:00", "20:00")

	result, err := f.svc.Search(context.Background(), domain.SearchFilter{RestaurantID: 1, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.False(t, result.HasMore)
}
