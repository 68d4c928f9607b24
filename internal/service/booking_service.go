package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/repo/postgres"
	"github.com/RickGCartmanland/my-free-table/internal/slotlock"
	"github.com/RickGCartmanland/my-free-table/pkg/events"
	"github.com/RickGCartmanland/my-free-table/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (*domain.Booking, error)
	ChangeStatus(ctx context.Context, id int64, target domain.BookingStatus) (*domain.Booking, error)
	BulkChangeStatus(ctx context.Context, ids []int64, target domain.BookingStatus) ([]domain.Booking, error)
	BulkCancel(ctx context.Context, ids []int64) ([]domain.Booking, error)
	Search(ctx context.Context, f domain.SearchFilter) (*domain.SearchResult, error)
}

type bookingService struct {
	restaurantRepo postgres.RestaurantRepository
	customerRepo   postgres.CustomerRepository
	bookingRepo    postgres.BookingRepository
	slots          slotlock.Locker
	eventBus       events.Publisher
	clock          domain.Clock
}

func NewBookingService(
	restaurantRepo postgres.RestaurantRepository,
	customerRepo postgres.CustomerRepository,
	bookingRepo postgres.BookingRepository,
	slots slotlock.Locker,
	eventBus events.Publisher,
	clock domain.Clock,
) BookingService {
	return &bookingService{
		restaurantRepo: restaurantRepo,
		customerRepo:   customerRepo,
		bookingRepo:    bookingRepo,
		slots:          slots,
		eventBus:       eventBus,
		clock:          clock,
	}
}

func (s *bookingService) Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error) {
	if strings.TrimSpace(req.CustomerEmail) == "" || strings.TrimSpace(req.CustomerName) == "" {
		return nil, domain.NewRuleError(domain.RuleInvalidInput, "customer name and email are required")
	}

	restaurant, err := s.restaurantRepo.GetWithDetails(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}

	table := restaurant.TableByID(req.TableID)
	if table == nil {
		return nil, domain.ErrTableNotFound
	}

	if err := CheckAvailability(restaurant, table, req.BookingDate, req.BookingTime, req.PartySize, s.clock.Now()); err != nil {
		return nil, err
	}

	release, ok, err := s.slots.Acquire(ctx, req.TableID, req.BookingDate, req.BookingTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewConflictError(domain.ConflictSlotContended,
			"another booking for this slot is in progress, try again")
	}
	defer release()

	if existing, err := s.bookingRepo.FindConfirmedSlot(ctx, req.TableID, req.BookingDate, req.BookingTime, 0); err != nil {
		return nil, fmt.Errorf("slot conflict check failed: %w", err)
	} else if existing != nil {
		return nil, domain.NewConflictError(domain.ConflictSlotTaken,
			"table is already booked for %s at %s", req.BookingDate, req.BookingTime)
	}

	customer, err := s.customerRepo.FindByEmail(ctx, req.CustomerEmail)
	if err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer != nil {
		if existing, err := s.bookingRepo.FindConfirmedForCustomerDay(ctx, customer.ID, req.RestaurantID, req.BookingDate); err != nil {
			return nil, fmt.Errorf("customer-day conflict check failed: %w", err)
		} else if existing != nil {
			return nil, domain.NewConflictError(domain.ConflictCustomerDay,
				"customer already has a confirmed booking at this restaurant on %s", req.BookingDate)
		}
	} else {
		// The customer row is only written once every check has passed, so a
		// rejected booking leaves no orphan customer behind.
		customer, err = s.customerRepo.Create(ctx, req.CustomerName, req.CustomerEmail, req.CustomerPhone)
		if err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
	}

	booking, err := s.bookingRepo.Insert(ctx, domain.Booking{
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		CustomerID:      customer.ID,
		BookingDate:     req.BookingDate,
		BookingTime:     req.BookingTime,
		PartySize:       req.PartySize,
		Status:          domain.BookingConfirmed,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}

	event := events.BookingCreatedEvent{
		BookingID:     booking.ID,
		RestaurantID:  booking.RestaurantID,
		TableID:       booking.TableID,
		CustomerEmail: customer.Email,
		BookingDate:   booking.BookingDate,
		BookingTime:   booking.BookingTime,
		PartySize:     booking.PartySize,
		CreatedAt:     booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.BookingCancelled {
		return nil, domain.NewRuleError(domain.RuleBookingCancelled, "cannot modify a cancelled booking")
	}

	restaurant, err := s.restaurantRepo.GetWithDetails(ctx, existing.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}

	// Effective values: each omitted field keeps the current one, and the
	// combined result must pass the same rules as a fresh booking.
	tableID := existing.TableID
	if patch.TableID != nil {
		tableID = *patch.TableID
	}
	table := restaurant.TableByID(tableID)
	if table == nil {
		return nil, domain.ErrTableNotFound
	}

	date := existing.BookingDate
	if patch.BookingDate != nil {
		date = *patch.BookingDate
	}
	bookingTime := existing.BookingTime
	if patch.BookingTime != nil {
		bookingTime = *patch.BookingTime
	}
	partySize := existing.PartySize
	if patch.PartySize != nil {
		partySize = *patch.PartySize
	}

	if err := CheckAvailability(restaurant, table, date, bookingTime, partySize, s.clock.Now()); err != nil {
		return nil, err
	}

	release, ok, err := s.slots.Acquire(ctx, tableID, date, bookingTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewConflictError(domain.ConflictSlotContended,
			"another booking for this slot is in progress, try again")
	}
	defer release()

	if conflict, err := s.bookingRepo.FindConfirmedSlot(ctx, tableID, date, bookingTime, existing.ID); err != nil {
		return nil, fmt.Errorf("slot conflict check failed: %w", err)
	} else if conflict != nil {
		return nil, domain.NewConflictError(domain.ConflictSlotTaken,
			"table is already booked for %s at %s", date, bookingTime)
	}

	if patch.CustomerName != nil || patch.CustomerPhone != nil {
		if _, err := s.customerRepo.UpdateContact(ctx, existing.CustomerID, patch.CustomerName, patch.CustomerPhone); err != nil {
			return nil, fmt.Errorf("failed to update customer contact: %w", err)
		}
	}

	updated, err := s.bookingRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrBookingNotFound
	}

	if changes := detectChanges(existing, updated); len(changes) > 0 {
		event := events.BookingUpdatedEvent{
			BookingID: updated.ID,
			Changes:   changes,
			UpdatedAt: updated.UpdatedAt,
		}
		if err := s.eventBus.Publish(ctx, events.BookingUpdated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking updated event", "error", err, "booking_id", updated.ID)
		}
	}

	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingCancelled {
		return nil, domain.NewRuleError(domain.RuleAlreadyCancelled, "booking is already cancelled")
	}
	if booking.Status.IsTerminal() {
		return nil, domain.NewRuleError(domain.RuleIllegalTransition,
			"cannot cancel a %s booking", booking.Status)
	}
	if err := s.rejectPastDated(booking); err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, id, domain.BookingCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrBookingNotFound
	}

	event := events.BookingCancelledEvent{
		BookingID:   updated.ID,
		BookingDate: updated.BookingDate,
		BookingTime: updated.BookingTime,
		CancelledAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, id int64, target domain.BookingStatus) (*domain.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == target {
		if target == domain.BookingCancelled {
			return nil, domain.NewRuleError(domain.RuleAlreadyCancelled, "booking is already cancelled")
		}
		// Re-applying the same terminal status is a no-op.
		return booking, nil
	}

	if !booking.Status.CanTransitionTo(target) {
		return nil, domain.NewRuleError(domain.RuleIllegalTransition,
			"cannot change status of %s booking to %s", booking.Status, target)
	}

	if target == domain.BookingCancelled {
		if err := s.rejectPastDated(booking); err != nil {
			return nil, err
		}
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, id, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrBookingNotFound
	}

	event := events.BookingStatusChangedEvent{
		BookingID: updated.ID,
		OldStatus: string(booking.Status),
		NewStatus: string(updated.Status),
		ChangedAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish status changed event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) Search(ctx context.Context, f domain.SearchFilter) (*domain.SearchResult, error) {
	if f.Limit <= 0 || f.Limit > domain.MaxSearchLimit {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	bookings, total, err := s.bookingRepo.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("booking search failed: %w", err)
	}

	return &domain.SearchResult{
		Bookings: bookings,
		Total:    total,
		HasMore:  f.Offset+len(bookings) < total,
	}, nil
}

// rejectPastDated blocks cancellation of history.
func (s *bookingService) rejectPastDated(b *domain.Booking) error {
	day, err := domain.ParseDate(b.BookingDate)
	if err != nil {
		return domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}
	if domain.IsPastDate(day, s.clock.Now()) {
		return domain.NewRuleError(domain.RulePastBooking, "cannot cancel a booking whose date has passed")
	}
	return nil
}

func detectChanges(old, new *domain.Booking) []string {
	var changes []string

	if old.TableID != new.TableID {
		changes = append(changes, "table_id")
	}
	if old.BookingDate != new.BookingDate {
		changes = append(changes, "booking_date")
	}
	if old.BookingTime != new.BookingTime {
		changes = append(changes, "booking_time")
	}
	if old.PartySize != new.PartySize {
		changes = append(changes, "party_size")
	}
	if old.SpecialRequests != new.SpecialRequests {
		changes = append(changes, "special_requests")
	}

	return changes
}
