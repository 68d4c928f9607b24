package service

import (
	"context"
	"fmt"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/pkg/events"
	"github.com/RickGCartmanland/my-free-table/pkg/logger"
)

// BulkChangeStatus applies one status change to a bounded batch of bookings.
// Validation is all-or-nothing: any unknown id or any illegal item rejects the
// whole batch, with every offending id reported, and nothing is written.
func (s *bookingService) BulkChangeStatus(ctx context.Context, ids []int64, target domain.BookingStatus) ([]domain.Booking, error) {
	if len(ids) == 0 {
		return nil, domain.NewRuleError(domain.RuleInvalidInput, "booking_ids is required")
	}
	if len(ids) > domain.MaxBulkIDs {
		return nil, domain.NewRuleError(domain.RuleBulkLimit,
			"at most %d bookings per bulk operation", domain.MaxBulkIDs)
	}

	bookings, err := s.bookingRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	found := make(map[int64]domain.Booking, len(bookings))
	for _, b := range bookings {
		found[b.ID] = b
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.BulkNotFoundError{BookingIDs: missing}
	}

	var offenders []int64
	for _, id := range ids {
		b := found[id]
		if !b.Status.CanTransitionTo(target) {
			offenders = append(offenders, id)
			continue
		}
		if target == domain.BookingCancelled {
			if err := s.rejectPastDated(&b); err != nil {
				offenders = append(offenders, id)
			}
		}
	}
	if len(offenders) > 0 {
		return nil, &domain.BulkRuleError{
			Message:    fmt.Sprintf("bookings cannot transition to %s", target),
			BookingIDs: offenders,
		}
	}

	if err := s.bookingRepo.BulkUpdateStatus(ctx, ids, target); err != nil {
		return nil, fmt.Errorf("bulk status update failed: %w", err)
	}

	updated, err := s.bookingRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bookings: %w", err)
	}

	for _, b := range updated {
		event := events.BookingStatusChangedEvent{
			BookingID: b.ID,
			OldStatus: string(found[b.ID].Status),
			NewStatus: string(b.Status),
			ChangedAt: b.UpdatedAt,
		}
		if err := s.eventBus.Publish(ctx, events.BookingStatusChanged, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish status changed event", "error", err, "booking_id", b.ID)
		}
	}

	return updated, nil
}

// BulkCancel is bulk status-update with an implicit cancelled target.
func (s *bookingService) BulkCancel(ctx context.Context, ids []int64) ([]domain.Booking, error) {
	return s.BulkChangeStatus(ctx, ids, domain.BookingCancelled)
}
