package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrBookingNotFound    = errors.New("booking not found")
)

// Rule codes carried on RuleError so callers can branch without string-matching
// the message.
const (
	RulePastDate          = "past_date"
	RuleBeyondHorizon     = "beyond_horizon"
	RulePartySize         = "party_size"
	RuleRestaurantClosed  = "restaurant_closed"
	RuleOutsideHours      = "outside_hours"
	RuleTableInactive     = "table_inactive"
	RuleCapacityExceeded  = "capacity_exceeded"
	RuleIllegalTransition = "illegal_transition"
	RuleAlreadyCancelled  = "already_cancelled"
	RuleBookingCancelled  = "booking_cancelled"
	RulePastBooking       = "past_booking"
	RuleBulkLimit         = "bulk_limit"
	RuleInvalidInput      = "invalid_input"
)

// RuleError is a business-rule rejection: expected, recoverable by the caller,
// surfaced as HTTP 400.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func NewRuleError(code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict codes.
const (
	ConflictSlotTaken     = "slot_taken"
	ConflictCustomerDay   = "customer_day_taken"
	ConflictSlotContended = "slot_contended"
)

// ConflictError reports that the requested slot or customer-day is already
// taken, surfaced as HTTP 409 so callers can retry with other parameters.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(code, format string, args ...any) *ConflictError {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// BulkNotFoundError lists every unknown id in a bulk request (HTTP 404).
type BulkNotFoundError struct {
	BookingIDs []int64
}

func (e *BulkNotFoundError) Error() string {
	return "bookings not found: " + joinIDs(e.BookingIDs)
}

// BulkRuleError lists every booking that fails a legality check in a bulk
// request; the whole batch is rejected (HTTP 400).
type BulkRuleError struct {
	Message    string
	BookingIDs []int64
}

func (e *BulkRuleError) Error() string {
	return e.Message + ": " + joinIDs(e.BookingIDs)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
