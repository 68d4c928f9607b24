package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// validTransitions is the authoritative state machine definition. Confirmed is
// the only non-terminal state; no_show is treated as terminal like the other
// end states.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingConfirmed: {BookingCancelled, BookingCompleted, BookingNoShow},
}

// IsTerminal reports whether no further transition is permitted out of s.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// CanTransitionTo reports whether s -> target is a legal status change.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              int64         `json:"id"`
	RestaurantID    int64         `json:"restaurant_id"`
	TableID         int64         `json:"table_id"`
	CustomerID      int64         `json:"customer_id"`
	BookingDate     string        `json:"booking_date"` // "YYYY-MM-DD"
	BookingTime     string        `json:"booking_time"` // "HH:MM"
	PartySize       int           `json:"party_size"`
	Status          BookingStatus `json:"status"`
	SpecialRequests string        `json:"special_requests"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type CreateBookingRequest struct {
	RestaurantID    int64  `json:"restaurant_id"`
	TableID         int64  `json:"table_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	PartySize       int    `json:"party_size"`
	SpecialRequests string `json:"special_requests"`
}

// BookingPatch carries a partial update; nil fields keep the existing value.
type BookingPatch struct {
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	TableID         *int64  `json:"table_id,omitempty"`
	BookingDate     *string `json:"booking_date,omitempty"`
	BookingTime     *string `json:"booking_time,omitempty"`
	PartySize       *int    `json:"party_size,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

// SearchFilter narrows a booking search; zero values mean "no filter".
type SearchFilter struct {
	RestaurantID  int64
	TableID       int64
	CustomerEmail string
	Status        *BookingStatus
	DateFrom      string
	DateTo        string
	Limit         int
	Offset        int
}

type SearchResult struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// Business rules
const (
	MinPartySize = 1
	MaxPartySize = 20
	// HorizonDays is how far into the future a booking may be placed.
	HorizonDays = 90
	// LastSeatingOffsetMinutes: the last acceptable booking start is this many
	// minutes before closing, to guarantee a minimum dining window.
	LastSeatingOffsetMinutes = 60
	// MaxBulkIDs bounds a single bulk status operation.
	MaxBulkIDs = 50
	// MaxSearchLimit caps one page of search results.
	MaxSearchLimit = 100
)
