package service

import (
	"time"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
)

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// CheckAvailability decides whether a proposed reservation is admissible. The
// checks run in a fixed order and short-circuit on the first failure, so the
// rejection a caller sees is deterministic.
func CheckAvailability(restaurant *domain.Restaurant, table *domain.Table, date, bookingTime string, partySize int, now time.Time) error {
	day, err := domain.ParseDate(date)
	if err != nil {
		return domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}

	if domain.IsPastDate(day, now) {
		return domain.NewRuleError(domain.RulePastDate, "booking date %s is in the past", date)
	}

	if !domain.WithinHorizon(day, now, domain.HorizonDays) {
		return domain.NewRuleError(domain.RuleBeyondHorizon,
			"bookings can be made at most %d days in advance", domain.HorizonDays)
	}

	if partySize < domain.MinPartySize || partySize > domain.MaxPartySize {
		return domain.NewRuleError(domain.RulePartySize,
			"party size must be between %d and %d", domain.MinPartySize, domain.MaxPartySize)
	}

	dayOfWeek := int(day.Weekday())
	hours := restaurant.HoursFor(dayOfWeek)
	if hours == nil || hours.IsClosed {
		return domain.NewRuleError(domain.RuleRestaurantClosed,
			"%s is closed on %s", restaurant.Name, weekdayNames[dayOfWeek])
	}

	openMinutes, err := domain.ToMinutes(hours.OpenTime)
	if err != nil {
		return domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}
	closingBoundary, err := domain.ClosingBoundaryMinutes(hours.CloseTime)
	if err != nil {
		return domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}
	requested, err := domain.ToMinutes(bookingTime)
	if err != nil {
		return domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}

	lastSeating := closingBoundary - domain.LastSeatingOffsetMinutes
	if requested < openMinutes || requested > lastSeating {
		return domain.NewRuleError(domain.RuleOutsideHours,
			"%s is open %s to %s on %s; the last seating is one hour before closing",
			restaurant.Name, hours.OpenTime, hours.CloseTime, weekdayNames[dayOfWeek])
	}

	if !table.IsActive {
		return domain.NewRuleError(domain.RuleTableInactive,
			"table %q is not accepting bookings", table.Name)
	}

	if partySize > table.Capacity {
		return domain.NewRuleError(domain.RuleCapacityExceeded,
			"party size %d exceeds table capacity (max %d)", partySize, table.Capacity)
	}

	return nil
}
