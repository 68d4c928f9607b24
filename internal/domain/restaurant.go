package domain

import "time"

type Restaurant struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Cuisine      string         `json:"cuisine"`
	Address      string         `json:"address"`
	Phone        string         `json:"phone"`
	Description  string         `json:"description"`
	OpeningHours []OpeningHours `json:"opening_hours,omitempty"`
	Tables       []Table        `json:"tables,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// OpeningHours holds one weekday's hours. DayOfWeek follows time.Weekday
// numbering: 0=Sunday .. 6=Saturday. At most one row per restaurant per day.
type OpeningHours struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	DayOfWeek    int    `json:"day_of_week"`
	OpenTime     string `json:"open_time"`  // "HH:MM"
	CloseTime    string `json:"close_time"` // "HH:MM", "00:00" means midnight end-of-day
	IsClosed     bool   `json:"is_closed"`
}

type Table struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	IsActive     bool   `json:"is_active"`
}

// HoursFor returns the opening-hours row for a weekday, or nil when the
// restaurant has no entry for that day.
func (r *Restaurant) HoursFor(dayOfWeek int) *OpeningHours {
	for i := range r.OpeningHours {
		if r.OpeningHours[i].DayOfWeek == dayOfWeek {
			return &r.OpeningHours[i]
		}
	}
	return nil
}

// TableByID returns the restaurant's table with the given id, or nil.
func (r *Restaurant) TableByID(tableID int64) *Table {
	for i := range r.Tables {
		if r.Tables[i].ID == tableID {
			return &r.Tables[i]
		}
	}
	return nil
}
