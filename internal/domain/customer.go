package domain

import "time"

// Customer is identified by email; the row is created lazily the first time an
// email books and is never deleted.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
