package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
)

type BookingRepository interface {
	Insert(ctx context.Context, b domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	FindConfirmedSlot(ctx context.Context, tableID int64, date, bookingTime string, excludeID int64) (*domain.Booking, error)
	FindConfirmedForCustomerDay(ctx context.Context, customerID, restaurantID int64, date string) (*domain.Booking, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Booking, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error
	Search(ctx context.Context, f domain.SearchFilter) ([]domain.Booking, int, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, restaurant_id, table_id, customer_id,
booking_date, booking_time, party_size, status,
special_requests, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.RestaurantID, &b.TableID, &b.CustomerID,
		&b.BookingDate, &b.BookingTime, &b.PartySize, &b.Status,
		&b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Insert(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		restaurant_id, table_id, customer_id,
		booking_date, booking_time, party_size, status, special_requests
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanBooking(r.pool.QueryRow(ctx, q,
		b.RestaurantID, b.TableID, b.CustomerID,
		b.BookingDate, b.BookingTime, b.PartySize, b.Status, b.SpecialRequests,
	))
	if err != nil {
		// The partial unique index on (table_id, booking_date, booking_time)
		// WHERE status='confirmed' is the backstop for the check-then-act race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewConflictError(domain.ConflictSlotTaken,
				"table is already booked for %s at %s", b.BookingDate, b.BookingTime)
		}
		return nil, err
	}
	return created, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET
			table_id         = COALESCE($2, table_id),
			booking_date     = COALESCE($3, booking_date),
			booking_time     = COALESCE($4, booking_time),
			party_size       = COALESCE($5, party_size),
			special_requests = COALESCE($6, special_requests),
			updated_at       = now()
		WHERE id=$1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q,
		id,
		patch.TableID,
		patch.BookingDate,
		patch.BookingTime,
		patch.PartySize,
		patch.SpecialRequests,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewConflictError(domain.ConflictSlotTaken,
				"table is already booked for the requested slot")
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1 RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, status))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) FindConfirmedSlot(ctx context.Context, tableID int64, date, bookingTime string, excludeID int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE table_id=$1 AND booking_date=$2 AND booking_time=$3
		  AND status='confirmed' AND id != $4
		LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, tableID, date, bookingTime, excludeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) FindConfirmedForCustomerDay(ctx context.Context, customerID, restaurantID int64, date string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE customer_id=$1 AND restaurant_id=$2 AND booking_date=$3
		  AND status='confirmed'
		LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, customerID, restaurantID, date))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ANY($1) ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.BookingStatus) error {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, ids, status)
	return err
}

func (r *bookingRepository) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Booking, int, error) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.RestaurantID > 0 {
		add("restaurant_id=$%d", f.RestaurantID)
	}
	if f.TableID > 0 {
		add("table_id=$%d", f.TableID)
	}
	if f.CustomerEmail != "" {
		add("customer_id IN (SELECT id FROM customers WHERE lower(email)=lower($%d))", f.CustomerEmail)
	}
	if f.Status != nil {
		add("status=$%d", *f.Status)
	}
	if f.DateFrom != "" {
		add("booking_date >= $%d", f.DateFrom)
	}
	if f.DateTo != "" {
		add("booking_date <= $%d", f.DateTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > domain.MaxSearchLimit {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + bookingCols + ` FROM bookings` + where +
		fmt.Sprintf(` ORDER BY booking_date DESC, booking_time DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, total, rows.Err()
}
