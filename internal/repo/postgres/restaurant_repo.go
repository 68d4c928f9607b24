package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
)

type RestaurantRepository interface {
	List(ctx context.Context, limit, offset int) ([]domain.Restaurant, error)
	GetByID(ctx context.Context, id int64) (*domain.Restaurant, error)
	// GetWithDetails loads the restaurant together with its opening hours and
	// tables, which the availability rules need as one unit.
	GetWithDetails(ctx context.Context, id int64) (*domain.Restaurant, error)
}

type restaurantRepository struct {
	pool *pgxpool.Pool
}

func NewRestaurantRepository(pool *pgxpool.Pool) RestaurantRepository {
	return &restaurantRepository{pool: pool}
}

const restaurantCols = `id, name, cuisine, address, phone, description, created_at`

func (r *restaurantRepository) List(ctx context.Context, limit, offset int) ([]domain.Restaurant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + restaurantCols + ` FROM restaurants ORDER BY name LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(
			&rest.ID, &rest.Name, &rest.Cuisine, &rest.Address,
			&rest.Phone, &rest.Description, &rest.CreatedAt,
		); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, rows.Err()
}

func (r *restaurantRepository) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	const q = `SELECT ` + restaurantCols + ` FROM restaurants WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rest domain.Restaurant
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rest.ID, &rest.Name, &rest.Cuisine, &rest.Address,
		&rest.Phone, &rest.Description, &rest.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *restaurantRepository) GetWithDetails(ctx context.Context, id int64) (*domain.Restaurant, error) {
	rest, err := r.GetByID(ctx, id)
	if err != nil || rest == nil {
		return rest, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const hoursQ = `SELECT id, restaurant_id, day_of_week, open_time, close_time, is_closed
		FROM opening_hours WHERE restaurant_id=$1 ORDER BY day_of_week`
	rows, err := r.pool.Query(ctx, hoursQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var h domain.OpeningHours
		if err := rows.Scan(&h.ID, &h.RestaurantID, &h.DayOfWeek, &h.OpenTime, &h.CloseTime, &h.IsClosed); err != nil {
			return nil, err
		}
		rest.OpeningHours = append(rest.OpeningHours, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const tablesQ = `SELECT id, restaurant_id, name, capacity, is_active
		FROM tables WHERE restaurant_id=$1 ORDER BY id`
	rows, err = r.pool.Query(ctx, tablesQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Capacity, &t.IsActive); err != nil {
			return nil, err
		}
		rest.Tables = append(rest.Tables, t)
	}
	return rest, rows.Err()
}
