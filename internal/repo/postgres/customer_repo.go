package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
)

type CustomerRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Create(ctx context.Context, name, email, phone string) (*domain.Customer, error)
	UpdateContact(ctx context.Context, id int64, name, phone *string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerCols = `id, name, email, phone, created_at`

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `SELECT ` + customerCols + ` FROM customers WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Customer
	err := r.pool.QueryRow(ctx, q, email).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, name, email, phone string) (*domain.Customer, error) {
	const q = `INSERT INTO customers (name, email, phone) VALUES ($1,$2,$3)
		RETURNING ` + customerCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Customer
	err := r.pool.QueryRow(ctx, q, name, email, phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) UpdateContact(ctx context.Context, id int64, name, phone *string) (*domain.Customer, error) {
	const q = `UPDATE customers SET
			name  = COALESCE($2, name),
			phone = COALESCE($3, phone)
		WHERE id=$1
		RETURNING ` + customerCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Customer
	err := r.pool.QueryRow(ctx, q, id, name, phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
