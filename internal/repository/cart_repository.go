package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecommerce-platform/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound      = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrCartAlreadyExists = fmt.Errorf("cart for this account %w", domain.ErrConflict)
)

// CartRepository defines the interface for user cart data access
type CartRepository interface {
	// Create fails with ErrCartAlreadyExists when the account has a cart
	Create(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error)
	// Provision creates the cart unless one exists and reports whether it
	// inserted a row. It runs on q so it can join a caller's transaction.
	Provision(ctx context.Context, q DBTX, accountID uuid.UUID) (bool, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	cart := &domain.UserCart{AccountID: accountID, CreatedAt: time.Now()}

	query := `INSERT INTO user_carts (account_id, created_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, cart.AccountID, cart.CreatedAt); err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrCartAlreadyExists
		case isForeignKeyViolation(err):
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Provision(ctx context.Context, q DBTX, accountID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO user_carts (account_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO NOTHING
	`
	result, err := q.ExecContext(ctx, query, accountID, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("failed to provision cart: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *cartRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	query := `SELECT account_id, created_at FROM user_carts WHERE account_id = $1`

	cart := &domain.UserCart{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&cart.AccountID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return cart, nil
}
