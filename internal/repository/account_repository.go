package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-platform/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound      = fmt.Errorf("account %w", domain.ErrNotFound)
	ErrAccountAlreadyExists = fmt.Errorf("account with this username %w", domain.ErrConflict)
)

// AccountCreatedHook runs inside the transaction that inserted account. An
// error from any hook rolls the insert back.
type AccountCreatedHook func(ctx context.Context, tx DBTX, account *domain.Account) error

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account, hooks ...AccountCreatedHook) error
	Update(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type accountRepository struct {
	db *sql.DB
	tx TxRunner
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db, tx: NewTxRunner(db)}
}

// Create inserts a new account and runs hooks after the insert succeeds
func (r *accountRepository) Create(ctx context.Context, account *domain.Account, hooks ...AccountCreatedHook) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO accounts (id, username, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err := tx.ExecContext(
			ctx,
			query,
			account.ID,
			account.Username,
			account.Email,
			account.CreatedAt,
			account.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAccountAlreadyExists
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		for _, hook := range hooks {
			if err := hook(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update changes an existing account. It never runs creation hooks.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET username = $2, email = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, account.ID, account.Username, account.Email, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// FindByID retrieves an account by ID
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, username, email, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account := &domain.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}
