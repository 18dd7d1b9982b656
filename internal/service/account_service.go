package service

import (
	"context"
	"time"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/metrics"
	"ecommerce-platform/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountInput carries the writable fields of an account
type AccountInput struct {
	Username string
	Email    string
}

// AccountService defines the interface for account business logic
type AccountService interface {
	// Create stores the account and runs the creation hooks in the same
	// transaction
	Create(ctx context.Context, input AccountInput) (*domain.Account, error)
	Update(ctx context.Context, id uuid.UUID, input AccountInput) (*domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Cart(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error)
}

type accountService struct {
	accounts repository.AccountRepository
	carts    repository.CartRepository
	hooks    []repository.AccountCreatedHook
	logger   *zap.Logger
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(
	accounts repository.AccountRepository,
	carts repository.CartRepository,
	logger *zap.Logger,
	hooks ...repository.AccountCreatedHook,
) AccountService {
	return &accountService{
		accounts: accounts,
		carts:    carts,
		hooks:    hooks,
		logger:   logger,
	}
}

// CartProvisioner returns the hook that gives a new account its cart. It is
// idempotent: an account that already has a cart is left unchanged.
func CartProvisioner(carts repository.CartRepository, logger *zap.Logger) repository.AccountCreatedHook {
	return func(ctx context.Context, tx repository.DBTX, account *domain.Account) error {
		created, err := carts.Provision(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if created {
			metrics.CartsProvisioned.Inc()
			logger.Debug("Cart provisioned", zap.String("account_id", account.ID.String()))
		}
		return nil
	}
}

func (s *accountService) Create(ctx context.Context, input AccountInput) (*domain.Account, error) {
	now := time.Now()
	account := &domain.Account{
		ID:        uuid.New(),
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account, s.hooks...); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("username", account.Username),
	)
	return account, nil
}

// Update never provisions a cart
func (s *accountService) Update(ctx context.Context, id uuid.UUID, input AccountInput) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Username = input.Username
	account.Email = input.Email
	account.UpdatedAt = time.Now()

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

func (s *accountService) Cart(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.carts.FindByAccountID(ctx, accountID)
}
