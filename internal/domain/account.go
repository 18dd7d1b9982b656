package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Account is the owner of a cart. Credentials live with the external
// identity provider.
type Account struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserCart links exactly one cart to an account
type UserCart struct {
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const MaxUsernameLength = 150

// Validate checks the write-time invariants of an account
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return NewValidationError("username", "must not be empty")
	}
	if utf8.RuneCountInString(a.Username) > MaxUsernameLength {
		return NewValidationError("username", "must be at most 150 characters")
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}
