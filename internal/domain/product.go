package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// PriceScale is the number of fractional digits a price carries
	PriceScale = 2

	// PricePrecision is the total number of significant digits a price may have
	PricePrecision = 7

	MaxProductNameLength  = 255
	MaxManufacturerLength = 100
)

// MaxPrice is the largest price that fits DECIMAL(7,2)
var MaxPrice = decimal.New(9999999, -PriceScale)

// Product represents a product in the catalog
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   *string         `json:"description" db:"description"`
	Manufacturer  string          `json:"manufacturer" db:"manufacturer"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Image         *string         `json:"image" db:"image"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	// Categories is populated by the repository; on writes it is ignored in
	// favour of CategoryIDs.
	Categories  []CategoryRef `json:"categories" db:"-"`
	CategoryIDs []uuid.UUID   `json:"-" db:"-"`
}

// CategoryRef is the short form of a category embedded in other records
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TotalValue returns price multiplied by the quantity in stock
func (p *Product) TotalValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

// CategoryNames joins the names of the product's categories with ", "
func (p *Product) CategoryNames() string {
	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// Validate checks the write-time invariants of a product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(p.Name) > MaxProductNameLength {
		return NewValidationError("name", "must be at most 255 characters")
	}
	if utf8.RuneCountInString(p.Manufacturer) > MaxManufacturerLength {
		return NewValidationError("manufacturer", "must be at most 100 characters")
	}
	if p.StockQuantity < 0 {
		return NewValidationError("stock_quantity", "must not be negative")
	}
	return ValidatePrice(p.Price)
}

// ValidatePrice checks that price is non-negative, has at most two
// fractional digits and fits seven significant digits.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return NewValidationError("price", "must have at most 2 decimal places")
	}
	if price.GreaterThan(MaxPrice) {
		return NewValidationError("price", "must have at most 7 digits")
	}
	return nil
}

// ParsePrice parses a decimal string into a validated price
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, NewValidationError("price", "must be a decimal number")
	}
	if err := ValidatePrice(price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}
