package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	MaxCategoryNameLength = 100
	MaxCategorySlugLength = 120
)

// CategorySlug derives the URL slug of a category name. Slugs are not
// unique: "Phones" and "phones!" share one, and symbol-only names yield "".
// Transliteration can expand a name, so the result is cut to the column size.
func CategorySlug(name string) string {
	s := slug.Make(name)
	if utf8.RuneCountInString(s) <= MaxCategorySlugLength {
		return s
	}
	return strings.TrimRight(string([]rune(s)[:MaxCategorySlugLength]), "-")
}

// Category represents a node in a product category tree.
//
// Lft, Rght, TreeID and Level are the nested-set bounds maintained by the
// repository: a category Y is a descendant of X iff they share TreeID and
// X.Lft < Y.Lft && Y.Rght < X.Rght.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id"`
	Description string     `json:"description" db:"description"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	Lft         int        `json:"-" db:"lft"`
	Rght        int        `json:"-" db:"rght"`
	TreeID      int        `json:"-" db:"tree_id"`
	Level       int        `json:"-" db:"level"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// Parent is filled in by listing queries that join the parent row
	Parent *CategoryRef `json:"-" db:"-"`
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// Contains reports whether other lies strictly inside c's subtree
func (c *Category) Contains(other *Category) bool {
	return c.TreeID == other.TreeID && c.Lft < other.Lft && other.Rght < c.Rght
}

// DescendantCount is derivable from the bounds without a query
func (c *Category) DescendantCount() int {
	return (c.Rght - c.Lft - 1) / 2
}

// Validate checks the write-time invariants of a category
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(c.Name) > MaxCategoryNameLength {
		return NewValidationError("name", "must be at most 100 characters")
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return NewValidationError("parent_id", "category cannot be its own parent")
	}
	return nil
}

// CategorySummary is a category annotated with product counts
type CategorySummary struct {
	Category                *Category
	RootName                *string
	ProductsCount           int
	ProductsCumulativeCount int
}
