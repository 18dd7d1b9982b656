package domain

import (
	"github.com/shopspring/decimal"
)

// CatalogStatistics summarises a set of products. Max, Min and Avg are nil
// when the set is empty.
type CatalogStatistics struct {
	TotalValue    decimal.Decimal
	MaxPrice      *decimal.Decimal
	MinPrice      *decimal.Decimal
	AvgPrice      *decimal.Decimal
	TotalProducts int
}

// Page is one page of a paginated listing
type Page[T any] struct {
	Items      []T
	Number     int
	PageSize   int
	TotalItems int
}

// NumPages returns the page count, which is at least 1
func (p Page[T]) NumPages() int {
	if p.PageSize <= 0 || p.TotalItems == 0 {
		return 1
	}
	return (p.TotalItems + p.PageSize - 1) / p.PageSize
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages()
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// ClampPage maps a requested page number into [1, pages]. Any number
// outside that range resolves to the last page; callers treat an unparsable
// number as 1.
func ClampPage(requested, totalItems, pageSize int) int {
	pages := Page[struct{}]{PageSize: pageSize, TotalItems: totalItems}.NumPages()
	if requested < 1 || requested > pages {
		return pages
	}
	return requested
}
