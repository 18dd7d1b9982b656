package service

import (
	"context"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryProducts is one page of the products below a category together
// with statistics over the whole subtree
type CategoryProducts struct {
	Category   *domain.Category
	Page       domain.Page[*domain.Product]
	Statistics *domain.CatalogStatistics
}

// ProductDetail is a product viewed from a category page
type ProductDetail struct {
	Category   *domain.Category
	Product    *domain.Product
	Categories string
}

// CatalogService serves the public read side of the store
type CatalogService interface {
	Products(ctx context.Context) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]*domain.Category, error)
	RootCategories(ctx context.Context) ([]*domain.CategorySummary, error)
	// CategoryProducts clamps page into range the way a lenient paginator
	// does, so it never fails for a bad page number
	CategoryProducts(ctx context.Context, categoryID uuid.UUID, page int) (*CategoryProducts, error)
	ProductDetail(ctx context.Context, categoryID, productID uuid.UUID) (*ProductDetail, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	reads      repository.ReadRunner
	pageSize   int
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService. pageSize
// applies to CategoryProducts; reads groups the queries behind one page
// into a single snapshot.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	reads repository.ReadRunner,
	pageSize int,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		reads:      reads,
		pageSize:   pageSize,
		logger:     logger,
	}
}

func (s *catalogService) Products(ctx context.Context) ([]*domain.Product, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{}, 1, 0, "name", repository.SortOrderAsc)
	return products, err
}

func (s *catalogService) Categories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx, repository.CategoryFilter{})
}

// RootCategories lists every root with its cumulative product count
func (s *catalogService) RootCategories(ctx context.Context) ([]*domain.CategorySummary, error) {
	summaries, _, err := s.categories.Summaries(ctx, repository.CategoryFilter{RootsOnly: true}, 1, 0)
	return summaries, err
}

// CategoryProducts reads the category, its statistics and the page from one
// snapshot so the clamped page and the counts agree.
func (s *catalogService) CategoryProducts(ctx context.Context, categoryID uuid.UUID, page int) (*CategoryProducts, error) {
	var view *CategoryProducts
	err := s.reads.InReadTx(ctx, func(ctx context.Context) error {
		category, err := s.categories.FindByID(ctx, categoryID)
		if err != nil {
			return err
		}

		stats, err := s.products.SubtreeStatistics(ctx, categoryID)
		if err != nil {
			return err
		}

		page = domain.ClampPage(page, stats.TotalProducts, s.pageSize)
		filter := repository.ProductFilter{SubtreeOf: &categoryID}
		items, total, err := s.products.List(ctx, filter, page, s.pageSize, "name", repository.SortOrderAsc)
		if err != nil {
			return err
		}

		view = &CategoryProducts{
			Category: category,
			Page: domain.Page[*domain.Product]{
				Items:      items,
				Number:     page,
				PageSize:   s.pageSize,
				TotalItems: total,
			},
			Statistics: stats,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Category products listed",
		zap.String("category_id", categoryID.String()),
		zap.Int("page", view.Page.Number),
		zap.Int("total", view.Page.TotalItems),
	)
	return view, nil
}

// ProductDetail fails with a not-found error when either the category or
// the product does not exist
func (s *catalogService) ProductDetail(ctx context.Context, categoryID, productID uuid.UUID) (*ProductDetail, error) {
	var detail *ProductDetail
	err := s.reads.InReadTx(ctx, func(ctx context.Context) error {
		category, err := s.categories.FindByID(ctx, categoryID)
		if err != nil {
			return err
		}

		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		detail = &ProductDetail{
			Category:   category,
			Product:    product,
			Categories: product.CategoryNames(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
