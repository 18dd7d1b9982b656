package service

import (
	"context"
	"fmt"
	"time"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput carries the writable fields of a product
type ProductInput struct {
	Name          string
	Description   *string
	Manufacturer  string
	Price         decimal.Decimal
	StockQuantity int
	Image         *string
	IsActive      *bool
	CategoryIDs   []uuid.UUID
}

// ProductRow is a product as shown in the admin listing
type ProductRow struct {
	Product *domain.Product
	// SiteURL links to the public detail page under the root of the
	// product's first category; empty for uncategorised products.
	SiteURL string
}

// ProductService defines the interface for product administration
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter, page int) (domain.Page[*ProductRow], error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	pageSize   int
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	pageSize int,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		pageSize:   pageSize,
		logger:     logger,
	}
}

func (in ProductInput) apply(product *domain.Product) {
	product.Name = in.Name
	product.Description = in.Description
	product.Manufacturer = in.Manufacturer
	product.Price = in.Price
	product.StockQuantity = in.StockQuantity
	product.Image = in.Image
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.CategoryIDs = dedupeIDs(in.CategoryIDs)
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Create validates and stores a new product with its category links
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(product)

	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
		zap.Int("categories", len(product.CategoryIDs)),
	)
	return s.products.FindByID(ctx, product.ID)
}

// Update replaces every writable field, including category links
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input.apply(product)
	product.UpdatedAt = time.Now()

	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

// UpdateInventory edits stock and/or price in place
func (s *productService) UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) (*domain.Product, error) {
	if stock == nil && price == nil {
		return nil, domain.NewValidationError("body", "stock_quantity or price is required")
	}
	if stock != nil && *stock < 0 {
		return nil, domain.NewValidationError("stock_quantity", "must not be negative")
	}
	if price != nil {
		if err := domain.ValidatePrice(*price); err != nil {
			return nil, err
		}
	}

	if err := s.products.UpdateInventory(ctx, id, stock, price); err != nil {
		return nil, err
	}

	s.logger.Info("Product inventory updated", zap.String("product_id", id.String()))
	return s.products.FindByID(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// List returns one admin page ordered by stock ascending
func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page int) (domain.Page[*ProductRow], error) {
	if page < 1 {
		page = 1
	}

	products, total, err := s.products.List(ctx, filter, page, s.pageSize, "stock_quantity", repository.SortOrderAsc)
	if err != nil {
		return domain.Page[*ProductRow]{}, err
	}

	rows := make([]*ProductRow, 0, len(products))
	for _, p := range products {
		row := &ProductRow{Product: p}
		if len(p.Categories) > 0 {
			root, err := s.categories.RootOf(ctx, p.Categories[0].ID)
			if err != nil {
				return domain.Page[*ProductRow]{}, fmt.Errorf("failed to resolve site url: %w", err)
			}
			row.SiteURL = ProductURL(root.ID, p.ID)
		}
		rows = append(rows, row)
	}

	return domain.Page[*ProductRow]{
		Items:      rows,
		Number:     page,
		PageSize:   s.pageSize,
		TotalItems: total,
	}, nil
}

// ProductURL is the public detail path of a product under a category
func ProductURL(categoryID, productID uuid.UUID) string {
	return fmt.Sprintf("/category/%s/products/%s/", categoryID, productID)
}
