package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecommerce-platform/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrUnknownCategory = &domain.ValidationError{Field: "category_ids", Message: "references a category that does not exist"}
	ErrInvalidProduct  = &domain.ValidationError{Field: "product", Message: "violates a stock or price constraint"}
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows product listings. SubtreeOf matches products linked
// to the category or any of its descendants; CategoryID matches only direct
// links.
type ProductFilter struct {
	Active       *bool
	CategoryID   *uuid.UUID
	SubtreeOf    *uuid.UUID
	Search       string
	Manufacturer string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)
	SubtreeStatistics(ctx context.Context, categoryID uuid.UUID) (*domain.CatalogStatistics, error)
}

type productRepository struct {
	db *sql.DB
	tx TxRunner
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db, tx: NewTxRunner(db)}
}

const productColumns = `
	p.id, p.name, p.description, p.manufacturer, p.price, p.stock_quantity,
	p.image, p.is_active, p.created_at, p.updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var description, image sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Manufacturer,
		&product.Price,
		&product.StockQuantity,
		&image,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		product.Description = &description.String
	}
	if image.Valid {
		product.Image = &image.String
	}
	product.Categories = []domain.CategoryRef{}
	return product, nil
}

func mapProductWriteError(err error, action string) error {
	switch {
	case isForeignKeyViolation(err):
		return ErrUnknownCategory
	case isCheckViolation(err):
		return ErrInvalidProduct
	default:
		return fmt.Errorf("failed to %s product: %w", action, err)
	}
}

// Create inserts a new product and its category links in one transaction
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO products (id, name, description, manufacturer, price, stock_quantity,
			                      image, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		_, err := tx.ExecContext(
			ctx,
			query,
			product.ID,
			product.Name,
			product.Description,
			product.Manufacturer,
			product.Price,
			product.StockQuantity,
			product.Image,
			product.IsActive,
			product.CreatedAt,
			product.UpdatedAt,
		)
		if err != nil {
			return mapProductWriteError(err, "create")
		}

		return linkCategories(ctx, tx, product.ID, product.CategoryIDs)
	})
}

// Update replaces a product's attributes and category links
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE products
			SET name = $2, description = $3, manufacturer = $4, price = $5,
			    stock_quantity = $6, image = $7, is_active = $8, updated_at = $9
			WHERE id = $1
		`

		result, err := tx.ExecContext(
			ctx,
			query,
			product.ID,
			product.Name,
			product.Description,
			product.Manufacturer,
			product.Price,
			product.StockQuantity,
			product.Image,
			product.IsActive,
			product.UpdatedAt,
		)
		if err != nil {
			return mapProductWriteError(err, "update")
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrProductNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to clear product categories: %w", err)
		}
		return linkCategories(ctx, tx, product.ID, product.CategoryIDs)
	})
}

func linkCategories(ctx context.Context, tx *sql.Tx, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	query := `
		INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, query, productID, categoryID); err != nil {
			if isForeignKeyViolation(err) {
				return ErrUnknownCategory
			}
			return fmt.Errorf("failed to link product category: %w", err)
		}
	}
	return nil
}

// UpdateInventory changes only stock and/or price; nil arguments keep the
// stored value
func (r *productRepository) UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) error {
	var stockArg sql.NullInt64
	if stock != nil {
		stockArg = sql.NullInt64{Int64: int64(*stock), Valid: true}
	}
	var priceArg decimal.NullDecimal
	if price != nil {
		priceArg = decimal.NullDecimal{Decimal: *price, Valid: true}
	}

	query := `
		UPDATE products
		SET stock_quantity = COALESCE($2, stock_quantity),
		    price = COALESCE($3, price)
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, stockArg, priceArg)
	if err != nil {
		return mapProductWriteError(err, "update inventory of")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product; its category links cascade
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product with its categories
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products p WHERE p.id = $1`

	product, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	if err := r.attachCategories(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

const subtreeCondition = `EXISTS (
	SELECT 1
	FROM product_categories spc
	JOIN categories d ON d.id = spc.category_id
	JOIN categories n ON n.id = $%d
	WHERE spc.product_id = p.id
	  AND d.tree_id = n.tree_id AND d.lft >= n.lft AND d.rght <= n.rght)`

func (f ProductFilter) where() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Active != nil {
		args = append(args, *f.Active)
		conditions = append(conditions, fmt.Sprintf("p.is_active = $%d", len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_categories dpc WHERE dpc.product_id = p.id AND dpc.category_id = $%d)", len(args)))
	}
	if f.SubtreeOf != nil {
		args = append(args, *f.SubtreeOf)
		conditions = append(conditions, fmt.Sprintf(subtreeCondition, len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conditions = append(conditions, fmt.Sprintf(`(p.name ILIKE $%[1]d OR EXISTS (
			SELECT 1 FROM product_categories qpc
			JOIN categories qc ON qc.id = qpc.category_id
			WHERE qpc.product_id = p.id AND qc.name ILIKE $%[1]d))`, len(args)))
	}
	if f.Manufacturer != "" {
		args = append(args, f.Manufacturer)
		conditions = append(conditions, fmt.Sprintf("p.manufacturer = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves products with optional filtering, pagination, and sorting.
// A pageSize of 0 returns every matching product.
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":           true,
		"price":          true,
		"created_at":     true,
		"stock_quantity": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	whereClause, args := filter.where()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p %s", whereClause)
	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		%s
		ORDER BY p.%s %s, p.id ASC
	`, productColumns, whereClause, sortBy, sortOrder)

	if pageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, pageSize, pageOffset(page, pageSize))
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachCategories(ctx, products); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// attachCategories loads the category links of products with one query
func (r *productRepository) attachCategories(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	placeholders := make([]string, 0, len(products))
	args := make([]interface{}, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		args = append(args, p.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY c.name ASC
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		var ref domain.CategoryRef
		if err := rows.Scan(&productID, &ref.ID, &ref.Name); err != nil {
			return fmt.Errorf("failed to scan product category: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Categories = append(p.Categories, ref)
			p.CategoryIDs = append(p.CategoryIDs, ref.ID)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating product categories: %w", err)
	}
	return nil
}

// SubtreeStatistics aggregates the distinct products of a category subtree
// in a single statement
func (r *productRepository) SubtreeStatistics(ctx context.Context, categoryID uuid.UUID) (*domain.CatalogStatistics, error) {
	query := `
		SELECT COALESCE(SUM(p.price * p.stock_quantity), 0),
		       MAX(p.price),
		       MIN(p.price),
		       ROUND(AVG(p.price), 2),
		       COUNT(p.id)
		FROM products p
		WHERE ` + fmt.Sprintf(subtreeCondition, 1)

	stats := &domain.CatalogStatistics{}
	var maxPrice, minPrice, avgPrice decimal.NullDecimal

	err := conn(ctx, r.db).QueryRowContext(ctx, query, categoryID).Scan(
		&stats.TotalValue,
		&maxPrice,
		&minPrice,
		&avgPrice,
		&stats.TotalProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}

	if maxPrice.Valid {
		stats.MaxPrice = &maxPrice.Decimal
	}
	if minPrice.Valid {
		stats.MinPrice = &minPrice.Decimal
	}
	if avgPrice.Valid {
		stats.AvgPrice = &avgPrice.Decimal
	}
	return stats, nil
}
