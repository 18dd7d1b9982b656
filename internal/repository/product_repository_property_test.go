package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Feature: catalog, Property: Product creation preserves attributes
func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	resetTables(t)
	productRepo := NewProductRepository(testDB)
	categoryRepo := NewCategoryRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, cents int64, image string, stock int) bool {
			ctx := context.Background()

			category := mustCreateCategory(t, categoryRepo, "Test Category "+uuid.New().String(), nil)

			product := newProduct(name, "0", stock, category)
			product.Description = &description
			product.Price = decimal.New(cents, -2)
			product.Image = &image

			err := productRepo.Create(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.ID != product.ID {
				t.Logf("FAIL: ID mismatch. Expected %s, got %s", product.ID, retrieved.ID)
				return false
			}

			if retrieved.Name != product.Name {
				t.Logf("FAIL: Name mismatch. Expected %s, got %s", product.Name, retrieved.Name)
				return false
			}

			if retrieved.Description == nil || *retrieved.Description != description {
				t.Logf("FAIL: Description mismatch. Expected %s, got %v", description, retrieved.Description)
				return false
			}

			// Prices are exact decimals, no tolerance
			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price mismatch. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.Image == nil || *retrieved.Image != image {
				t.Logf("FAIL: Image mismatch. Expected %s, got %v", image, retrieved.Image)
				return false
			}

			if retrieved.StockQuantity != product.StockQuantity {
				t.Logf("FAIL: Stock mismatch. Expected %d, got %d", product.StockQuantity, retrieved.StockQuantity)
				return false
			}

			if len(retrieved.Categories) != 1 || retrieved.Categories[0].ID != category.ID {
				t.Logf("FAIL: Categories mismatch. Expected [%s], got %v", category.ID, retrieved.Categories)
				return false
			}

			if retrieved.CreatedAt.IsZero() {
				t.Logf("FAIL: CreatedAt is zero")
				return false
			}

			if retrieved.UpdatedAt.IsZero() {
				t.Logf("FAIL: UpdatedAt is zero")
				return false
			}

			_ = productRepo.Delete(ctx, product.ID)
			_ = categoryRepo.Delete(ctx, category.ID)

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),              // name
		gen.RegexMatch(`[A-Za-z0-9 .,!?]{10,200}`),        // description
		gen.Int64Range(0, 9999999),                        // price in cents
		gen.RegexMatch(`products/[a-z0-9_-]{1,40}\.jpg`), // image path
		gen.IntRange(0, 1000),                             // stock (non-negative)
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog, Property: Product updates are reflected
func TestProperty_ProductUpdatesAreReflected(t *testing.T) {
	resetTables(t)
	productRepo := NewProductRepository(testDB)
	categoryRepo := NewCategoryRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("updating a product and retrieving it shows the updated values", prop.ForAll(
		func(name1 string, name2 string, cents1 int64, cents2 int64, stock1 int, stock2 int) bool {
			ctx := context.Background()

			first := mustCreateCategory(t, categoryRepo, "Test Category "+uuid.New().String(), nil)
			second := mustCreateCategory(t, categoryRepo, "Test Category "+uuid.New().String(), nil)

			product := newProduct(name1, "0", stock1, first)
			product.Price = decimal.New(cents1, -2)

			err := productRepo.Create(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			product.Name = name2
			product.Price = decimal.New(cents2, -2)
			product.StockQuantity = stock2
			product.CategoryIDs = []uuid.UUID{second.ID}
			product.UpdatedAt = time.Now()

			err = productRepo.Update(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to update product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != name2 {
				t.Logf("FAIL: Name not updated. Expected %s, got %s", name2, retrieved.Name)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price not updated. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.StockQuantity != stock2 {
				t.Logf("FAIL: Stock not updated. Expected %d, got %d", stock2, retrieved.StockQuantity)
				return false
			}

			if len(retrieved.CategoryIDs) != 1 || retrieved.CategoryIDs[0] != second.ID {
				t.Logf("FAIL: Categories not replaced. Expected [%s], got %v", second.ID, retrieved.CategoryIDs)
				return false
			}

			_ = productRepo.Delete(ctx, product.ID)
			_ = categoryRepo.Delete(ctx, first.ID)
			_ = categoryRepo.Delete(ctx, second.ID)

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name1
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name2
		gen.Int64Range(0, 9999999),           // cents1
		gen.Int64Range(0, 9999999),           // cents2
		gen.IntRange(0, 1000),                // stock1
		gen.IntRange(0, 1000),                // stock2
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog, Property: Product deletion removes from catalog
func TestProperty_ProductDeletionRemovesFromCatalog(t *testing.T) {
	resetTables(t)
	productRepo := NewProductRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("deleting a product makes it not retrievable", prop.ForAll(
		func(name string, cents int64, stock int) bool {
			ctx := context.Background()

			product := newProduct(name, "0", stock)
			product.Price = decimal.New(cents, -2)

			err := productRepo.Create(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			_, err = productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Product should exist before deletion: %v", err)
				return false
			}

			err = productRepo.Delete(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to delete product: %v", err)
				return false
			}

			_, err = productRepo.FindByID(ctx, product.ID)
			if err != ErrProductNotFound {
				t.Logf("FAIL: Expected ErrProductNotFound after deletion, got: %v", err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name
		gen.Int64Range(0, 9999999),           // price in cents
		gen.IntRange(0, 1000),                // stock
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
