package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ecommerce-platform/internal/cache"
	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/metrics"
	"ecommerce-platform/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CategoryInput carries the writable fields of a category
type CategoryInput struct {
	Name        string
	ParentID    *uuid.UUID
	Description string
	IsActive    *bool
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, filter repository.CategoryFilter) ([]*domain.Category, error)
	Summaries(ctx context.Context, filter repository.CategoryFilter, page int) (domain.Page[*domain.CategorySummary], error)
	Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error)
	RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	RootName(ctx context.Context, treeID int) (string, error)
	Rebuild(ctx context.Context) (int, error)
}

type categoryService struct {
	repo     repository.CategoryRepository
	names    cache.RootNameCache
	lookups  singleflight.Group
	pageSize int
	logger   *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService. pageSize
// applies to Summaries.
func NewCategoryService(
	repo repository.CategoryRepository,
	names cache.RootNameCache,
	pageSize int,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		repo:     repo,
		names:    names,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Create validates input, derives the slug and stores the category
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	now := time.Now()
	category := &domain.Category{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	input.apply(category)

	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name),
		zap.Int("tree_id", category.TreeID),
	)
	return category, nil
}

// Update replaces the writable fields; a changed parent moves the subtree
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousParent := category.ParentID
	input.apply(category)
	category.UpdatedAt = time.Now()

	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}

	if !sameID(previousParent, category.ParentID) {
		s.logger.Info("Category moved",
			zap.String("category_id", category.ID.String()),
			zap.Int("tree_id", category.TreeID),
		)
	}
	return category, nil
}

func (in CategoryInput) apply(category *domain.Category) {
	category.Name = in.Name
	category.Slug = domain.CategorySlug(in.Name)
	category.ParentID = in.ParentID
	category.Description = in.Description
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Delete removes the category and its subtree
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *categoryService) List(ctx context.Context, filter repository.CategoryFilter) ([]*domain.Category, error) {
	return s.repo.List(ctx, filter)
}

// Summaries returns one page of categories with product counts and the
// cached name of their root; roots carry no root name.
func (s *categoryService) Summaries(ctx context.Context, filter repository.CategoryFilter, page int) (domain.Page[*domain.CategorySummary], error) {
	if page < 1 {
		page = 1
	}

	items, total, err := s.repo.Summaries(ctx, filter, page, s.pageSize)
	if err != nil {
		return domain.Page[*domain.CategorySummary]{}, err
	}

	for _, item := range items {
		if item.Category.IsRoot() {
			continue
		}
		name, err := s.RootName(ctx, item.Category.TreeID)
		if err != nil {
			return domain.Page[*domain.CategorySummary]{}, err
		}
		item.RootName = &name
	}

	return domain.Page[*domain.CategorySummary]{
		Items:      items,
		Number:     page,
		PageSize:   s.pageSize,
		TotalItems: total,
	}, nil
}

func (s *categoryService) Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error) {
	return s.repo.Descendants(ctx, id, includeSelf)
}

func (s *categoryService) RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.repo.RootOf(ctx, id)
}

// RootName resolves the root name of a tree through the cache. Concurrent
// misses for the same tree share one database lookup. Cache failures fall
// back to the database.
func (s *categoryService) RootName(ctx context.Context, treeID int) (string, error) {
	name, ok, err := s.names.Get(ctx, treeID)
	switch {
	case err != nil:
		metrics.RootNameLookups.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Warn("Root name cache read failed", zap.Int("tree_id", treeID), zap.Error(err))
	case ok:
		metrics.RootNameLookups.WithLabelValues(metrics.ResultHit).Inc()
		return name, nil
	default:
		metrics.RootNameLookups.WithLabelValues(metrics.ResultMiss).Inc()
	}

	v, err, _ := s.lookups.Do(strconv.Itoa(treeID), func() (interface{}, error) {
		name, err := s.repo.RootNameByTreeID(ctx, treeID)
		if err != nil {
			return "", err
		}
		if err := s.names.Set(ctx, treeID, name); err != nil {
			s.logger.Warn("Root name cache write failed", zap.Int("tree_id", treeID), zap.Error(err))
		}
		return name, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to resolve root name: %w", err)
	}
	return v.(string), nil
}

// Rebuild recomputes the nested-set bounds of every tree
func (s *categoryService) Rebuild(ctx context.Context) (int, error) {
	n, err := s.repo.Rebuild(ctx)
	if err != nil {
		return 0, err
	}
	metrics.CategoryTreeRebuilds.Inc()
	s.logger.Info("Category trees rebuilt", zap.Int("categories", n))
	return n, nil
}
