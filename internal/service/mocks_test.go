package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing

type mockCategoryRepository struct {
	mu          sync.Mutex
	categories  map[uuid.UUID]*domain.Category
	nextTree    int
	rootLookups int
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) nameTaken(c *domain.Category) bool {
	for _, other := range m.categories {
		if other.ID != c.ID && other.Name == c.Name {
			return true
		}
	}
	return false
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(category) {
		return repository.ErrCategoryAlreadyExists
	}
	if category.ParentID == nil {
		m.nextTree++
		category.TreeID = m.nextTree
	} else {
		parent, ok := m.categories[*category.ParentID]
		if !ok {
			return repository.ErrParentCategoryNotFound
		}
		category.TreeID = parent.TreeID
		category.Level = parent.Level + 1
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	if m.nameTaken(category) {
		return repository.ErrCategoryAlreadyExists
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) sorted() []*domain.Category {
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockCategoryRepository) List(ctx context.Context, filter repository.CategoryFilter) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *mockCategoryRepository) Summaries(ctx context.Context, filter repository.CategoryFilter, page, pageSize int) ([]*domain.CategorySummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.CategorySummary
	for _, c := range m.sorted() {
		if filter.RootsOnly && !c.IsRoot() {
			continue
		}
		out = append(out, &domain.CategorySummary{Category: c})
	}
	return out, len(out), nil
}

func (m *mockCategoryRepository) RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	for c.ParentID != nil {
		c = m.categories[*c.ParentID]
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) RootNameByTreeID(ctx context.Context, treeID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootLookups++
	for _, c := range m.categories {
		if c.TreeID == treeID && c.IsRoot() {
			return c.Name, nil
		}
	}
	return "", repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootLookups
}

func (m *mockCategoryRepository) Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCategoryRepository) DirectProductCount(ctx context.Context, id uuid.UUID) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *mockCategoryRepository) SubtreeProductCount(ctx context.Context, id uuid.UUID) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *mockCategoryRepository) Rebuild(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	// stats is returned by SubtreeStatistics
	stats *domain.CatalogStatistics
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		stats:    &domain.CatalogStatistics{},
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if stock != nil {
		p.StockQuantity = *stock
	}
	if price != nil {
		p.Price = *price
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	all := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		copied := *p
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if pageSize <= 0 {
		return all, len(all), nil
	}
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockProductRepository) SubtreeStatistics(ctx context.Context, categoryID uuid.UUID) (*domain.CatalogStatistics, error) {
	return m.stats, nil
}

type mockAccountRepository struct {
	accounts map[uuid.UUID]*domain.Account
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (m *mockAccountRepository) Create(ctx context.Context, account *domain.Account, hooks ...repository.AccountCreatedHook) error {
	for _, a := range m.accounts {
		if a.Username == account.Username {
			return repository.ErrAccountAlreadyExists
		}
	}
	stored := *account
	m.accounts[account.ID] = &stored
	for _, hook := range hooks {
		if err := hook(ctx, nil, account); err != nil {
			delete(m.accounts, account.ID)
			return err
		}
	}
	return nil
}

func (m *mockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

type mockCartRepository struct {
	carts map[uuid.UUID]*domain.UserCart
	// inserts counts rows actually written
	inserts int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[uuid.UUID]*domain.UserCart)}
}

func (m *mockCartRepository) Create(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	if _, ok := m.carts[accountID]; ok {
		return nil, repository.ErrCartAlreadyExists
	}
	cart := &domain.UserCart{AccountID: accountID}
	m.carts[accountID] = cart
	m.inserts++
	return cart, nil
}

func (m *mockCartRepository) Provision(ctx context.Context, q repository.DBTX, accountID uuid.UUID) (bool, error) {
	if _, ok := m.carts[accountID]; ok {
		return false, nil
	}
	m.carts[accountID] = &domain.UserCart{AccountID: accountID}
	m.inserts++
	return true, nil
}

func (m *mockCartRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	cart, ok := m.carts[accountID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}
