package transport

import (
	"context"
	"sort"
	"sync"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/repository"
	"ecommerce-platform/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	products   []*domain.Product
	categories []*domain.Category
	roots      []*domain.CategorySummary
	listings   map[uuid.UUID]*service.CategoryProducts
	details    map[uuid.UUID]*service.ProductDetail
	lastPage   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		listings: make(map[uuid.UUID]*service.CategoryProducts),
		details:  make(map[uuid.UUID]*service.ProductDetail),
	}
}

func (f *fakeCatalog) Products(ctx context.Context) ([]*domain.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]*domain.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) RootCategories(ctx context.Context) ([]*domain.CategorySummary, error) {
	return f.roots, nil
}

func (f *fakeCatalog) CategoryProducts(ctx context.Context, categoryID uuid.UUID, page int) (*service.CategoryProducts, error) {
	f.lastPage = page
	listing, ok := f.listings[categoryID]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return listing, nil
}

func (f *fakeCatalog) ProductDetail(ctx context.Context, categoryID, productID uuid.UUID) (*service.ProductDetail, error) {
	detail, ok := f.details[productID]
	if !ok || detail.Category.ID != categoryID {
		return nil, repository.ErrProductNotFound
	}
	return detail, nil
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	rows     []*service.ProductRow
	filter   repository.ProductFilter
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: make(map[uuid.UUID]*domain.Product)}
}

func (f *fakeProducts) Create(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		Manufacturer:  input.Manufacturer,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		Image:         input.Image,
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	for _, id := range input.CategoryIDs {
		product.Categories = append(product.Categories, domain.CategoryRef{ID: id, Name: "category " + id.String()[:8]})
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProducts) Update(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	product.Name = input.Name
	product.Price = input.Price
	product.StockQuantity = input.StockQuantity
	return product, nil
}

func (f *fakeProducts) UpdateInventory(ctx context.Context, id uuid.UUID, stock *int, price *decimal.Decimal) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if stock == nil && price == nil {
		return nil, domain.NewValidationError("stock_quantity", "stock_quantity or price is required")
	}
	if stock != nil {
		product.StockQuantity = *stock
	}
	if price != nil {
		product.Price = *price
	}
	return product, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProducts) List(ctx context.Context, filter repository.ProductFilter, page int) (domain.Page[*service.ProductRow], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filter = filter
	return domain.Page[*service.ProductRow]{
		Items:      f.rows,
		Number:     1,
		PageSize:   10,
		TotalItems: len(f.rows),
	}, nil
}

type fakeCategories struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
	summaries  []*domain.CategorySummary
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{categories: make(map[uuid.UUID]*domain.Category)}
}

func (f *fakeCategories) Create(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.categories {
		if existing.Name == input.Name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	if input.ParentID != nil {
		if _, ok := f.categories[*input.ParentID]; !ok {
			return nil, repository.ErrParentCategoryNotFound
		}
	}

	category := &domain.Category{ID: uuid.New(), Name: input.Name, ParentID: input.ParentID, IsActive: true}
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeCategories) Update(ctx context.Context, id uuid.UUID, input service.CategoryInput) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	category, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	// Walk up from the new parent; meeting id means a cycle
	for parent := input.ParentID; parent != nil; {
		if *parent == id {
			return nil, repository.ErrCategoryCycle
		}
		next, ok := f.categories[*parent]
		if !ok {
			return nil, repository.ErrParentCategoryNotFound
		}
		parent = next.ParentID
	}
	category.Name = input.Name
	category.ParentID = input.ParentID
	return category, nil
}

func (f *fakeCategories) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategories) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	category, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (f *fakeCategories) List(ctx context.Context, filter repository.CategoryFilter) ([]*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) Summaries(ctx context.Context, filter repository.CategoryFilter, page int) (domain.Page[*domain.CategorySummary], error) {
	return domain.Page[*domain.CategorySummary]{
		Items:      f.summaries,
		Number:     1,
		PageSize:   10,
		TotalItems: len(f.summaries),
	}, nil
}

// Descendants returns the children of id in this fake; deeper levels are
// not needed by the handler tests
func (f *fakeCategories) Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	self, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	var out []*domain.Category
	if includeSelf {
		out = append(out, self)
	}
	for _, c := range f.categories {
		if c.ParentID != nil && *c.ParentID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return f.Get(ctx, id)
}

func (f *fakeCategories) RootName(ctx context.Context, treeID int) (string, error) {
	return "", nil
}

func (f *fakeCategories) Rebuild(ctx context.Context) (int, error) {
	return 0, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	carts    map[uuid.UUID]*domain.UserCart
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts: make(map[uuid.UUID]*domain.Account),
		carts:    make(map[uuid.UUID]*domain.UserCart),
	}
}

func (f *fakeAccounts) Create(ctx context.Context, input service.AccountInput) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account := &domain.Account{ID: uuid.New(), Username: input.Username, Email: input.Email}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	for _, existing := range f.accounts {
		if existing.Username == account.Username {
			return nil, repository.ErrAccountAlreadyExists
		}
	}
	f.accounts[account.ID] = account
	f.carts[account.ID] = &domain.UserCart{AccountID: account.ID}
	return account, nil
}

func (f *fakeAccounts) Update(ctx context.Context, id uuid.UUID, input service.AccountInput) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	account.Username = input.Username
	account.Email = input.Email
	return account, nil
}

func (f *fakeAccounts) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeAccounts) Cart(ctx context.Context, accountID uuid.UUID) (*domain.UserCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cart, ok := f.carts[accountID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}
