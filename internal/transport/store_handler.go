package transport

import (
	"net/http"

	"ecommerce-platform/internal/middleware"
	"ecommerce-platform/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RootCategoryView is a root category with the number of products in its
// whole tree
type RootCategoryView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	ProductsCount int       `json:"products_count"`
}

type CategoryListView struct {
	Categories []RootCategoryView `json:"categories"`
}

type CategoryProductsView struct {
	Category     CategoryResponse   `json:"category"`
	Products     []ProductResponse  `json:"products"`
	Statistics   StatisticsResponse `json:"statistics"`
	Page         PageResponse       `json:"page"`
	NextPage     int                `json:"-"`
	PreviousPage int                `json:"-"`
}

type ProductDetailView struct {
	Category   CategoryResponse `json:"category"`
	Product    ProductResponse  `json:"product"`
	Categories string           `json:"categories"`
}

// StoreHandler serves the public storefront
type StoreHandler struct {
	catalog   service.CatalogService
	presenter *Presenter
	renderer  *Renderer
	orders    http.Handler
	logger    *zap.Logger
}

// NewStoreHandler creates a StoreHandler. Order routes are served by orders;
// a nil orders handler answers 501.
func NewStoreHandler(
	catalog service.CatalogService,
	presenter *Presenter,
	renderer *Renderer,
	orders http.Handler,
	logger *zap.Logger,
) *StoreHandler {
	if orders == nil {
		orders = http.HandlerFunc(notImplemented)
	}
	return &StoreHandler{
		catalog:   catalog,
		presenter: presenter,
		renderer:  renderer,
		orders:    orders,
		logger:    logger,
	}
}

// RegisterRoutes registers the storefront routes
func (h *StoreHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/products/", h.ListProducts)
	r.Get("/categories/", h.ListCategories)

	r.Route("/category", func(r chi.Router) {
		r.Get("/", h.CategoryList)
		r.Get("/{categoryID}/products/", h.CategoryProducts)
		r.Get("/{categoryID}/products/{productID}/", h.ProductDetail)
	})

	r.Handle("/order/", h.orders)
	r.Handle("/order/history/", h.orders)
}

func (h *StoreHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the Store!"))
}

// ListProducts returns every product as a JSON array
func (h *StoreHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Products(products))
}

// ListCategories returns every category as a JSON array
func (h *StoreHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Categories(categories))
}

func (h *StoreHandler) CategoryList(w http.ResponseWriter, r *http.Request) {
	roots, err := h.catalog.RootCategories(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	view := CategoryListView{Categories: make([]RootCategoryView, 0, len(roots))}
	for _, root := range roots {
		view.Categories = append(view.Categories, RootCategoryView{
			ID:            root.Category.ID,
			Name:          root.Category.Name,
			Slug:          root.Category.Slug,
			ProductsCount: root.ProductsCumulativeCount,
		})
	}

	h.renderer.Render(w, r, http.StatusOK, "category_list.html", view)
}

func (h *StoreHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}

	result, err := h.catalog.CategoryProducts(r.Context(), categoryID, pageParam(r))
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	view := CategoryProductsView{
		Category:     h.presenter.Category(result.Category),
		Products:     h.presenter.Products(result.Page.Items),
		Statistics:   h.presenter.Statistics(result.Statistics),
		Page:         pageResponse(result.Page),
		NextPage:     result.Page.Number + 1,
		PreviousPage: result.Page.Number - 1,
	}

	h.renderer.Render(w, r, http.StatusOK, "category_products.html", view)
}

func (h *StoreHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	detail, err := h.catalog.ProductDetail(r.Context(), categoryID, productID)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	view := ProductDetailView{
		Category:   h.presenter.Category(detail.Category),
		Product:    h.presenter.Product(detail.Product),
		Categories: detail.Categories,
	}

	h.renderer.Render(w, r, http.StatusOK, "product_detail.html", view)
}

func notImplemented(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithError(w, http.StatusNotImplemented, "order processing is handled by an external service")
}
