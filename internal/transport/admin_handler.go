package transport

import (
	"net/http"
	"strings"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/middleware"
	"ecommerce-platform/internal/repository"
	"ecommerce-platform/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the payload for creating or replacing a product
type ProductRequest struct {
	Name          string   `json:"name" validate:"required,max=255"`
	Description   *string  `json:"description"`
	Manufacturer  string   `json:"manufacturer" validate:"max=100"`
	Price         string   `json:"price" validate:"required,money"`
	StockQuantity *int     `json:"stock_quantity" validate:"required,gte=0"`
	Image         *string  `json:"image" validate:"omitempty,max=500"`
	IsActive      *bool    `json:"is_active"`
	CategoryIDs   []string `json:"category_ids" validate:"dive,uuid"`
}

// InventoryRequest is the inline edit of stock and price
type InventoryRequest struct {
	StockQuantity *int    `json:"stock_quantity" validate:"omitempty,gte=0"`
	Price         *string `json:"price" validate:"omitempty,money"`
}

// CategoryRequest is the payload for creating or replacing a category
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	Description string  `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// AdminProductResponse is a product row of the admin listing
type AdminProductResponse struct {
	ProductResponse
	TotalValue string  `json:"total_value"`
	SiteURL    *string `json:"site_url"`
}

// AdminCategoryResponse is a category row of the admin listing
type AdminCategoryResponse struct {
	CategoryResponse
	RootCategory            *string `json:"root_category"`
	ProductsCount           int     `json:"products_count"`
	ProductsCumulativeCount int     `json:"products_cumulative_count"`
}

// ListResponse is one page of an admin listing
type ListResponse[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}

// AdminHandler serves catalog administration
type AdminHandler struct {
	products   service.ProductService
	categories service.CategoryService
	presenter  *Presenter
	logger     *zap.Logger
}

func NewAdminHandler(
	products service.ProductService,
	categories service.CategoryService,
	presenter *Presenter,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		products:   products,
		categories: categories,
		presenter:  presenter,
		logger:     logger,
	}
}

// RegisterRoutes registers the admin routes behind the given middleware
func (h *AdminHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewares...)
		r.Use(middleware.RequireJSON(h.logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{productID}", h.GetProduct)
			r.Put("/{productID}", h.UpdateProduct)
			r.Patch("/{productID}", h.UpdateInventory)
			r.Delete("/{productID}", h.DeleteProduct)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{categoryID}", h.GetCategory)
			r.Put("/{categoryID}", h.UpdateCategory)
			r.Delete("/{categoryID}", h.DeleteCategory)
			r.Get("/{categoryID}/descendants", h.Descendants)
		})
	})
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	active, err := boolParam(r, "is_active")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "is_active must be a boolean")
		return
	}

	filter := repository.ProductFilter{
		Active:       active,
		Search:       strings.TrimSpace(r.URL.Query().Get("search")),
		Manufacturer: strings.TrimSpace(r.URL.Query().Get("manufacturer")),
	}

	page, err := h.products.List(r.Context(), filter, pageParam(r))
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	items := make([]AdminProductResponse, 0, len(page.Items))
	for _, row := range page.Items {
		items = append(items, AdminProductResponse{
			ProductResponse: h.presenter.Product(row.Product),
			TotalValue:      formatMoney(row.Product.TotalValue()),
			SiteURL:         productSiteURL(row),
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, ListResponse[AdminProductResponse]{
		Items: items,
		Page:  pageResponse(page),
	})
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.Create(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, h.presenter.Product(product))
}

func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Product(product))
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.Update(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Product(product))
}

func (h *AdminHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	var req InventoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		parsed, err := domain.ParsePrice(*req.Price)
		if err != nil {
			middleware.RespondWithServiceError(w, err, h.logger)
			return
		}
		price = &parsed
	}

	product, err := h.products.UpdateInventory(r.Context(), id, req.StockQuantity, price)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Product(product))
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	active, err := boolParam(r, "is_active")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "is_active must be a boolean")
		return
	}

	filter := repository.CategoryFilter{
		Active: active,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}

	page, err := h.categories.Summaries(r.Context(), filter, pageParam(r))
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	items := make([]AdminCategoryResponse, 0, len(page.Items))
	for _, summary := range page.Items {
		items = append(items, AdminCategoryResponse{
			CategoryResponse:        h.presenter.Category(summary.Category),
			RootCategory:            summary.RootName,
			ProductsCount:           summary.ProductsCount,
			ProductsCumulativeCount: summary.ProductsCumulativeCount,
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, ListResponse[AdminCategoryResponse]{
		Items: items,
		Page:  pageResponse(page),
	})
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.categories.Create(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, h.presenter.Category(category))
}

func (h *AdminHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Category(category))
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.categories.Update(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Category(category))
}

// DeleteCategory removes the category together with its subtree
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "categoryID")
	if !ok {
		return
	}

	includeSelf, err := boolParam(r, "include_self")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "include_self must be a boolean")
		return
	}

	descendants, err := h.categories.Descendants(r.Context(), id, includeSelf != nil && *includeSelf)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.presenter.Categories(descendants))
}

// input assumes the request passed validation
func (req ProductRequest) input() service.ProductInput {
	price, _ := decimal.NewFromString(strings.TrimSpace(req.Price))
	return service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Manufacturer:  req.Manufacturer,
		Price:         price,
		StockQuantity: *req.StockQuantity,
		Image:         req.Image,
		IsActive:      req.IsActive,
		CategoryIDs:   parseIDs(req.CategoryIDs),
	}
}

func (req CategoryRequest) input() service.CategoryInput {
	var parentID *uuid.UUID
	if req.ParentID != nil {
		id := uuid.MustParse(*req.ParentID)
		parentID = &id
	}
	return service.CategoryInput{
		Name:        req.Name,
		ParentID:    parentID,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
}
