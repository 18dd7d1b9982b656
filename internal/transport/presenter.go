package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/middleware"
	"ecommerce-platform/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductResponse is the public JSON form of a product
type ProductResponse struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Description   *string              `json:"description"`
	Manufacturer  string               `json:"manufacturer"`
	Price         string               `json:"price"`
	StockQuantity int                  `json:"stock_quantity"`
	ImageURL      *string              `json:"image_url"`
	IsActive      bool                 `json:"is_active"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Categories    []domain.CategoryRef `json:"categories"`
}

// CategoryResponse is the public JSON form of a category
type CategoryResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description"`
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	ParentCategory *domain.CategoryRef `json:"parent_category"`
}

// StatisticsResponse carries subtree statistics; extremes are null for an
// empty subtree
type StatisticsResponse struct {
	TotalValue    string  `json:"total_value"`
	MaxPrice      *string `json:"max_price"`
	MinPrice      *string `json:"min_price"`
	AvgPrice      *string `json:"avg_price"`
	TotalProducts int     `json:"total_products"`
}

// PageResponse describes where a page sits in its listing
type PageResponse struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Presenter turns domain values into response bodies
type Presenter struct {
	mediaBaseURL string
}

func NewPresenter(mediaBaseURL string) *Presenter {
	return &Presenter{mediaBaseURL: mediaBaseURL}
}

// ImageURL resolves a stored media path against the media base URL
func (p *Presenter) ImageURL(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	if strings.HasPrefix(*path, "http://") || strings.HasPrefix(*path, "https://") {
		return path
	}
	url := strings.TrimSuffix(p.mediaBaseURL, "/") + "/" + strings.TrimPrefix(*path, "/")
	return &url
}

func (p *Presenter) Product(product *domain.Product) ProductResponse {
	categories := product.Categories
	if categories == nil {
		categories = []domain.CategoryRef{}
	}
	return ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Manufacturer:  product.Manufacturer,
		Price:         formatMoney(product.Price),
		StockQuantity: product.StockQuantity,
		ImageURL:      p.ImageURL(product.Image),
		IsActive:      product.IsActive,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
		Categories:    categories,
	}
}

func (p *Presenter) Products(products []*domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, p.Product(product))
	}
	return out
}

func (p *Presenter) Category(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:             category.ID,
		Name:           category.Name,
		Slug:           category.Slug,
		Description:    category.Description,
		IsActive:       category.IsActive,
		CreatedAt:      category.CreatedAt,
		UpdatedAt:      category.UpdatedAt,
		ParentCategory: category.Parent,
	}
}

func (p *Presenter) Categories(categories []*domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, p.Category(category))
	}
	return out
}

func (p *Presenter) Statistics(stats *domain.CatalogStatistics) StatisticsResponse {
	return StatisticsResponse{
		TotalValue:    formatMoney(stats.TotalValue),
		MaxPrice:      formatOptionalMoney(stats.MaxPrice),
		MinPrice:      formatOptionalMoney(stats.MinPrice),
		AvgPrice:      formatOptionalMoney(stats.AvgPrice),
		TotalProducts: stats.TotalProducts,
	}
}

func pageResponse[T any](page domain.Page[T]) PageResponse {
	return PageResponse{
		Number:      page.Number,
		NumPages:    page.NumPages(),
		TotalItems:  page.TotalItems,
		HasNext:     page.HasNext(),
		HasPrevious: page.HasPrevious(),
	}
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(domain.PriceScale)
}

func formatOptionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := formatMoney(*d)
	return &s
}

// pageParam reads ?page=; anything that is not an integer means page 1
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

// boolParam reads an optional boolean query parameter
func boolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// idParam parses a UUID path parameter, answering 404 when it is malformed
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// decodeRequest decodes and validates a JSON body, writing the 400 response
// itself when the body is unusable
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseIDs converts validated UUID strings
func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, uuid.MustParse(s))
	}
	return ids
}

// productSiteURL is the public detail URL of a product under a category
func productSiteURL(row *service.ProductRow) *string {
	if row.SiteURL == "" {
		return nil
	}
	return &row.SiteURL
}
