package transport

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strings"

	"ecommerce-platform/internal/middleware"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer writes a view model either as an HTML page or, when the client
// asks for application/json, as the same model in JSON.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

// NewRenderer parses every page template together with the shared layout
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"productURL": func(categoryID, productID fmt.Stringer) string {
			return fmt.Sprintf("/category/%s/products/%s/", categoryID, productID)
		},
		"categoryURL": func(categoryID fmt.Stringer) string {
			return fmt.Sprintf("/category/%s/products/", categoryID)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"category_list.html", "category_products.html", "product_detail.html"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes data with the named page template, or as JSON
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if wantsJSON(r) {
		middleware.RespondWithJSON(w, status, data)
		return
	}

	tmpl, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("Unknown template", zap.String("template", name))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Render into a buffer so a template error never leaves half a page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}
