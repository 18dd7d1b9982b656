package transport

import (
	"net/http"
	"time"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/middleware"
	"ecommerce-platform/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountRequest is the payload for creating or updating an account
type AccountRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// CartResponse represents the cart owned by an account
type CartResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// RegisterRoutes registers all account routes. Accounts are created by the
// identity provider with an admin token; an account may read and change
// only itself unless the caller is an admin.
func (h *AccountHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/accounts", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireJSON(h.logger))

		r.With(middleware.RequireAdmin(h.logger)).Post("/", h.Create)
		r.Get("/{accountID}", h.Get)
		r.Put("/{accountID}", h.Update)
		r.Get("/{accountID}/cart", h.Cart)
	})
}

// Create registers an account; its cart is provisioned in the same transaction
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	account, err := h.accountService.Create(r.Context(), service.AccountInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Account created", zap.String("account_id", account.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	account, err := h.accountService.Update(r.Context(), id, service.AccountInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Cart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	cart, err := h.accountService.Cart(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// authorizedAccount resolves the account in the path and checks that the
// caller owns it or is an admin
func (h *AccountHandler) authorizedAccount(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := idParam(w, r, "accountID")
	if !ok {
		return uuid.Nil, false
	}

	if role, _ := middleware.GetRole(r.Context()); role == middleware.RoleAdmin {
		return id, true
	}

	callerID, ok := middleware.GetAccountID(r.Context())
	if !ok || callerID != id.String() {
		h.logger.Warn("Account access denied",
			zap.String("account_id", id.String()),
			zap.String("caller_id", callerID),
		)
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return uuid.Nil, false
	}

	return id, true
}

func cartResponse(cart *domain.UserCart) CartResponse {
	return CartResponse{AccountID: cart.AccountID, CreatedAt: cart.CreatedAt}
}
