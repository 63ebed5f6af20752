// Package rest exposes the cart over HTTP.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rocketshoes/cartservice/internal/cart/domain"
	carterrors "github.com/rocketshoes/cartservice/internal/cart/errors"
	"github.com/rocketshoes/cartservice/internal/cart/service"
	"github.com/rocketshoes/cartservice/pkg/web"
)

// CartService is the part of service.CartStore the handler depends on.
type CartService interface {
	Cart(ctx context.Context) domain.Cart
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, in service.UpdateProductAmount) error
}

// UpdateAmountDto is the body of PUT /api/v1/cart/items/{id}.
type UpdateAmountDto struct {
	Amount *int `json:"amount" validate:"required"`
}

type Handler struct {
	service  CartService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a cart HTTP handler backed by svc.
func NewHandler(svc CartService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the cart routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Post("/", h.AddProduct)
			r.Put("/", h.UpdateProductAmount)
			r.Delete("/", h.RemoveProduct)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// GetCart returns the current cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.service.Cart(r.Context()))
}

// AddProduct adds one unit of the product to the cart.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to add product", "product_id", id)

	if err := h.service.AddProduct(r.Context(), id); err != nil {
		h.respondOperationError(w, r, service.OpAddProduct, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.service.Cart(r.Context()))
}

// RemoveProduct removes the product from the cart.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to remove product", "product_id", id)

	if err := h.service.RemoveProduct(r.Context(), id); err != nil {
		h.respondOperationError(w, r, service.OpRemoveProduct, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.service.Cart(r.Context()))
}

// UpdateProductAmount sets the quantity of a product already in the cart.
// Amounts below 1 leave the cart unchanged and still answer 200.
func (h *Handler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto UpdateAmountDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update amount", "product_id", id, "amount", *dto.Amount)

	err := h.service.UpdateProductAmount(r.Context(), service.UpdateProductAmount{ProductID: id, Amount: *dto.Amount})
	if err != nil {
		h.respondOperationError(w, r, service.OpUpdateProductAmount, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.service.Cart(r.Context()))
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondOperationError maps a cart error to a status code. The body carries the shopper notice.
func (h *Handler) respondOperationError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Cart operation failed", "operation", operation, "error", err)
	} else {
		h.logger.WarnContext(r.Context(), "Cart operation rejected", "operation", operation, "error", err)
	}
	web.RespondError(w, h.logger, status, service.NoticeFor(operation, err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, carterrors.ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(err, carterrors.ErrEntryNotFound), errors.Is(err, carterrors.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, carterrors.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
