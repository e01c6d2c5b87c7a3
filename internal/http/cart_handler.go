package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shopping-ecommerce/cart-service/internal/catalog"
	"github.com/shopping-ecommerce/cart-service/internal/domain"
	"github.com/shopping-ecommerce/cart-service/internal/repository"
	"github.com/shopping-ecommerce/cart-service/internal/service"
)

const (
	maxAddQuantity    = 5
	maxUpdateQuantity = 99
)

// CartService is the slice of the service layer the handlers need.
type CartService interface {
	AddItem(ctx context.Context, p service.AddItemParams) (*domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetSummary(ctx context.Context, userID string) (*domain.CartSummary, error)
	GetItemCount(ctx context.Context, userID string) (int, error)
	UpdateQuantity(ctx context.Context, userID string, key service.ItemKey, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, key service.ItemKey) (*domain.Cart, error)
	RemoveItems(ctx context.Context, userID string, keys []service.ItemKey) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	service CartService
	logger  zerolog.Logger
}

func NewCartHandler(svc CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID  string            `json:"product_id"`
	SellerID   string            `json:"seller_id"`
	SellerName string            `json:"seller_name"`
	Quantity   int               `json:"quantity"`
	Options    map[string]string `json:"options"`
}

type UpdateQuantityRequestDTO struct {
	ProductID string            `json:"product_id"`
	SellerID  string            `json:"seller_id"`
	Options   map[string]string `json:"options"`
	Quantity  int               `json:"quantity"`
}

type RemoveItemRequestDTO struct {
	ProductID string            `json:"product_id"`
	SellerID  string            `json:"seller_id"`
	Options   map[string]string `json:"options"`
}

type RemoveItemsBatchRequestDTO struct {
	Items []RemoveItemRequestDTO `json:"items"`
}

// APIResponse is the success envelope for every endpoint.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.SellerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_seller_id", "seller_id is required")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxAddQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 5")
		return
	}

	cart, err := h.service.AddItem(r.Context(), service.AddItemParams{
		UserID:     userID,
		ProductID:  req.ProductID,
		SellerID:   req.SellerID,
		SellerName: req.SellerName,
		Quantity:   req.Quantity,
		Options:    req.Options,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, APIResponse{
		Code:    http.StatusCreated,
		Message: "Product added to cart successfully",
		Result:  cart,
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	cart, err := h.service.GetOrCreateCart(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart retrieved successfully",
		Result:  cart,
	})
}

func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	summary, err := h.service.GetSummary(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart summary retrieved successfully",
		Result:  summary,
	})
}

func (h *CartHandler) GetItemCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	count, err := h.service.GetItemCount(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart item count retrieved successfully",
		Result:  count,
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.SellerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_seller_id", "seller_id is required")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxUpdateQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), userID, service.ItemKey{
		SellerID:  req.SellerID,
		ProductID: req.ProductID,
		Options:   req.Options,
	}, req.Quantity)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart item updated successfully",
		Result:  cart,
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	var req RemoveItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.SellerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_seller_id", "seller_id is required")
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), userID, service.ItemKey{
		SellerID:  req.SellerID,
		ProductID: req.ProductID,
		Options:   req.Options,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart item removed successfully",
		Result:  cart,
	})
}

func (h *CartHandler) RemoveItemsBatch(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	var req RemoveItemsBatchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "items must not be empty")
		return
	}

	keys := make([]service.ItemKey, len(req.Items))
	for i, item := range req.Items {
		keys[i] = service.ItemKey{
			SellerID:  item.SellerID,
			ProductID: item.ProductID,
			Options:   item.Options,
		}
	}

	cart, err := h.service.RemoveItems(r.Context(), userID, keys)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart items removed successfully",
		Result:  cart,
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	cart, err := h.service.ClearCart(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, APIResponse{
		Code:    http.StatusOK,
		Message: "Cart cleared successfully",
		Result:  cart,
	})
}

// handleServiceError maps business errors to HTTP statuses. All of them
// are caller-visible and non-retryable; anything unrecognized is a 500.
func (h *CartHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, domain.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not found in cart")
	case errors.Is(err, domain.ErrNothingRemoved):
		respondError(w, http.StatusNotFound, "nothing_removed", "no matching items in cart")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
