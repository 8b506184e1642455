// Package httpapi exposes the cart operations over HTTP. It holds only
// transport concerns: routing, identity extraction, DTO decoding, and the
// mapping from domain error kinds to status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hazalmir/cartsvc/internal/domain/cart"
	"github.com/hazalmir/cartsvc/internal/domain/order"
)

// maxRequestBody bounds request payload size.
const maxRequestBody = 1 << 20

// Service is the orchestrator interface the handlers delegate to.
type Service interface {
	AddToCart(ctx context.Context, userEmail string, inputs []cart.ItemInput) (*cart.Cart, error)
	GetCart(ctx context.Context, userEmail string) (*cart.Cart, error)
	DeleteCartItem(ctx context.Context, userEmail, productID string) (*cart.Cart, error)
	GetOrders(ctx context.Context, userEmail string) ([]order.Order, error)
	PlaceOrder(ctx context.Context, userEmail string) (*order.Order, error)
	ApplyCoupon(ctx context.Context, userEmail, code string) (decimal.Decimal, error)
	UpdateQuantity(ctx context.Context, userEmail, productID string, quantity int) (*cart.Cart, error)
}

// Handler serves the cart API.
type Handler struct {
	svc Service
}

// NewHandler constructs a Handler delegating to the given service.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the cart routes, all behind the identity middleware.
func (h *Handler) Routes(identity func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/cart", func(r chi.Router) {
		r.Use(identity)
		r.Post("/", h.addToCart)
		r.Get("/", h.getCart)
		r.Delete("/items/{productID}", h.deleteCartItem)
		r.Get("/orders", h.getOrders)
		r.Post("/place-order", h.placeOrder)
		r.Post("/apply-coupon", h.applyCoupon)
		r.Patch("/update-quantity", h.updateQuantity)
	})
	return r
}

// --- Request DTOs ---

type lineItemRequest struct {
	ProductID      string          `json:"productId"`
	Quantity       int             `json:"quantity"`
	PurchaseOption string          `json:"purchaseOption"`
	StartDate      *time.Time      `json:"startDate"`
	EndDate        *time.Time      `json:"endDate"`
	Customization  json.RawMessage `json:"customization"`
}

type addToCartRequest struct {
	Items []lineItemRequest `json:"items"`
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode"`
}

type updateQuantityRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// --- Handlers ---

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items required")
		return
	}

	inputs := make([]cart.ItemInput, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == "" {
			writeError(w, http.StatusBadRequest, "productId required")
			return
		}
		if item.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		opt := cart.PurchaseOption(item.PurchaseOption)
		if item.PurchaseOption != "" && !opt.Valid() {
			writeError(w, http.StatusBadRequest, "purchaseOption must be buy or rent")
			return
		}
		inputs[i] = cart.ItemInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			PurchaseOption: opt,
			StartDate:      item.StartDate,
			EndDate:        item.EndDate,
			Customization:  item.Customization,
		}
	}

	c, err := h.svc.AddToCart(r.Context(), email, inputs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	c, err := h.svc.GetCart(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID := chi.URLParam(r, "productID")
	c, err := h.svc.DeleteCartItem(r.Context(), email, productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.svc.GetOrders(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	o, err := h.svc.PlaceOrder(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req applyCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CouponCode == "" {
		writeError(w, http.StatusBadRequest, "couponCode required")
		return
	}

	amount, err := h.svc.ApplyCoupon(r.Context(), email, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"discount": amount.InexactFloat64()})
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	email, ok := UserEmail(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId required")
		return
	}

	// Quantity is not bounds-checked on update; the store takes the value
	// as sent.
	c, err := h.svc.UpdateQuantity(r.Context(), email, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// decodeBody decodes the JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
