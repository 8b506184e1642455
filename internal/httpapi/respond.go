package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/hazalmir/cartsvc/internal/catalog"
	"github.com/hazalmir/cartsvc/internal/domain/cart"
	"github.com/hazalmir/cartsvc/internal/domain/coupon"
	"github.com/hazalmir/cartsvc/internal/domain/order"
)

// errorResponse is the wire shape for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// writeDomainError maps the closed set of domain error kinds to HTTP replies.
// NotFound and Conflict kinds surface their message verbatim; upstream
// failures are logged in full but answered with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *catalog.ProductNotFoundError
		unavailable *catalog.UnavailableError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &unavailable):
		zctx.From(r.Context()).Error("product catalog unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to validate cart item")
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNoOrders):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrBadCustomization):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
