package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Product(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/p1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"p1","name":"Camera","price":129.99,"category":"electronics"}`))
		case "/products/missing":
			http.Error(w, "not found", http.StatusNotFound)
		case "/products/broken":
			_, _ = w.Write([]byte(`{"id":`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)

	t.Run("found", func(t *testing.T) {
		p, err := c.Product(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
		assert.Equal(t, "Camera", p.Name)
		assert.True(t, decimal.RequireFromString("129.99").Equal(p.Price))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Product(context.Background(), "missing")
		var nf *ProductNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "missing", nf.ProductID)
	})

	t.Run("server error is unavailable, not invalid", func(t *testing.T) {
		_, err := c.Product(context.Background(), "p500")
		var ua *UnavailableError
		require.ErrorAs(t, err, &ua)

		var nf *ProductNotFoundError
		assert.False(t, errors.As(err, &nf))
	})

	t.Run("malformed body is unavailable", func(t *testing.T) {
		_, err := c.Product(context.Background(), "broken")
		var ua *UnavailableError
		require.ErrorAs(t, err, &ua)
	})
}

func TestHTTPClient_Product_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	c := NewHTTPClient(srv.URL, 100*time.Millisecond)
	_, err := c.Product(context.Background(), "p1")

	var ua *UnavailableError
	require.ErrorAs(t, err, &ua)
}
