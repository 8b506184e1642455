package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodySize caps how much of a catalog response is read. Product payloads
// are tiny; anything larger is treated as malformed.
const maxBodySize = 1 << 20

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over the catalog service's REST API.
// Lookups are idempotent and safe to retry; no retries are performed here.
type HTTPClient struct {
	base string
	http *http.Client
}

// NewHTTPClient creates a catalog client for the given base URL. Requests are
// bounded by timeout and traced via otelhttp.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Product fetches a single product by id. A clean 404 from the catalog maps
// to ProductNotFoundError; every other failure maps to UnavailableError.
func (c *HTTPClient) Product(ctx context.Context, id string) (*Product, error) {
	u := c.base + "/products/" + url.PathEscape(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "build request")}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ProductNotFoundError{ProductID: id}
	case resp.StatusCode != http.StatusOK:
		return nil, &UnavailableError{Err: errors.Errorf("catalog returned status %d", resp.StatusCode)}
	}

	var p Product
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&p); err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "decode product")}
	}
	return &p, nil
}
