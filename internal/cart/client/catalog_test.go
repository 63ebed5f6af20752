package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rocketshoes/cartservice/internal/cart/domain"
	carterrors "github.com/rocketshoes/cartservice/internal/cart/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeAPI serves canned bodies for the catalog endpoints.
func newFakeAPI(t *testing.T, routes map[string]func(w http.ResponseWriter)) *Catalog {
	t.Helper()
	r := chi.NewRouter()
	for path, fn := range routes {
		r.Get(path, func(w http.ResponseWriter, _ *http.Request) { fn(w) })
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	catalog, err := NewCatalog(srv.URL+"/api", &http.Client{Timeout: time.Second})
	require.NoError(t, err)
	return catalog
}

func body(status int, payload string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func Test_Catalog_GetProduct(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		payload     string
		expected    domain.Product
		expectError error
	}{
		{
			name:     "Success - product found",
			status:   http.StatusOK,
			payload:  `{"id":5,"title":"Shoe","price":100,"imageUrl":"shoe.png"}`,
			expected: domain.Product{ID: 5, Title: "Shoe", Price: 100, ImageURL: "shoe.png"},
		},
		{
			name:     "Success - amount from catalog is ignored",
			status:   http.StatusOK,
			payload:  `{"id":5,"title":"Shoe","price":100,"amount":7}`,
			expected: domain.Product{ID: 5, Title: "Shoe", Price: 100},
		},
		{
			name:        "Error - not found",
			status:      http.StatusNotFound,
			payload:     `{}`,
			expectError: carterrors.ErrProductNotFound,
		},
		{
			name:        "Error - server failure",
			status:      http.StatusInternalServerError,
			payload:     `{}`,
			expectError: carterrors.ErrTransport,
		},
		{
			name:        "Error - malformed body",
			status:      http.StatusOK,
			payload:     `{"id":`,
			expectError: carterrors.ErrTransport,
		},
		{
			name:        "Error - missing title",
			status:      http.StatusOK,
			payload:     `{"id":5,"price":100}`,
			expectError: carterrors.ErrTransport,
		},
		{
			name:        "Error - wrong product returned",
			status:      http.StatusOK,
			payload:     `{"id":6,"title":"Boot","price":80}`,
			expectError: carterrors.ErrTransport,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			catalog := newFakeAPI(t, map[string]func(w http.ResponseWriter){
				"/api/products/5": body(tc.status, tc.payload),
			})
			// when
			product, err := ProductCatalog{catalog}.Get(context.Background(), 5)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, product)
		})
	}
}

func Test_Catalog_GetStock(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		payload     string
		expected    domain.StockInfo
		expectError error
	}{
		{
			name:     "Success - stock found",
			status:   http.StatusOK,
			payload:  `{"id":5,"amount":3}`,
			expected: domain.StockInfo{ID: 5, Amount: 3},
		},
		{
			name:     "Success - out of stock",
			status:   http.StatusOK,
			payload:  `{"id":5,"amount":0}`,
			expected: domain.StockInfo{ID: 5, Amount: 0},
		},
		{
			name:        "Error - negative amount",
			status:      http.StatusOK,
			payload:     `{"id":5,"amount":-1}`,
			expectError: carterrors.ErrTransport,
		},
		{
			name:        "Error - not found",
			status:      http.StatusNotFound,
			payload:     `{}`,
			expectError: carterrors.ErrProductNotFound,
		},
		{
			name:        "Error - bad gateway",
			status:      http.StatusBadGateway,
			payload:     ``,
			expectError: carterrors.ErrTransport,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			catalog := newFakeAPI(t, map[string]func(w http.ResponseWriter){
				"/api/stock/5": body(tc.status, tc.payload),
			})
			// when
			stock, err := StockService{catalog}.Get(context.Background(), 5)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stock)
		})
	}
}

func Test_Catalog_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	catalog, err := NewCatalog(url, &http.Client{Timeout: time.Second})
	require.NoError(t, err)

	_, err = catalog.GetStock(context.Background(), 1)

	assert.ErrorIs(t, err, carterrors.ErrTransport)
}

func Test_Catalog_ContextCancelled(t *testing.T) {
	catalog := newFakeAPI(t, map[string]func(w http.ResponseWriter){
		"/api/stock/1": body(http.StatusOK, `{"id":1,"amount":1}`),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.GetStock(ctx, 1)

	assert.ErrorIs(t, err, carterrors.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
