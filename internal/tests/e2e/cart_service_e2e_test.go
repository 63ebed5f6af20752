// Package e2e provides end-to-end tests for the CartService application.
// The suite starts a real PostgreSQL instance with testcontainers-go, applies the embedded migrations
// and serves the application handler from an httptest.Server. The catalog and stock APIs are
// replaced by a chi-routed fake whose stock levels each test can change.
//
// Covered:
//   - Adding new and existing products, and the stock ceiling.
//   - Removing and re-adding entries.
//   - Quantity updates, including the silent no-op for non-positive amounts.
//   - Catalog outages surfacing as 502 with an unchanged cart.
//   - Restoring the cart from the database after a restart.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rocketshoes/cartservice/internal/cart/app"
	"github.com/rocketshoes/cartservice/internal/cart/config"
	"github.com/rocketshoes/cartservice/internal/cart/domain"
	"github.com/rocketshoes/cartservice/internal/cart/migrations"
	"github.com/rocketshoes/cartservice/internal/cart/store"
	pkgconfig "github.com/rocketshoes/cartservice/pkg/config"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "CART_SKIP_INTEGRATION_TESTS"

const cartURL = "/api/v1/cart"

// fakeCatalog serves products and mutable stock levels.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	stock    map[int64]int
	down     bool
}

func (f *fakeCatalog) setStock(id int64, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[id] = amount
}

func (f *fakeCatalog) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeCatalog) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.serve(w, r, func(id int64) (any, bool) {
			p, ok := f.products[id]
			return p, ok
		})
	})
	r.Get("/stock/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.serve(w, r, func(id int64) (any, bool) {
			amount, ok := f.stock[id]
			return domain.StockInfo{ID: id, Amount: amount}, ok
		})
	})
	return r
}

func (f *fakeCatalog) serve(w http.ResponseWriter, r *http.Request, lookup func(int64) (any, bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	body, ok := lookup(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// CartServiceE2ESuite is a test suite for end-to-end tests of the CartService.
type CartServiceE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	catalog     *fakeCatalog
	catalogSrv  *httptest.Server
	server      *httptest.Server
	httpClient  *http.Client
	appCfg      *config.Config
	logger      *slog.Logger
	ctx         context.Context
}

// testConfig creates a configuration for the CartService application pointing at the fake catalog.
func testConfig(catalogURL string) *config.Config {
	var cfg config.Config
	cfg.Storage.Driver = pkgconfig.StoragePostgres
	cfg.Storage.Timeout = 10 * time.Second
	cfg.Services.Catalog = pkgconfig.HTTPClientConfig{
		URL:     catalogURL,
		Timeout: 2 * time.Second,
		CircuitBreaker: pkgconfig.CircuitBreakerConfig{
			ConsecutiveFailures: 100,
			ErrorRatePercent:    100,
			OpenTimeout:         time.Second,
		},
	}
	return &cfg
}

func (s *CartServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("cart"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	require.NoError(s.T(), migrations.Up(connStr), "Failed to apply migrations")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")
	require.NoError(s.T(), s.dbPool.Ping(s.ctx))

	s.catalog = &fakeCatalog{}
	s.catalogSrv = httptest.NewServer(s.catalog.handler())
	s.appCfg = testConfig(s.catalogSrv.URL)
	s.httpClient = &http.Client{Timeout: 10 * time.Second}
}

func (s *CartServiceE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.catalogSrv != nil {
		s.catalogSrv.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the slot table, resets the fake catalog and starts a fresh application instance.
func (s *CartServiceE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_slots")
	require.NoError(s.T(), err, "Failed to truncate cart_slots table")

	s.catalog.mu.Lock()
	s.catalog.products = map[int64]domain.Product{
		1: {ID: 1, Title: "Running Shoe", Price: 139.9, ImageURL: "https://img/1.png"},
		2: {ID: 2, Title: "Trail Boot", Price: 219.5, ImageURL: "https://img/2.png"},
	}
	s.catalog.stock = map[int64]int{1: 3, 2: 1}
	s.catalog.down = false
	s.catalog.mu.Unlock()

	s.restart()
}

// restart builds a new application over the same database, as a process restart would.
func (s *CartServiceE2ESuite) restart() {
	if s.server != nil {
		s.server.Close()
	}
	deps, err := app.SetupDependencies(s.ctx, s.appCfg, store.NewPgStore(s.dbPool), nil, s.logger)
	require.NoError(s.T(), err)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
}

func TestCartServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(CartServiceE2ESuite))
}

// do sends a request and decodes a 200 response into a cart, or an error body otherwise.
func (s *CartServiceE2ESuite) do(method, path, body string) (int, []domain.Product, string) {
	s.T().Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, reader)
	require.NoError(s.T(), err)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return resp.StatusCode, nil, e.Error
	}
	var items []domain.Product
	require.NoError(s.T(), json.Unmarshal(raw, &items), "body: %s", raw)
	return resp.StatusCode, items, ""
}

func itemPath(id int64) string {
	return fmt.Sprintf("%s/items/%d", cartURL, id)
}

func (s *CartServiceE2ESuite) TestAddProduct_UpToStock() {
	for want := 1; want <= 3; want++ {
		code, items, _ := s.do(http.MethodPost, itemPath(1), "")
		s.Require().Equal(http.StatusOK, code)
		s.Require().Len(items, 1)
		s.Equal(want, items[0].Amount)
	}

	code, _, message := s.do(http.MethodPost, itemPath(1), "")
	s.Equal(http.StatusConflict, code)
	s.Equal("requested quantity exceeds stock", message)

	_, items, _ := s.do(http.MethodGet, cartURL, "")
	s.Equal([]domain.Product{{ID: 1, Title: "Running Shoe", Price: 139.9, ImageURL: "https://img/1.png", Amount: 3}}, items)
}

func (s *CartServiceE2ESuite) TestAddProduct_UnknownProduct() {
	s.catalog.setStock(42, 5)

	code, _, message := s.do(http.MethodPost, itemPath(42), "")

	s.Equal(http.StatusNotFound, code)
	s.Equal("could not add product", message)
}

func (s *CartServiceE2ESuite) TestAddProduct_CatalogDown() {
	_, _, _ = s.do(http.MethodPost, itemPath(2), "")
	s.catalog.setDown(true)

	code, _, message := s.do(http.MethodPost, itemPath(1), "")

	s.Equal(http.StatusBadGateway, code)
	s.Equal("could not add product", message)
	_, items, _ := s.do(http.MethodGet, cartURL, "")
	s.Len(items, 1)
}

func (s *CartServiceE2ESuite) TestRemoveProduct() {
	_, _, _ = s.do(http.MethodPost, itemPath(1), "")
	_, _, _ = s.do(http.MethodPost, itemPath(2), "")

	code, items, _ := s.do(http.MethodDelete, itemPath(1), "")
	s.Equal(http.StatusOK, code)
	s.Require().Len(items, 1)
	s.Equal(int64(2), items[0].ID)

	code, _, message := s.do(http.MethodDelete, itemPath(9), "")
	s.Equal(http.StatusNotFound, code)
	s.Equal("could not remove product", message)
}

func (s *CartServiceE2ESuite) TestUpdateProductAmount() {
	testCases := []struct {
		name           string
		productID      int64
		body           string
		expectedCode   int
		expectedNotice string
		expectedAmount int
	}{
		{name: "within stock", productID: 1, body: `{"amount":3}`, expectedCode: http.StatusOK, expectedAmount: 3},
		{name: "above stock", productID: 1, body: `{"amount":4}`, expectedCode: http.StatusConflict, expectedNotice: "requested quantity exceeds stock", expectedAmount: 1},
		{name: "zero is ignored", productID: 1, body: `{"amount":0}`, expectedCode: http.StatusOK, expectedAmount: 1},
		{name: "entry not in cart", productID: 2, body: `{"amount":1}`, expectedCode: http.StatusNotFound, expectedNotice: "could not change quantity", expectedAmount: 1},
		{name: "missing amount", productID: 1, body: `{}`, expectedCode: http.StatusBadRequest, expectedAmount: 1},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			_, _, _ = s.do(http.MethodPost, itemPath(1), "")

			code, _, message := s.do(http.MethodPut, itemPath(tc.productID), tc.body)

			s.Equal(tc.expectedCode, code)
			s.Equal(tc.expectedNotice, message)
			_, items, _ := s.do(http.MethodGet, cartURL, "")
			s.Require().Len(items, 1)
			s.Equal(tc.expectedAmount, items[0].Amount)
		})
	}
}

func (s *CartServiceE2ESuite) TestCartSurvivesRestart() {
	_, _, _ = s.do(http.MethodPost, itemPath(1), "")
	_, _, _ = s.do(http.MethodPost, itemPath(1), "")
	_, before, _ := s.do(http.MethodPost, itemPath(2), "")

	s.restart()

	_, after, _ := s.do(http.MethodGet, cartURL, "")
	s.Equal(before, after)
}

func (s *CartServiceE2ESuite) TestMalformedSnapshotStartsEmpty() {
	_, err := s.dbPool.Exec(s.ctx,
		`INSERT INTO cart_slots (key, value) VALUES ('@RocketShoes:cart', '{not json')`)
	s.Require().NoError(err)

	s.restart()

	code, items, _ := s.do(http.MethodGet, cartURL, "")
	s.Equal(http.StatusOK, code)
	s.Empty(items)
}
