// Package client talks to the remote product catalog and stock API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rocketshoes/cartservice/internal/cart/domain"
	carterrors "github.com/rocketshoes/cartservice/internal/cart/errors"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Catalog reads products and stock levels from the storefront API:
// GET {base}/products/{id} and GET {base}/stock/{id}.
type Catalog struct {
	baseURL  *url.URL
	http     *http.Client
	validate *validator.Validate
}

// NewCatalog creates a Catalog for baseURL using the given HTTP client.
func NewCatalog(baseURL string, httpClient *http.Client) (*Catalog, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", baseURL, err)
	}
	return &Catalog{
		baseURL:  u,
		http:     httpClient,
		validate: validator.New(),
	}, nil
}

// GetProduct fetches product details. The returned product has a zero Amount.
// Returns ErrProductNotFound when the catalog answers 404.
func (c *Catalog) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, "products", productID, &product); err != nil {
		return domain.Product{}, err
	}
	if product.ID != productID {
		return domain.Product{}, fmt.Errorf("%w: asked for product %d, got %d", carterrors.ErrTransport, productID, product.ID)
	}
	product.Amount = 0
	return product, nil
}

// GetStock fetches the available quantity of a product.
// Returns ErrProductNotFound when the stock API answers 404.
func (c *Catalog) GetStock(ctx context.Context, productID int64) (domain.StockInfo, error) {
	var stock domain.StockInfo
	if err := c.getJSON(ctx, "stock", productID, &stock); err != nil {
		return domain.StockInfo{}, err
	}
	stock.ID = productID
	return stock, nil
}

func (c *Catalog) getJSON(ctx context.Context, resource string, productID int64, dst any) error {
	endpoint := c.baseURL.JoinPath(resource, strconv.FormatInt(productID, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", carterrors.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", carterrors.ErrTransport, resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%s %d: %w", resource, productID, carterrors.ErrProductNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: GET %s/%d returned status %d", carterrors.ErrTransport, resource, productID, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding %s/%d: %w", carterrors.ErrTransport, resource, productID, err)
	}
	if err := c.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: invalid %s/%d payload: %w", carterrors.ErrTransport, resource, productID, err)
	}
	return nil
}

// ProductCatalog adapts Catalog to the service's product lookup.
type ProductCatalog struct{ *Catalog }

func (p ProductCatalog) Get(ctx context.Context, productID int64) (domain.Product, error) {
	return p.GetProduct(ctx, productID)
}

// StockService adapts Catalog to the service's stock lookup.
type StockService struct{ *Catalog }

func (s StockService) Get(ctx context.Context, productID int64) (domain.StockInfo, error) {
	return s.GetStock(ctx, productID)
}
