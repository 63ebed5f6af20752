// Package service implements the cart state container and its three mutating operations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rocketshoes/cartservice/internal/cart/domain"
	carterrors "github.com/rocketshoes/cartservice/internal/cart/errors"
	"github.com/rocketshoes/cartservice/internal/cart/notice"
	"github.com/rocketshoes/cartservice/internal/cart/store"
	"github.com/rocketshoes/cartservice/pkg/logger"
	"github.com/rocketshoes/cartservice/pkg/messaging"
	"github.com/rocketshoes/cartservice/pkg/messaging/events"
)

// SlotKey is the persistence key holding the cart snapshot.
const SlotKey = "@RocketShoes:cart"

const instrumentationName = "github.com/rocketshoes/cartservice/internal/cart/service"

// Operation names used in logs, notices, metrics and events.
const (
	OpAddProduct          = "add_product"
	OpRemoveProduct       = "remove_product"
	OpUpdateProductAmount = "update_product_amount"
)

// ProductCatalog resolves product details by ID.
type ProductCatalog interface {
	Get(ctx context.Context, productID int64) (domain.Product, error)
}

// StockService reports the quantity available for a product.
type StockService interface {
	Get(ctx context.Context, productID int64) (domain.StockInfo, error)
}

// UpdateProductAmount is the input of CartStore.UpdateProductAmount.
type UpdateProductAmount struct {
	ProductID int64
	Amount    int
}

// Deps are the collaborators of a CartStore. Catalog, Stock and Slot are required.
type Deps struct {
	Catalog   ProductCatalog
	Stock     StockService
	Slot      store.Slot
	Notifier  notice.Notifier
	Publisher messaging.Publisher
	Logger    *slog.Logger
	Meter     metric.Meter
}

// CartStore owns the shopper's cart. Reads return immutable snapshots;
// every successful mutation is written to the slot before it becomes visible.
type CartStore struct {
	mu   sync.Mutex
	cart domain.Cart

	catalog   ProductCatalog
	stock     StockService
	slot      store.Slot
	notifier  notice.Notifier
	publisher messaging.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer

	operations metric.Int64Counter
}

// New builds a CartStore and restores the cart from the slot.
// A missing snapshot yields an empty cart, as does one that cannot be parsed.
// Only a failing slot read is returned as an error.
func New(ctx context.Context, deps Deps) (*CartStore, error) {
	if deps.Catalog == nil || deps.Stock == nil || deps.Slot == nil {
		return nil, errors.New("cart store requires a catalog, a stock service and a slot")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "cart_store")

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notice.NewLogNotifier(log)
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	operations, err := meter.Int64Counter("cart.operations",
		metric.WithDescription("Cart operations by name and outcome"),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cart.operations counter: %w", err)
	}

	s := &CartStore{
		catalog:    deps.Catalog,
		stock:      deps.Stock,
		slot:       deps.Slot,
		notifier:   notifier,
		publisher:  deps.Publisher,
		logger:     log,
		tracer:     otel.Tracer(instrumentationName),
		operations: operations,
	}

	raw, ok, err := deps.Slot.Read(ctx, SlotKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	if !ok {
		log.InfoContext(ctx, "No cart snapshot found, starting with an empty cart")
		return s, nil
	}
	restored, err := domain.ParseCart(raw)
	if err != nil {
		log.WarnContext(ctx, "Discarding unreadable cart snapshot", "error", err)
		return s, nil
	}
	s.cart = restored
	log.InfoContext(ctx, "Cart restored", "entries", restored.Len())
	return s, nil
}

// Cart returns the current cart. The value is immutable and safe to share.
func (s *CartStore) Cart(_ context.Context) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// AddProduct adds one unit of productID, fetching the product when it is not in the cart yet.
// It fails with ErrStockExceeded when no further unit is available.
func (s *CartStore) AddProduct(ctx context.Context, productID int64) error {
	ctx, span := s.start(ctx, OpAddProduct, productID)
	defer span.End()

	err := s.addProduct(ctx, productID)
	s.finish(ctx, span, OpAddProduct, productID, err)
	return err
}

func (s *CartStore) addProduct(ctx context.Context, productID int64) error {
	snapshot := s.Cart(ctx)
	existing, inCart := snapshot.Find(productID)

	var (
		stock   domain.StockInfo
		product domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if stock, err = s.stock.Get(gctx, productID); err != nil {
			return fmt.Errorf("failed to fetch stock for product %d: %w", productID, err)
		}
		return nil
	})
	if !inCart {
		g.Go(func() error {
			var err error
			if product, err = s.catalog.Get(gctx, productID); err != nil {
				return fmt.Errorf("failed to fetch product %d: %w", productID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if inCart {
		if stock.Amount <= existing.Amount {
			return fmt.Errorf("product %d has %d in cart and %d in stock: %w",
				productID, existing.Amount, stock.Amount, carterrors.ErrStockExceeded)
		}
		existing.Amount++
		return s.commit(ctx, OpAddProduct, snapshot.WithAdded(existing))
	}

	if stock.Amount < 1 {
		return fmt.Errorf("product %d is out of stock: %w", productID, carterrors.ErrStockExceeded)
	}
	product.Amount = 1
	return s.commit(ctx, OpAddProduct, snapshot.WithAdded(product))
}

// RemoveProduct deletes the entry for productID. It makes no remote calls.
func (s *CartStore) RemoveProduct(ctx context.Context, productID int64) error {
	ctx, span := s.start(ctx, OpRemoveProduct, productID)
	defer span.End()

	err := s.removeProduct(ctx, productID)
	s.finish(ctx, span, OpRemoveProduct, productID, err)
	return err
}

func (s *CartStore) removeProduct(ctx context.Context, productID int64) error {
	next, ok := s.Cart(ctx).Without(productID)
	if !ok {
		return fmt.Errorf("product %d: %w", productID, carterrors.ErrEntryNotFound)
	}
	return s.commit(ctx, OpRemoveProduct, next)
}

// UpdateProductAmount sets the quantity of an entry already in the cart.
// Amounts below 1 are ignored without an error or a notice.
func (s *CartStore) UpdateProductAmount(ctx context.Context, in UpdateProductAmount) error {
	if in.Amount <= 0 {
		return nil
	}
	ctx, span := s.start(ctx, OpUpdateProductAmount, in.ProductID)
	defer span.End()
	span.SetAttributes(attribute.Int("cart.amount", in.Amount))

	err := s.updateProductAmount(ctx, in)
	s.finish(ctx, span, OpUpdateProductAmount, in.ProductID, err)
	return err
}

func (s *CartStore) updateProductAmount(ctx context.Context, in UpdateProductAmount) error {
	snapshot := s.Cart(ctx)

	stock, err := s.stock.Get(ctx, in.ProductID)
	if err != nil {
		return fmt.Errorf("failed to fetch stock for product %d: %w", in.ProductID, err)
	}
	if stock.Amount < in.Amount {
		return fmt.Errorf("product %d: requested %d, %d in stock: %w",
			in.ProductID, in.Amount, stock.Amount, carterrors.ErrStockExceeded)
	}

	next, ok := snapshot.WithAmount(in.ProductID, in.Amount)
	if !ok {
		return fmt.Errorf("product %d: %w", in.ProductID, carterrors.ErrEntryNotFound)
	}
	return s.commit(ctx, OpUpdateProductAmount, next)
}

// commit writes next to the slot and only then makes it the current cart.
func (s *CartStore) commit(ctx context.Context, operation string, next domain.Cart) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: failed to encode cart: %w", carterrors.ErrPersist, err)
	}

	s.mu.Lock()
	err = s.slot.Write(ctx, SlotKey, string(raw))
	if err == nil {
		s.cart = next
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", carterrors.ErrPersist, err)
	}
	s.publishUpdate(ctx, operation, next)
	return nil
}

func (s *CartStore) publishUpdate(ctx context.Context, operation string, c domain.Cart) {
	if s.publisher == nil {
		return
	}
	products := c.Items()
	items := make([]events.CartItem, len(products))
	for i, p := range products {
		items[i] = events.CartItem{ProductID: p.ID, Title: p.Title, Price: p.Price, Amount: p.Amount}
	}
	carrier := make(map[string]string)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(carrier))

	event := events.CartUpdatedEvent{
		Carrier:   carrier,
		Operation: operation,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish cart update", "error", err)
	}
}

func (s *CartStore) start(ctx context.Context, operation string, productID int64) (context.Context, trace.Span) {
	ctx = logger.WithOperation(ctx, operation)
	return s.tracer.Start(ctx, "CartStore."+operation,
		trace.WithAttributes(attribute.Int64("product.id", productID)))
}

// finish records the outcome and, on failure, sends the shopper a notice.
func (s *CartStore) finish(ctx context.Context, span trace.Span, operation string, productID int64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome)))

	if err == nil {
		s.logger.DebugContext(ctx, "Cart updated", "product_id", productID)
		return
	}

	s.logger.WarnContext(ctx, "Cart operation failed", "product_id", productID, "error", err)
	s.notifier.Notify(ctx, notice.Notice{Operation: operation, ProductID: productID, Message: NoticeFor(operation, err)})
}

// NoticeFor returns the shopper-facing text for an error returned by operation.
func NoticeFor(operation string, err error) string {
	if errors.Is(err, carterrors.ErrStockExceeded) {
		return notice.StockExceeded
	}
	switch operation {
	case OpAddProduct:
		return notice.AddFailed
	case OpRemoveProduct:
		return notice.RemoveFailed
	default:
		return notice.UpdateFailed
	}
}
