// Package app contains the application setup for the CartService.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/rocketshoes/cartservice/internal/cart/client"
	"github.com/rocketshoes/cartservice/internal/cart/config"
	"github.com/rocketshoes/cartservice/internal/cart/notice"
	"github.com/rocketshoes/cartservice/internal/cart/service"
	"github.com/rocketshoes/cartservice/internal/cart/store"
	"github.com/rocketshoes/cartservice/internal/cart/transport/rest"
	"github.com/rocketshoes/cartservice/pkg/client/httpclient"
	"github.com/rocketshoes/cartservice/pkg/messaging"
	"github.com/rocketshoes/cartservice/pkg/server"
)

type Dependencies struct {
	CartStore *service.CartStore
	Logger    *slog.Logger
	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// SetupDependencies builds the catalog client and the cart store over slot.
// publisher may be nil, in which case notices only go to the log and no update events are sent.
func SetupDependencies(ctx context.Context, cfg *config.Config, slot store.Slot, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	httpClient := httpclient.New("catalog", cfg.Services.Catalog)
	catalog, err := client.NewCatalog(cfg.Services.Catalog.URL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	notifiers := notice.Multi{notice.NewLogNotifier(logger)}
	if publisher != nil {
		notifiers = append(notifiers, notice.NewPublisherNotifier(publisher, logger))
	}

	cartStore, err := service.New(ctx, service.Deps{
		Catalog:   client.ProductCatalog{Catalog: catalog},
		Stock:     client.StockService{Catalog: catalog},
		Slot:      slot,
		Notifier:  notifiers,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cart store: %w", err)
	}

	return &Dependencies{
		CartStore: cartStore,
		Logger:    logger,
	}, nil
}

// SetupHttpHandler initializes the routes and middleware for the CartService application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.CartStore, deps.Logger).RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Handle(deps.MetricsPath, deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures an HTTP server for the CartService application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, "cart-http", mux)
}

// SetupGrpcServer creates the gRPC server. It only carries the health and reflection services.
func SetupGrpcServer(reflectionEnabled bool) (*grpc.Server, *health.Server) {
	return server.NewGRPCServer(reflectionEnabled)
}
