// Package main runs the cart service: the REST API, a gRPC health endpoint and an optional pprof listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rocketshoes/cartservice/internal/cart/app"
	"github.com/rocketshoes/cartservice/internal/cart/config"
	"github.com/rocketshoes/cartservice/pkg/bootstrap"
	"github.com/rocketshoes/cartservice/pkg/config/configloader"
	"github.com/rocketshoes/cartservice/pkg/messaging"
	natsclient "github.com/rocketshoes/cartservice/pkg/nats"
	"github.com/rocketshoes/cartservice/pkg/telemetry"
)

const serviceName = "cart"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens the cart slot and serves HTTP, gRPC and pprof until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName, configloader.Options{Defaults: config.Defaults()})
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Traces.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry.Traces)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		mp, handler, err := telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown meter provider", "error", err)
			}
		}()
		metricsHandler = handler
	}

	slot, closeSlot, err := app.NewSlot(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open cart slot: %w", err)
	}
	defer closeSlot()

	var publisher messaging.Publisher
	if cfg.NATS.Enabled {
		nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				logger.Error("Failed to drain NATS connection", "error", err)
			}
		}()
		js, err := natsclient.NewJetStreamContext(nc)
		if err != nil {
			return err
		}
		if err := natsclient.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.StreamSubjects); err != nil {
			return err
		}
		publisher = natsclient.NewNatsPublisher(js)
		logger.Info("Connected to NATS", slog.String("stream", cfg.NATS.Stream))
	}

	deps, err := app.SetupDependencies(ctx, cfg, slot, publisher, logger)
	if err != nil {
		return err
	}
	deps.MetricsHandler = metricsHandler
	deps.MetricsPath = cfg.Telemetry.Metrics.Path

	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer, healthServer := app.SetupGrpcServer(cfg.GRPC.ReflectionEnabled)
	pprofServer := &http.Server{
		Addr:              cfg.PProf.Addr,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the gRPC server
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	// gracefully shutdown gRPC server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down gRPC server...")
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
