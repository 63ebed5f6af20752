package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketshoes/cartservice/internal/cart/migrations"
	"github.com/rocketshoes/cartservice/internal/cart/store"
	"github.com/rocketshoes/cartservice/pkg/bootstrap"
	"github.com/rocketshoes/cartservice/pkg/config"
)

// NewSlot opens the slot backend selected by cfg.Driver.
// The returned close function releases the backend connection and is never nil.
func NewSlot(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Slot, func(), error) {
	switch cfg.Driver {
	case config.StorageMemory:
		logger.Warn("Using in-memory cart slot, the cart will not survive a restart")
		return store.NewInMemory(), func() {}, nil

	case config.StoragePostgres:
		if cfg.Postgres.Migrate {
			if err := migrations.Up(cfg.Postgres.URL); err != nil {
				return nil, nil, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Postgres.URL, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		logger.Info("Successfully connected to the database!")
		return store.NewPgStore(dbPool), dbPool.Close, nil

	case config.StorageRedis:
		client, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to redis")
		return store.NewRedisStore(client), func() { _ = client.Close() }, nil

	case config.StorageMongo:
		client, err := store.NewMongoClient(ctx, cfg.Mongo.URI, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to MongoDB")
		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return store.NewMongoStore(collection), func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
