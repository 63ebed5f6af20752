package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported cart slot backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMongo    = "mongo"
)

// StorageConfig selects and configures the backend holding the persisted cart snapshot.
type StorageConfig struct {
	Driver   string         `koanf:"driver"`
	Timeout  time.Duration  `koanf:"timeout"`
	Postgres DatabaseConfig `koanf:"postgres"`
	Redis    RedisConfig    `koanf:"redis"`
	Mongo    MongoConfig    `koanf:"mongo"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
	// Migrate applies the embedded schema migrations at startup.
	Migrate bool `koanf:"migrate"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
}

type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	switch c.Driver {
	case StoragePostgres:
		b.WriteString(fmt.Sprintf("  postgres.url: %s\n", MaskURL(c.Postgres.URL)))
		b.WriteString(fmt.Sprintf("  postgres.migrate: %t\n", c.Postgres.Migrate))
	case StorageRedis:
		b.WriteString(fmt.Sprintf("  redis.addr: %s\n", MaskURL(c.Redis.Addr)))
	case StorageMongo:
		b.WriteString(fmt.Sprintf("  mongo.uri: %s\n", MaskURL(c.Mongo.URI)))
		b.WriteString(fmt.Sprintf("  mongo.database: %s\n", c.Mongo.Database))
		b.WriteString(fmt.Sprintf("  mongo.collection: %s\n", c.Mongo.Collection))
	}
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.Driver != StorageMemory && c.Timeout <= 0 {
		return fmt.Errorf("storage timeout is not configured")
	}
	switch c.Driver {
	case StorageMemory:
		return nil
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres URL is not configured")
		}
		if !isValidPostgresURL(c.Postgres.URL) {
			return fmt.Errorf("postgres URL must start with 'postgres://': %s", MaskURL(c.Postgres.URL))
		}
		return nil
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is not configured")
		}
		return nil
	case StorageMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return fmt.Errorf("mongo uri, database and collection must be configured")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides the credentials part of a connection URL.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return url
}
