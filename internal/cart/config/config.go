// Package config holds the cart service configuration.
package config

import (
	"strings"

	"github.com/rocketshoes/cartservice/pkg/config"
	"github.com/rocketshoes/cartservice/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Storage    config.StorageConfig    `koanf:"storage"`
	Services   ServicesConfig          `koanf:"services"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// ServicesConfig lists the downstream services the cart calls.
type ServicesConfig struct {
	Catalog config.HTTPClientConfig `koanf:"catalog"`
}

// Defaults are the built-in values, overridden by config.yaml, .env and CART_* variables.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":                                         8080,
		"server.maxHeaderBytes":                               1 << 20,
		"server.timeout.read":                                 "5s",
		"server.timeout.write":                                "10s",
		"server.timeout.idle":                                 "60s",
		"server.timeout.readHeader":                           "2s",
		"grpc.port":                                           "9090",
		"log.level":                                           "info",
		"shutdown.timeout":                                    "10s",
		"storage.driver":                                      config.StorageMemory,
		"storage.timeout":                                     "5s",
		"storage.mongo.database":                              "cart",
		"storage.mongo.collection":                            "cart_slots",
		"services.catalog.url":                                "http://localhost:3333",
		"services.catalog.timeout":                            "3s",
		"services.catalog.circuitbreaker.consecutivefailures": 5,
		"services.catalog.circuitbreaker.errorratepercent":    50,
		"services.catalog.circuitbreaker.opentimeout":         "30s",
		"nats.stream":                                         "CART",
		"nats.timeout":                                        "5s",
		"telemetry.metrics.enabled":                           true,
		"telemetry.metrics.path":                              "/metrics",
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Storage.String())
	b.WriteString("\n--- Catalog Service ---")
	b.WriteString(c.Services.Catalog.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GRPC,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.Storage,
		&c.Services.Catalog,
		&c.NATS,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
