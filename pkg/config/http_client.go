package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig describes a downstream HTTP/JSON service.
type HTTPClientConfig struct {
	URL            string               `koanf:"url"`
	Timeout        time.Duration        `koanf:"timeout"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// String returns a string representation of the HTTP client configuration.
func (c *HTTPClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Client ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(c.CircuitBreaker.String())
	return b.String()
}

func (c *HTTPClientConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("service URL is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service URL must be an absolute http(s) URL: %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("service timeout is not configured")
	}
	return c.CircuitBreaker.Validate()
}
