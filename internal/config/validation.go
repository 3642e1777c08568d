package config

import (
	"fmt"

	urlutil "github.com/law-makers/ferryroutes/internal/utils/url"
)

func validate(c *Config) error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("run timeout must be >= 0")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay must be >= 0")
	}
	if c.MaxRPS <= 0 {
		return fmt.Errorf("max rps must be > 0")
	}
	switch c.Transport {
	case "page", "http":
	default:
		return fmt.Errorf("transport must be page or http, got %q", c.Transport)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if err := urlutil.ValidateURL(c.Site.StartURL); err != nil {
		return fmt.Errorf("start url: %w", err)
	}
	if err := urlutil.ValidateURL(c.Site.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}

	required := []struct{ name, value string }{
		{"token selector", c.Site.TokenSelector},
		{"origin selector", c.Site.OriginSelector},
		{"origin field", c.Site.OriginField},
		{"token field", c.Site.TokenField},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	return nil
}
