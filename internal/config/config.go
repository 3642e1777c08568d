package config

import (
	"fmt"
	"os"
	"time"

	"github.com/law-makers/ferryroutes/internal/utils/headers"
	urlutil "github.com/law-makers/ferryroutes/internal/utils/url"
	"github.com/spf13/cobra"
)

// SiteConfig describes the ticketing site being extracted
type SiteConfig struct {
	StartURL       string
	Endpoint       string
	TokenSelector  string
	OriginSelector string
	ReadySelector  string
	OriginField    string
	TokenField     string
}

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	UserAgent  string
	Proxy      string
	Headless   bool
	ChromePath string

	// Timeouts
	Timeout    time.Duration
	RunTimeout time.Duration

	// Pacing
	RequestDelay time.Duration
	MaxRPS       float64

	Transport string
	Output    string
	Site      SiteConfig
	// Headers are added to every dependent request
	Headers map[string]string

	// ShowProgress enables the progress bar of the scrape command
	ShowProgress bool
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so both its own and inherited flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()
	cfg.ShowProgress = true

	// Config file named by --config or FERRY_CONFIG
	path := os.Getenv("FERRY_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	// A relative endpoint is relative to the search page
	cfg.Site.Endpoint = urlutil.ResolveURL(cfg.Site.StartURL, cfg.Site.Endpoint)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides cfg from FERRY_* environment variables
func applyEnv(cfg *Config) error {
	if v := os.Getenv("FERRY_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("FERRY_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FERRY_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("FERRY_START_URL"); v != "" {
		cfg.Site.StartURL = v
	}
	if v := os.Getenv("FERRY_ENDPOINT"); v != "" {
		cfg.Site.Endpoint = v
	}
	if v := os.Getenv("FERRY_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("FERRY_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("FERRY_REQUEST_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FERRY_REQUEST_DELAY: %w", err)
		}
		cfg.RequestDelay = d
	}
	return nil
}

// applyFlags overrides cfg with every flag the user explicitly set
func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()

	str := func(name string, dst *string) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	dur := func(name string, dst *time.Duration) error {
		if f := flags.Lookup(name); f != nil && f.Changed {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
		return nil
	}
	set := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed && f.Value.String() == "true"
	}

	str("user-agent", &cfg.UserAgent)
	str("proxy", &cfg.Proxy)
	str("start-url", &cfg.Site.StartURL)
	str("endpoint", &cfg.Site.Endpoint)
	str("transport", &cfg.Transport)
	str("output", &cfg.Output)

	if err := dur("timeout", &cfg.Timeout); err != nil {
		return err
	}
	if err := dur("run-timeout", &cfg.RunTimeout); err != nil {
		return err
	}
	if err := dur("delay", &cfg.RequestDelay); err != nil {
		return err
	}

	if f := flags.Lookup("header"); f != nil && f.Changed {
		values, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		cfg.Headers = headers.Merge(cfg.Headers, headers.ParseHeaders(values))
	}

	if set("headful") {
		cfg.Headless = false
	}
	if set("no-progress") {
		cfg.ShowProgress = false
	}
	if set("json") {
		cfg.JSONLog = true
	}
	if set("verbose") {
		cfg.LogLevel = "debug"
	}
	if set("quiet") {
		cfg.LogLevel = "error"
		cfg.ShowProgress = false
	}
	return nil
}
