package config

import (
	"fmt"
	"os"
	"time"

	"github.com/law-makers/ferryroutes/internal/utils/headers"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of a config file. Unset keys keep their
// previous value.
type fileConfig struct {
	LogLevel     string            `yaml:"log_level"`
	JSONLog      *bool             `yaml:"json_log"`
	UserAgent    string            `yaml:"user_agent"`
	Proxy        string            `yaml:"proxy"`
	Headless     *bool             `yaml:"headless"`
	ChromePath   string            `yaml:"chrome_path"`
	Timeout      string            `yaml:"timeout"`
	RunTimeout   string            `yaml:"run_timeout"`
	RequestDelay string            `yaml:"request_delay"`
	MaxRPS       *float64          `yaml:"max_rps"`
	Transport    string            `yaml:"transport"`
	Output       string            `yaml:"output"`
	Headers      map[string]string `yaml:"headers"`
	Site         struct {
		StartURL       string `yaml:"start_url"`
		Endpoint       string `yaml:"endpoint"`
		TokenSelector  string `yaml:"token_selector"`
		OriginSelector string `yaml:"origin_selector"`
		ReadySelector  string `yaml:"ready_selector"`
		OriginField    string `yaml:"origin_field"`
		TokenField     string `yaml:"token_field"`
	} `yaml:"site"`
}

// loadFile merges the YAML file at path into cfg
func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	str := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	dur := func(key, src string, dst *time.Duration) error {
		if src == "" {
			return nil
		}
		d, err := time.ParseDuration(src)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(fc.LogLevel, &cfg.LogLevel)
	str(fc.UserAgent, &cfg.UserAgent)
	str(fc.Proxy, &cfg.Proxy)
	str(fc.ChromePath, &cfg.ChromePath)
	str(fc.Transport, &cfg.Transport)
	str(fc.Output, &cfg.Output)
	str(fc.Site.StartURL, &cfg.Site.StartURL)
	str(fc.Site.Endpoint, &cfg.Site.Endpoint)
	str(fc.Site.TokenSelector, &cfg.Site.TokenSelector)
	str(fc.Site.OriginSelector, &cfg.Site.OriginSelector)
	str(fc.Site.ReadySelector, &cfg.Site.ReadySelector)
	str(fc.Site.OriginField, &cfg.Site.OriginField)
	str(fc.Site.TokenField, &cfg.Site.TokenField)

	if len(fc.Headers) > 0 {
		cfg.Headers = headers.Merge(cfg.Headers, fc.Headers)
	}
	if fc.JSONLog != nil {
		cfg.JSONLog = *fc.JSONLog
	}
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
	if fc.MaxRPS != nil {
		cfg.MaxRPS = *fc.MaxRPS
	}

	if err := dur("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := dur("run_timeout", fc.RunTimeout, &cfg.RunTimeout); err != nil {
		return err
	}
	return dur("request_delay", fc.RequestDelay, &cfg.RequestDelay)
}
