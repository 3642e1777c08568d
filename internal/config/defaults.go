package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel       = "info"
	DefaultJSONLog        = false
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout        = 60 * time.Second
	DefaultRunTimeout     = time.Duration(0)
	DefaultHeadless       = true
	DefaultStartURL       = "https://pelni.co.id/"
	DefaultEndpoint       = "https://pelni.co.id/getdes"
	DefaultTokenSelector  = "input[name='_token']"
	DefaultOriginSelector = "select[name='ticket_org'] option"
	DefaultReadySelector  = "select[name='ticket_org']"
	DefaultOriginField    = "ticket_org"
	DefaultTokenField     = "_token"
	DefaultRequestDelay   = 100 * time.Millisecond
	DefaultMaxRPS         = 5.0
	DefaultTransport      = "page"
	DefaultOutput         = "pelni-destinations.json"
)

// Defaults returns a Config populated with the default values
func Defaults() *Config {
	return &Config{
		LogLevel:     DefaultLogLevel,
		JSONLog:      DefaultJSONLog,
		UserAgent:    DefaultUserAgent,
		Timeout:      DefaultTimeout,
		RunTimeout:   DefaultRunTimeout,
		Headless:     DefaultHeadless,
		RequestDelay: DefaultRequestDelay,
		MaxRPS:       DefaultMaxRPS,
		Transport:    DefaultTransport,
		Output:       DefaultOutput,
		Site: SiteConfig{
			StartURL:       DefaultStartURL,
			Endpoint:       DefaultEndpoint,
			TokenSelector:  DefaultTokenSelector,
			OriginSelector: DefaultOriginSelector,
			ReadySelector:  DefaultReadySelector,
			OriginField:    DefaultOriginField,
			TokenField:     DefaultTokenField,
		},
	}
}
