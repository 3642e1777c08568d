package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", DefaultTimeout.String(), "Timeout for each navigation step and request")
	cmd.PersistentFlags().String("run-timeout", "0s", "Timeout for the whole run (0 disables)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("config", "", "Path to YAML configuration file (optional)")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("start-url", "", "Page holding the search form")
	cmd.PersistentFlags().String("endpoint", "", "Destinations endpoint")
}

// RegisterScrapeFlags registers the flags of the scrape command
func RegisterScrapeFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().StringP("output", "o", DefaultOutput, "Output file (.json or .csv)")
	cmd.Flags().String("transport", DefaultTransport, "How dependent requests are sent: page or http")
	cmd.Flags().String("delay", DefaultRequestDelay.String(), "Pause between two dependent requests")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	cmd.Flags().StringArrayP("header", "H", nil, "Extra header for destination requests (e.g., -H \"X-Requested-With: XMLHttpRequest\")")
}
