// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/ferryroutes/internal/app"
	"github.com/law-makers/ferryroutes/internal/config"
	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/ui"
)

const version = "0.1.0"

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ferryroutes",
		Short: "Extract the ferry route directory from the Pelni ticketing site",
		Long: `Ferryroutes drives a headless browser to the ticket search page, reads the
session token and every departure port, then asks the site for the destinations
of each port, one request at a time.

The result is written as a JSON array of {name, code, city, id, dest} records.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// The application is created lazily so -h/--version never start anything
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if cfg.JSONLog {
			cfg.ShowProgress = false
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, a)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetApp(cmd)
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Timeout)
		defer cancel()
		_ = a.Close(ctx)
		SetApp(cmd, nil)
	}

	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for ferryroutes")
	rootCmd.Flags().Bool("version", false, "Version for ferryroutes")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)

	rootCmd.AddCommand(newScrapeCmd(), newOriginsCmd())
	return rootCmd
}

// Execute runs the CLI under ctx and returns the process exit code.
// Cancelling ctx aborts a running extraction without writing output.
func Execute(ctx context.Context) int {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Interrupted, no output written")
		}
		reportError(os.Stderr, err)
		return 1
	}
	return 0
}

// reportError prints err and, for errors that stop a run before any request
// is resolved, the reason no output file exists.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", ui.Error("Error:"), err)

	var ee *extract.ExtractError
	if errors.As(err, &ee) && ee.Fatal() {
		fmt.Fprintf(w, "%s\n", ui.Warn(fmt.Sprintf("Run aborted (%s), no output written.", ee.Code)))
		if ee.Code == extract.ErrCodeMalformedInput {
			fmt.Fprintln(w, "The origin list format may have changed; inspect it with the origins command.")
		}
	}
}
