// internal/cli/scrape.go
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/ferryroutes/internal/config"
	"github.com/law-makers/ferryroutes/internal/pipeline"
	"github.com/law-makers/ferryroutes/internal/ui"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract every origin and its destinations to a file",
		Long: `Loads the ticket search page, reads the session token and the departure
ports, then requests the destinations of each port in page order with a fixed
pause between requests.

A port whose request fails is kept with an empty dest. A missing token or a
port label that does not match "<city>|<code> - <name>" aborts the run and no
file is written.`,
		Example: `  # Write pelni-destinations.json in the current directory
  ferryroutes scrape

  # Write CSV instead, pausing half a second between requests
  ferryroutes scrape -o routes.csv --delay 500ms

  # Send dependent requests from a plain HTTP client sharing the browser cookies
  ferryroutes scrape --transport http`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}
	config.RegisterScrapeFlags(cmd)
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	ctx, cancel := a.RunContext(cmd.Context())
	defer cancel()

	var bar *progressbar.ProgressBar
	var progress func(done, total int)
	if a.Config.ShowProgress {
		progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(os.Stderr, total)
			}
			bar.Set(done)
		}
	}

	res, err := a.Pipeline(progress).Run(ctx)
	if bar != nil {
		if err != nil {
			bar.Exit()
		} else {
			bar.Finish()
		}
	}
	if err != nil {
		return err
	}

	renderSummary(cmd.OutOrStdout(), res)
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Resolving origins"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

// renderSummary prints the run totals and, when any, the failed origins
func renderSummary(w io.Writer, res *pipeline.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Records", "Resolved", "Failed", "Duration", "File"})
	t.AppendRow(table.Row{
		len(res.Records),
		len(res.Records) - len(res.Failures),
		len(res.Failures),
		res.Duration.Round(10 * time.Millisecond).String(),
		res.OutputPath,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(res.Failures) > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(w)
		ft.AppendHeader(table.Row{"#", "Origin ID", "City", "Error"})
		for _, f := range res.Failures {
			ft.AppendRow(table.Row{f.Index, f.OriginID, res.Records[f.Index].City, f.Err.Error()})
		}
		ft.SetStyle(table.StyleRounded)
		ft.Render()
	}

	fmt.Fprintf(w, "%s\n", ui.Success("✓ Saved to "+res.OutputPath))
}
