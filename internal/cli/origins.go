// internal/cli/origins.go
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/ui"
	"github.com/law-makers/ferryroutes/pkg/models"
)

func newOriginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "origins",
		Short: "List the departure ports offered by the search page",
		Long: `Loads the ticket search page and lists every departure port with its parsed
city, code and name. No destination request is sent, so this is a quick way to
check that the page layout and the selectors still match.`,
		Example: `  # Check the live site
  ferryroutes origins

  # Check a local copy of the page with a visible browser
  ferryroutes origins --start-url http://localhost:8080/ --headful`,
		Args: cobra.NoArgs,
		RunE: runOrigins,
	}
}

func runOrigins(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	ctx, cancel := a.RunContext(cmd.Context())
	defer cancel()

	sc, err := a.Pipeline(nil).Origins(ctx)
	if err != nil {
		return err
	}

	renderOrigins(cmd.OutOrStdout(), sc)
	return nil
}

// renderOrigins prints one row per origin option. Rows that would abort a
// scrape show the reason instead of parsed fields.
func renderOrigins(w io.Writer, sc *models.SessionContext) int {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "ID", "City", "Code", "Name", "Status"})

	malformed := 0
	for i, opt := range sc.Origins {
		rec, err := extract.ParseOrigin(opt)
		if err != nil {
			malformed++
			t.AppendRow(table.Row{i, opt.Value, "", "", opt.Label, ui.Error(reason(err))})
			continue
		}
		t.AppendRow(table.Row{i, rec.ID, rec.City, rec.Code, rec.Name, ui.Success("ok")})
	}

	t.AppendFooter(table.Row{"", "", "", "", "Total", fmt.Sprintf("%d (%d malformed)", len(sc.Origins), malformed)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if malformed > 0 {
		fmt.Fprintln(w, ui.Warn("A scrape would abort on the malformed origins above."))
	}
	return malformed
}

func reason(err error) string {
	var ee *extract.ExtractError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}
