package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/ferryroutes/internal/ui"
)

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	renderHelp(cmd.OutOrStdout(), cmd, true)
}

// customUsageFunc provides a colorized usage output
func customUsageFunc(cmd *cobra.Command) error {
	renderHelp(cmd.ErrOrStderr(), cmd, false)
	return nil
}

// renderHelp writes the usage block of cmd to w. full adds the description,
// examples and inherited flags.
func renderHelp(w io.Writer, cmd *cobra.Command, full bool) {
	section := func(title string) {
		fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
	}

	if full {
		fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
		if cmd.Short != "" {
			fmt.Fprintln(w, cmd.Short)
		}
		if cmd.Long != "" && cmd.Long != cmd.Short {
			fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
		}
	}

	section("Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}

	if full && cmd.HasExample() {
		section("Examples")
		printExamples(w, cmd.Example)
	}

	if cmd.HasAvailableSubCommands() {
		section("Commands")
		printCommands(w, cmd)
	}

	if cmd.HasAvailableLocalFlags() {
		section("Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	if full && cmd.HasAvailableInheritedFlags() {
		section("Global Flags")
		printFlagsTo(w, cmd.InheritedFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%sUse \"%s%s%s %s--help%s\" for more information.%s\n\n",
		ui.ColorDim,
		ui.ColorCyan, cmd.CommandPath(), ui.ColorReset+ui.ColorDim,
		ui.ColorGreen, ui.ColorReset+ui.ColorDim,
		ui.ColorReset)
}

// printExamples renders comment lines dimmed and commands with a "$" prompt
func printExamples(w io.Writer, example string) {
	lastWasCommand := false
	for _, line := range strings.Split(example, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if lastWasCommand {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			lastWasCommand = false
			continue
		}
		fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
		lastWasCommand = true
	}
}

func printCommands(w io.Writer, cmd *cobra.Command) {
	var available []*cobra.Command
	maxLen := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			available = append(available, c)
			maxLen = max(maxLen, len(c.Name()))
		}
	}

	for _, c := range available {
		padding := strings.Repeat(" ", maxLen-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorCyan, c.Name(), ui.ColorReset,
			padding,
			ui.ColorDim, c.Short, ui.ColorReset)
	}
}

// printFlagsTo aligns pflag usage lines into a flag column and a description column
func printFlagsTo(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flagPart)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", width+4), ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}
		flagPart, descPart, found := strings.Cut(trimmed, "  ")
		if !found {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}
		flagPart = strings.TrimSpace(flagPart)
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorGreen, flagPart, ui.ColorReset,
			strings.Repeat(" ", width-len(flagPart)+2),
			ui.ColorDim, strings.TrimSpace(descPart), ui.ColorReset)
	}
}

// wrapText wraps text at width, keeping paragraphs and list items intact
func wrapText(text string, width int) string {
	var paragraphs []string

	for _, para := range strings.Split(text, "\n\n") {
		var lines []string
		var current strings.Builder

		flush := func() {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}

		for _, line := range strings.Split(para, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
				flush()
				lines = append(lines, trimmed)
				continue
			}
			for _, word := range strings.Fields(trimmed) {
				switch {
				case current.Len() == 0:
					current.WriteString(word)
				case current.Len()+1+len(word) <= width:
					current.WriteString(" ")
					current.WriteString(word)
				default:
					flush()
					current.WriteString(word)
				}
			}
		}
		flush()

		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
