// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/marches/internal/app"
	"github.com/law-makers/marches/internal/config"
	"github.com/law-makers/marches/internal/ui"
)

// NewRootCmd builds the marches command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marches",
		Short: "Crawl procurement results from the public tenders portal",
		Long: `Marches walks the paginated result listing of the public procurement portal,
extracts one record per result card and merges new records into a local JSON dataset.

Pages that still fail after retries are written to a failed-page log so they can be
crawled again with the retry command.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Initialize the application lazily so -h and --version stay offline.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, a)
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return nil
		}
		return a.Close(context.Background())
	}

	config.RegisterFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(helpFunc)

	rootCmd.AddCommand(newFullCmd(), newDailyCmd(), newRetryCmd())
	return rootCmd
}

// Execute runs the command tree with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", palette(os.Stderr).Error("Error:"), err)
	}
	return err
}

// palette returns Color when w is a terminal.
func palette(w io.Writer) ui.Palette {
	f, ok := w.(*os.File)
	if !ok {
		return ui.Plain
	}
	info, err := f.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return ui.Plain
	}
	return ui.Color
}

// helpFunc prints a colorized help page
func helpFunc(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	p := palette(w)

	fmt.Fprintf(w, "\n%s\n", p.Bold(strings.ToUpper(cmd.Name())))
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", cmd.Long)
	}

	fmt.Fprintf(w, "\n%s\n", p.Bold("Usage"))
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s <command> [flags]\n", cmd.CommandPath())
	}

	if cmd.HasExample() {
		fmt.Fprintf(w, "\n%s\n", p.Bold("Examples"))
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s\n", p.Dim(trimmed))
			default:
				fmt.Fprintf(w, "  $ %s\n", trimmed)
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%s\n", p.Bold("Commands"))
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() || c.Name() == "help" {
				continue
			}
			fmt.Fprintf(w, "  %-8s %s\n", c.Name(), p.Dim(c.Short))
		}
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%s\n%s", p.Bold("Flags"), cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(w, "\n%s\n%s", p.Bold("Global Flags"), cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintln(w)
}
