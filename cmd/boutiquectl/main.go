// Command boutiquectl is the admin tool: schema migrations, summaries,
// exports and credential set-up.
package main

import (
	"context"
	"fmt"
	"os"

	"boutique/internal/cli"
	"boutique/internal/config"
	"boutique/internal/log"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "boutiquectl",
		Short:        "Administer the boutique ledger",
		SilenceUsage: true,
	}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		a.cfg = config.Load()
		a.logger = cli.SetupLogger(a.cfg, log.ComponentCLI)
	}
	root.AddCommand(
		newMigrateCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newHashPasswordCmd(),
		newSheetsAuthCmd(a),
	)
	return root
}

func (a *app) backendLabel() string {
	return fmt.Sprintf("%s backend", a.cfg.DataBackend)
}
