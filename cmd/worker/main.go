// Command worker runs one-off maintenance tasks against the QC database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "worker",
		Short:        "QC tracker maintenance tasks",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(
		migrateCmd(),
		warmLookupsCmd(),
		snapshotCmd(),
		importCmd("import-activities", "Bulk import project activities from CSV", importActivities),
		importCmd("import-discrepancies", "Bulk import discrepancies from CSV", importDiscrepancies),
	)
	return root
}
