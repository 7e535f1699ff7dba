package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bilet-admin",
		Short:         "Maintenance commands for the Bilet lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCreateStaffCmd(),
		newRefreshStatusesCmd(),
		newRemindCmd(),
		newRevokeSessionsCmd(),
		newTopBooksCmd(),
	)
	return root
}
