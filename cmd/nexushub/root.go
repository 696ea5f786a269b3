package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nexushub",
		Short:         "NexusHub tool dashboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newCatalogCmd(),
		newVersionCmd(),
	)
	return cmd
}
