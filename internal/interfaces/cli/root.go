// Package cli implements the areascope command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Version is stamped at build time.
	Version = "dev"
)

// NewRootCommand builds the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "areascope",
		Short:        "Spatial score aggregation over pre-computed analysis records",
		Long:         "areascope aggregates per-location analysis records inside a user-drawn study area:\nscores are averaged, demographics summed or population-weighted, and feature\nimportances recombined into a single ranked list.",
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(newAggregateCommand())
	return root
}
