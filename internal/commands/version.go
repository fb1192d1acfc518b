package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// config is not needed to print the version
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timeguard %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)
	},
}
