package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/api"
)

var version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradesense CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tradesense version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "Forex technical-analysis signal generator")
	},
}

func init() {
	api.Version = version
	rootCmd.AddCommand(versionCmd)
}
