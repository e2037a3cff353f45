package cmd

import (
	"github.com/spf13/cobra"

	"ragingest/cmd/run"
	"ragingest/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer()
	},
}

func Execute() {
	var rootCmd = &cobra.Command{Use: "ragingest"}
	rootCmd.AddCommand(run.RunCmd, versionCmd)
	rootCmd.Execute()
}
