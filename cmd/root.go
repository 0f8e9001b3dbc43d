package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobtracker",
	Short: "Job tracker API server",
	Long: `Job tracker API server. Serves sign-up, sign-in and profile
management over HTTP.

	jobtracker server
	jobtracker migrate up
`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
