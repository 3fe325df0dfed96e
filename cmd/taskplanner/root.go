package main

import (
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "taskplanner",
	Short: "Recurring-task engine with a durable daily scheduler",
	Long: `taskplanner materializes concrete task instances from recurring
templates and drives three daily background jobs (generation, completed-task
cleanup, start-date notifications), each guaranteed to run at most once per
UTC day across restarts.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
