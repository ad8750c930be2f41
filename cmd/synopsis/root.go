package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON   bool
	flagDBPath string
)

var rootCmd = &cobra.Command{
	Use:   "synopsis",
	Short: "Autonomous science data product prioritization engine",
	Long: `synopsis ingests autonomously-generated science data products into a
catalogue, runs the maximum marginal relevance downlink planner over it under
configurable rules and diversity discounting, and inspects the resulting
catalogue and run provenance.`,
	SilenceUsage: true,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON instead of table")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the catalogue database")
}

// GetJSON reports whether output should be rendered as JSON.
func GetJSON() bool { return flagJSON }

// GetDBPath returns the configured catalogue database path.
func GetDBPath() string { return flagDBPath }
