// Package cmd implements the CLI commands for notemark using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "notemark",
	Short: "notemark — export OneNote notebooks to Markdown",
	Long: `notemark downloads pages from a OneNote notebook through the Microsoft
Graph API and converts them to Markdown, mirroring the section's page
hierarchy on disk and downloading embedded images.

Usage:
  notemark download --notebook <name> [flags]`,
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig wires environment variables into flag defaults, so e.g.
// NOTEMARK_CLIENT_ID overrides the built-in application ID.
func initConfig() {
	viper.SetEnvPrefix("NOTEMARK")
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
