// Package commands implements ssd's CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ssd",
	Short: "ssd is a Storage Server for a langos cluster",
	Long: `ssd owns one root directory of file bytes and serves the READ,
WRITE and STREAM connections a client opens after a name server REDIRECT_*,
plus the name server's own mediated CREATE/DELETE/UNDO/CHECKPOINT/REVERT
and SS_READ calls.

Use "ssd start" to run the server, or "ssd version" to print build info.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

func GetConfigFile() string {
	return cfgFile
}
