// Package commands implements nsd's CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "nsd",
	Short: "nsd is the Name Server for a langos cluster",
	Long: `nsd owns the user and file catalog and mediates every operation
that must be ordered against a storage server's acknowledgement: CREATE,
DELETE, UNDO, CHECKPOINT, REVERT and UPDATE_META.

Use "nsd start" to run the server, or "nsd version" to print build info.`,
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
