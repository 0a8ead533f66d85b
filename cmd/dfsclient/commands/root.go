// Package commands implements dfsclient's CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	nsAddr   string
	username string
)

var rootCmd = &cobra.Command{
	Use:   "dfsclient",
	Short: "dfsclient is the interactive client for a langos cluster",
	Long: `dfsclient opens a persistent connection to the name server and
reads commands from the terminal one line at a time: VIEW, CREATE, READ,
WRITE, DELETE, STREAM and the rest of the catalog and mediated verbs.

Running with no subcommand starts the interactive session directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRun,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nsAddr, "ns", "127.0.0.1:8080", "name server address")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "username (prompted interactively if omitted)")
	rootCmd.AddCommand(versionCmd)
}
