package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print dfsclient's build version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("dfsclient %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
