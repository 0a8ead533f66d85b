// Command dfsclient is the interactive client: it prompts for a username,
// opens a persistent Name Server connection, then reads one command per
// line, handing each to pkg/client.Runner until "exit".
package main

import (
	"fmt"
	"os"

	"github.com/langos-dfs/langos/cmd/dfsclient/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
