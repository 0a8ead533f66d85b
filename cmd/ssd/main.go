// Command ssd runs a Storage Server: one process owning a root directory of
// file bytes, serving client READ/WRITE/STREAM and the name server's
// mediated CREATE/DELETE/UNDO/CHECKPOINT/REVERT/SS_READ.
package main

import (
	"fmt"
	"os"

	"github.com/langos-dfs/langos/cmd/ssd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
