// Command nsd runs the Name Server: the single process that owns user and
// file metadata and mediates every CREATE/DELETE/UNDO/CHECKPOINT/REVERT and
// UPDATE_META against its storage servers.
package main

import (
	"fmt"
	"os"

	"github.com/langos-dfs/langos/cmd/nsd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
