package nsserver

import (
	"context"
	"fmt"

	"github.com/langos-dfs/langos/pkg/catalog"
)

// Executor runs EXEC;file against the SS that owns file. spec.md §1 places
// the actual shell-execution semantics out of scope ("treated only as an
// external collaborator contract") — NS still routes and gates EXEC like any
// other NS-mediated verb, but what running a file actually means is left to
// whatever Executor the embedder wires in.
type Executor interface {
	Exec(ctx context.Context, ss catalog.Endpoint, filename string) (output string, err error)
}

// unimplementedExecutor is the default: it authorizes and routes the request
// exactly like a real Executor would, then reports that no execution backend
// is configured. This keeps EXEC's wire contract (read-permission check, routing,
// ERROR;107 on failure) exercised without inventing shell semantics the spec
// explicitly disclaims.
type unimplementedExecutor struct{}

func (unimplementedExecutor) Exec(ctx context.Context, ss catalog.Endpoint, filename string) (string, error) {
	return "", fmt.Errorf("no Executor configured for EXEC;%s (ss %s)", filename, ss.String())
}
