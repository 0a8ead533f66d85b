package nsserver

import (
	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/catalog"
)

// wireErrorFromCatalog translates a Catalog error into the wire-level code
// the client sees, per the table pinned in spec.md §6.
func wireErrorFromCatalog(err error) *wire.Error {
	if err == nil {
		return nil
	}
	switch catalog.CodeOf(err) {
	case catalog.ErrUserNotFound:
		return wire.NewError(wire.CodeUserNotFound, "%v", err)
	case catalog.ErrFileNotFound:
		return wire.NewError(wire.CodeFileNotFound, "%v", err)
	case catalog.ErrFileExists, catalog.ErrUserExists:
		return wire.NewError(wire.CodeFileExists, "%v", err)
	case catalog.ErrNotOwner:
		return wire.NewError(wire.CodeNotOwner, "%v", err)
	case catalog.ErrPermissionDenied:
		return wire.NewError(wire.CodePermissionDenied, "%v", err)
	case catalog.ErrNoSSAvailable:
		return wire.NewError(wire.CodeNoSSAvailable, "%v", err)
	case catalog.ErrInvalidArgs:
		return wire.NewError(wire.CodeInvalidArgs, "%v", err)
	case catalog.ErrSSNotFound:
		return wire.NewError(wire.CodeServerMisc, "%v", err)
	default:
		return wire.NewError(wire.CodeServerMisc, "%v", err)
	}
}
