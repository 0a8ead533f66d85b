package nsserver

import (
	"strings"

	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/catalog"
)

// Catalog-only verbs (spec.md §4.1): NS answers from its own state, no SS
// round trip, reply is a human-readable payload followed by the end marker.

func handleListUsers(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbListUsers, args, 0); verr != nil {
		return nil, verr
	}
	return []string{catalog.RenderUserList(s.catalog.ListUsernames())}, nil
}

func handleView(s *session, args []string) ([]string, *wire.Error) {
	var flags string
	if len(args) > 0 {
		flags = args[0]
	}
	long := strings.ContainsRune(flags, 'l')
	all := strings.ContainsRune(flags, 'a')

	files := s.catalog.ViewAccessible(s.username, all)
	if long {
		return []string{catalog.RenderFileLong(files)}, nil
	}
	return []string{catalog.RenderFileShort(files)}, nil
}

func handleInfo(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbInfo, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.Info(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{catalog.RenderInfo(fm)}, nil
}

func parsePermission(s string) (catalog.Permission, *wire.Error) {
	switch strings.ToUpper(s) {
	case "R":
		return catalog.PermRead, nil
	case "W":
		return catalog.PermWrite, nil
	default:
		return 0, wire.NewError(wire.CodeInvalidArgs, "permission must be R or W, got %q", s)
	}
}

func handleAddAccess(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbAddAccess, args, 3); verr != nil {
		return nil, verr
	}
	perm, verr := parsePermission(args[2])
	if verr != nil {
		return nil, verr
	}
	if err := s.catalog.AddAccess(args[0], s.username, args[1], perm); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleRemAccess(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbRemAccess, args, 2); verr != nil {
		return nil, verr
	}
	if err := s.catalog.RemAccess(args[0], s.username, args[1]); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleAnnotate(s *session, args []string) ([]string, *wire.Error) {
	if verr := minArgs(wire.VerbAnnotate, args, 1); verr != nil {
		return nil, verr
	}
	text := strings.Join(args[1:], ";")
	if verr := validateOptionalField("annotation", text); verr != nil {
		return nil, verr
	}
	if err := s.catalog.Annotate(args[0], s.username, text); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleShowAnnotation(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbShowAnnotation, args, 1); verr != nil {
		return nil, verr
	}
	text, err := s.catalog.ShowAnnotation(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{text}, nil
}

func handleCreateFolder(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbCreateFolder, args, 1); verr != nil {
		return nil, verr
	}
	if err := s.catalog.CreateFolder(args[0], s.username); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleViewFolder(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbViewFolder, args, 1); verr != nil {
		return nil, verr
	}
	entries, err := s.catalog.ViewFolder(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{catalog.RenderFileShort(entries)}, nil
}

func handleViewRequests(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbViewRequests, args, 1); verr != nil {
		return nil, verr
	}
	reqs, err := s.catalog.ViewRequests(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if len(reqs) == 0 {
		return []string{"(no pending requests)"}, nil
	}
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Username
	}
	return []string{strings.Join(names, "\n")}, nil
}

func handleApprove(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbApprove, args, 2); verr != nil {
		return nil, verr
	}
	if err := s.catalog.Approve(args[0], s.username, args[1], catalog.PermRead); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleReject(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbReject, args, 2); verr != nil {
		return nil, verr
	}
	if err := s.catalog.Reject(args[0], s.username, args[1]); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleRequestAccess(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbRequestAccess, args, 1); verr != nil {
		return nil, verr
	}
	if err := s.catalog.RequestAccess(args[0], s.username); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}
