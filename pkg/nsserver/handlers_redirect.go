package nsserver

import (
	"strconv"

	"github.com/langos-dfs/langos/internal/wire"
)

// Redirect verbs (spec.md §4.1): NS only authorizes and resolves the owning
// SS, then hands the client a REDIRECT_* descriptor — the actual bytes never
// pass through NS.

func handleRead(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbRead, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.Info(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{wire.RedirectRead + ";" + fm.SS.IP + ";" + strconv.Itoa(fm.SS.Port) + ";" + fm.Filename}, nil
}

func handleStream(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbStream, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.Info(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{wire.RedirectStream + ";" + fm.SS.IP + ";" + strconv.Itoa(fm.SS.Port) + ";" + fm.Filename}, nil
}

func handleWrite(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbWrite, args, 2); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckWriteAccess(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if _, convErr := strconv.Atoi(args[1]); convErr != nil {
		return nil, wire.NewError(wire.CodeInvalidArgs, "sentence index must be numeric: %v", convErr)
	}
	return []string{wire.RedirectWrite + ";" + fm.SS.IP + ";" + strconv.Itoa(fm.SS.Port) + ";" + fm.Filename + ";" + args[1]}, nil
}
