package nsserver

import (
	"strings"

	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/catalog"
	"github.com/langos-dfs/langos/pkg/nstransaction"
)

// NS-mediated verbs (spec.md §4.3): NS dials the owning SS itself, waits for
// the SS's ACK, and only then mutates the catalog — "catalog mutation and
// persistence must be ordered strictly after SS ACK" (spec.md §4.1), which
// resolves the "zombie metadata" open question (spec.md §9): a failed SS
// leg never leaves a dangling catalog row.

func sendToSS(s *session, verb, wantAck string, ep catalog.Endpoint, parts ...string) (*nstransaction.Result, *wire.Error) {
	ctx, cancel := transactionContext()
	defer cancel()
	res, err := nstransaction.Send(ctx, ep.IP, ep.Port, verb, wantAck, parts...)
	ok := err == nil && (res == nil || res.Acked)
	s.metrics.ssTransaction(verb, ok)
	if err != nil {
		if we, isWire := err.(*wire.Error); isWire {
			return nil, we
		}
		return nil, wire.NewError(wire.CodeSSFailure, "%v", err)
	}
	if !res.Acked {
		return res, wire.NewError(wire.CodeSSFailure, "storage server rejected %s: %s", verb, res.Raw)
	}
	return res, nil
}

func handleCreate(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbCreate, args, 1); verr != nil {
		return nil, verr
	}
	filename := args[0]
	if verr := validateField("filename", filename); verr != nil {
		return nil, verr
	}
	if _, err := s.catalog.Lookup(filename); err == nil {
		return nil, wire.NewError(wire.CodeFileExists, "file already exists: %s", filename)
	}

	ep, catErr := s.catalog.PickSS()
	if catErr != nil {
		return nil, wireErrorFromCatalog(catErr)
	}
	if _, verr := sendToSS(s, wire.SSVerbCreate, wire.SSAckCreate, ep, filename); verr != nil {
		return nil, verr
	}
	if err := s.catalog.InstallFile(&catalog.FileMetadata{Filename: filename, Owner: s.username, SS: ep}); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleDelete(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbDelete, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckOwner(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if _, verr := sendToSS(s, wire.SSVerbDelete, wire.SSAckDelete, fm.SS, fm.Filename); verr != nil {
		return nil, verr
	}
	if err := s.catalog.RemoveFile(fm.Filename); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleUndo(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbUndo, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckWriteAccess(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if _, verr := sendToSS(s, wire.SSVerbUndo, wire.SSAckUndo, fm.SS, fm.Filename); verr != nil {
		return nil, verr
	}
	return []string{"OK"}, nil
}

// handleUpdateMeta fetches the live file bytes and recomputes word/char
// counts, mirroring original_source/src/name_server/CRWD.c::handle_update_meta
// — the only NS-mediated verb whose SS leg is a plain SS_READ rather than a
// dedicated SS_* ack verb.
func handleUpdateMeta(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbUpdateMeta, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckWriteAccess(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	res, verr := sendToSS(s, wire.SSVerbRead, "", fm.SS, fm.Filename)
	if verr != nil {
		return nil, verr
	}
	wordCount := len(strings.Fields(res.Raw))
	charCount := len(res.Raw)
	if err := s.catalog.UpdateMeta(fm.Filename, s.username, wordCount, charCount); err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	return []string{"OK"}, nil
}

func handleExec(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbExec, args, 1); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.Info(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	ctx, cancel := transactionContext()
	defer cancel()
	output, execErr := s.executor.Exec(ctx, fm.SS, fm.Filename)
	if execErr != nil {
		return nil, wire.NewError(wire.CodeServerMisc, "%v", execErr)
	}
	return []string{output}, nil
}

func handleCheckpoint(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbCheckpoint, args, 2); verr != nil {
		return nil, verr
	}
	if verr := validateTag("tag", args[1]); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckOwner(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if _, verr := sendToSS(s, wire.SSVerbCheckpoint, wire.SSAckCheckpoint, fm.SS, fm.Filename, args[1]); verr != nil {
		return nil, verr
	}
	return []string{"OK"}, nil
}

func handleRevert(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbRevert, args, 2); verr != nil {
		return nil, verr
	}
	if verr := validateTag("tag", args[1]); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.CheckOwner(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	if _, verr := sendToSS(s, wire.SSVerbRevert, wire.SSAckRevert, fm.SS, fm.Filename, args[1]); verr != nil {
		return nil, verr
	}
	return []string{"OK"}, nil
}

func handleViewCheckpoint(s *session, args []string) ([]string, *wire.Error) {
	if verr := exactArgs(wire.VerbViewCheckpoint, args, 2); verr != nil {
		return nil, verr
	}
	if verr := validateTag("tag", args[1]); verr != nil {
		return nil, verr
	}
	fm, err := s.catalog.Info(args[0], s.username)
	if err != nil {
		return nil, wireErrorFromCatalog(err)
	}
	res, verr := sendToSS(s, wire.SSVerbViewCheckpoint, "", fm.SS, fm.Filename, args[1])
	if verr != nil {
		return nil, verr
	}
	return []string{res.Raw}, nil
}
