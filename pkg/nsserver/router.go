package nsserver

import "github.com/langos-dfs/langos/internal/wire"

type handlerFunc func(s *session, args []string) ([]string, *wire.Error)

var handlers = map[string]handlerFunc{
	wire.VerbListUsers:      handleListUsers,
	wire.VerbView:           handleView,
	wire.VerbInfo:           handleInfo,
	wire.VerbAddAccess:      handleAddAccess,
	wire.VerbRemAccess:      handleRemAccess,
	wire.VerbAnnotate:       handleAnnotate,
	wire.VerbShowAnnotation: handleShowAnnotation,
	wire.VerbCreateFolder:   handleCreateFolder,
	wire.VerbViewFolder:     handleViewFolder,
	wire.VerbViewRequests:   handleViewRequests,
	wire.VerbApprove:        handleApprove,
	wire.VerbReject:         handleReject,
	wire.VerbRequestAccess:  handleRequestAccess,

	wire.VerbRead:   handleRead,
	wire.VerbStream: handleStream,
	wire.VerbWrite:  handleWrite,

	wire.VerbCreate:         handleCreate,
	wire.VerbDelete:         handleDelete,
	wire.VerbUndo:           handleUndo,
	wire.VerbUpdateMeta:     handleUpdateMeta,
	wire.VerbExec:           handleExec,
	wire.VerbCheckpoint:     handleCheckpoint,
	wire.VerbRevert:         handleRevert,
	wire.VerbViewCheckpoint: handleViewCheckpoint,
}

// dispatch routes one NS command line to its handler. REGISTER_CLIENT and
// REGISTER_SS never reach here — session.serve handles them as the
// connection's first frame only.
func dispatch(s *session, verb string, args []string) ([]string, *wire.Error) {
	h, ok := handlers[verb]
	if !ok {
		return nil, wire.NewError(wire.CodeUnknownCommand, "unknown command %q", verb)
	}
	return h(s, args)
}
