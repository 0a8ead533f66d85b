package ssserver

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"

	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/ssengine"
)

// handleConnection reads one SS_* command per line until the peer closes the
// connection. Both the Name Server (CREATE/DELETE/UNDO/CHECKPOINT/...) and a
// Client (READ/STREAM, the WRITE sub-protocol) use the same wire shape, so
// there is a single dispatcher rather than a per-peer-type split. One
// WriteSession lives for the life of the connection, matching spec.md §4.4's
// rule that the write-lock buffer is discarded on disconnect.
func handleConnection(conn net.Conn, engine *ssengine.Engine) {
	remote := conn.RemoteAddr().String()
	log := logger.With("remote", remote)
	reader := bufio.NewReader(conn)
	session := ssengine.NewWriteSession()

	for {
		line, err := wire.ReadLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("ssserver read error", "error", err)
			}
			return
		}
		fields := wire.ParseRecord(line)
		if len(fields) == 0 || fields[0] == "" {
			continue
		}
		verb, args := fields[0], fields[1:]
		log.Debug("ssserver command", "verb", verb)

		if err := dispatch(conn, engine, session, verb, args); err != nil {
			log.Debug("ssserver write error", "error", err)
			return
		}
	}
}

func dispatch(conn net.Conn, engine *ssengine.Engine, session *ssengine.WriteSession, verb string, args []string) error {
	switch verb {
	case wire.SSVerbCreate:
		return handleCreate(conn, engine, args)
	case wire.SSVerbRead:
		return handleRead(conn, engine, args)
	case wire.SSVerbStream:
		return handleStream(conn, engine, args)
	case wire.SSVerbDelete:
		return handleDelete(conn, engine, args)
	case wire.SSVerbLockSentence:
		return handleLockSentence(conn, session, args)
	case wire.SSVerbWriteData:
		return handleWriteData(conn, session, args)
	case wire.SSVerbCommitWrite:
		return handleCommitWrite(conn, engine, session)
	case wire.SSVerbUndo:
		return handleUndo(conn, engine, args)
	case wire.SSVerbCheckpoint:
		return handleCheckpoint(conn, engine, args)
	case wire.SSVerbRevert:
		return handleRevert(conn, engine, args)
	case wire.SSVerbViewCheckpoint:
		return handleViewCheckpoint(conn, engine, args)
	default:
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;unknown SS command "+verb)
	}
}

func handleCreate(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 1 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;missing filename")
	}
	if err := engine.Create(args[0]); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckCreate)
}

func handleRead(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 1 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;missing filename")
	}
	var buf bytes.Buffer
	if err := engine.ReadTo(args[0], &buf); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, buf.String())
}

func handleStream(conn net.Conn, engine *ssengine.Engine, args []string) error {
	// STREAM has identical byte semantics to READ at the engine layer; the
	// client-side pacing that makes it "stream" lives in pkg/client.
	return handleRead(conn, engine, args)
}

func handleDelete(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 1 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;missing filename")
	}
	if err := engine.Delete(args[0]); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckDelete)
}

// handleLockSentence and handleWriteData reply with a bare ack line and no
// __SS_END__ marker — spec.md §4.4 only terminates the final COMMIT_WRITE
// reply with the marker, since the two prior verbs are mid-session.
func handleLockSentence(conn net.Conn, session *ssengine.WriteSession, args []string) error {
	if len(args) < 2 {
		return wire.WriteLine(conn, "ERROR;SS_LOCK_SENTENCE requires filename and sentence index")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return wire.WriteLine(conn, "ERROR;invalid sentence index")
	}
	session.Lock(args[0], n)
	return wire.WriteLine(conn, wire.SSAckLock)
}

func handleWriteData(conn net.Conn, session *ssengine.WriteSession, args []string) error {
	if len(args) < 2 {
		return wire.WriteLine(conn, "ERROR;WRITE_DATA requires word index and content")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return wire.WriteLine(conn, "ERROR;invalid word index")
	}
	if err := session.Buffer(idx, args[1]); err != nil {
		return wire.WriteLine(conn, "ERROR;"+err.Error())
	}
	return wire.WriteLine(conn, wire.SSAckData)
}

func handleCommitWrite(conn net.Conn, engine *ssengine.Engine, session *ssengine.WriteSession) error {
	_, err := session.Commit(engine)
	if err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckCommit)
}

func handleUndo(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 1 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;missing filename")
	}
	if err := engine.Undo(args[0]); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckUndo)
}

func handleCheckpoint(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 2 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;SS_CHECKPOINT requires filename and tag")
	}
	if err := engine.Checkpoint(args[0], args[1]); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckCheckpoint)
}

func handleRevert(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 2 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;SS_REVERT requires filename and tag")
	}
	if err := engine.Revert(args[0], args[1]); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckRevert)
}

func handleViewCheckpoint(conn net.Conn, engine *ssengine.Engine, args []string) error {
	if len(args) < 2 {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;SS_VIEWCHECKPOINT requires filename and tag")
	}
	var buf bytes.Buffer
	if err := engine.ViewCheckpoint(args[0], args[1], &buf); err != nil {
		return wire.WriteTerminated(conn, wire.SSEndMarker, "ERROR;"+err.Error())
	}
	return wire.WriteTerminated(conn, wire.SSEndMarker, buf.String())
}
