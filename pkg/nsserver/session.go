package nsserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/catalog"
	"github.com/langos-dfs/langos/pkg/nstransaction"
)

// session is one NS connection's state: either a client session (holds a
// username for the rest of its life) or an SS registration, which per
// spec.md §4.1 exists only long enough to send REGISTER_SS and read the ack
// — the SS's real traffic arrives later as a fresh nstransaction.Send dial,
// never on this same connection.
type session struct {
	conn     net.Conn
	reader   *bufio.Reader
	catalog  *catalog.Catalog
	metrics  *serverMetrics
	executor Executor

	connID   string
	username string
}

func newSession(conn net.Conn, cat *catalog.Catalog, metrics *serverMetrics, executor Executor) *session {
	return &session{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		catalog:  cat,
		metrics:  metrics,
		executor: executor,
		connID:   uuid.NewString(),
	}
}

// serve reads the mandatory first frame, then loops one request per turn
// (spec.md §4.1: "After registration the session loops, one request per
// turn, never pipelined").
func (s *session) serve() {
	log := logger.With("conn_id", s.connID, "remote", s.conn.RemoteAddr())

	firstLine, err := wire.ReadLine(s.reader)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Debug("ns session: no first frame", "error", err)
		}
		return
	}
	fields := wire.ParseRecord(firstLine)
	verb := fields[0]

	switch verb {
	case wire.VerbRegisterClient:
		if !s.handleRegisterClient(fields[1:]) {
			return
		}
		s.metrics.connection("client")
	case wire.VerbRegisterSS:
		s.handleRegisterSS(fields[1:])
		s.metrics.connection("storage_server")
		// REGISTER_SS is a one-shot handshake; the SS's file traffic always
		// arrives as a new dial from nstransaction, never this connection.
		return
	default:
		log.Debug("ns session: invalid first frame", "verb", verb)
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.NewError(wire.CodeUnknownCommand, "first frame must be REGISTER_CLIENT or REGISTER_SS").Line())
		return
	}

	for {
		line, err := wire.ReadLine(s.reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("ns session: read error", "error", err)
			}
			return
		}
		fields := wire.ParseRecord(line)
		verb := fields[0]
		args := fields[1:]

		lines, wireErr := dispatch(s, verb, args)
		ok := wireErr == nil
		s.metrics.command(verb, ok)
		if !ok {
			lines = []string{wireErr.Line()}
		}
		if err := wire.WriteTerminated(s.conn, wire.NSEndMarker, lines...); err != nil {
			log.Debug("ns session: write error", "error", err)
			return
		}
	}
}

func (s *session) handleRegisterClient(args []string) bool {
	if len(args) != 1 {
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.NewError(wire.CodeInvalidArgs, "REGISTER_CLIENT requires a username").Line())
		return false
	}
	username := args[0]
	if verr := validateField("username", username); verr != nil {
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, verr.Line())
		return false
	}
	if _, err := s.catalog.RegisterUser(username, s.conn.RemoteAddr().String()); err != nil {
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wireErrorFromCatalog(err).Line())
		return false
	}
	s.username = username
	return wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.AckClientReg) == nil
}

func (s *session) handleRegisterSS(args []string) {
	if len(args) < 3 {
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.NewError(wire.CodeInvalidArgs, "REGISTER_SS requires ip;port;file_csv").Line())
		return
	}
	ip := args[0]
	port, err := parsePort(args[1])
	if err != nil {
		_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.NewError(wire.CodeInvalidArgs, "invalid port: %v", err).Line())
		return
	}
	fileCSV := args[2]

	ss := s.catalog.RegisterSS(ip, port)
	ep := ss.Endpoint
	if _, err := s.catalog.ReattachServer(ep); err != nil {
		logger.Warn("reattach after REGISTER_SS failed", "ss_endpoint", ep.String(), "error", err)
	}
	if files := splitCSV(fileCSV); len(files) > 0 {
		if _, err := s.catalog.AdoptAdvertisedFiles(ep, files); err != nil {
			logger.Warn("adopt advertised files failed", "ss_endpoint", ep.String(), "error", err)
		}
	}
	_ = wire.WriteTerminated(s.conn, wire.NSEndMarker, wire.AckSSReg)
}

// transactionContext bounds every NS→SS round trip to the same timeout the
// helper itself defaults to, so a stuck SS can never wedge a client session
// indefinitely (spec.md §5's cancellation-by-disconnect model still applies
// to the client leg; this only bounds the NS-mediated inner hop).
func transactionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), nstransaction.DefaultTimeout)
}
