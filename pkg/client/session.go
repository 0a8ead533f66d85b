// Package client is the interactive client's session driver: a persistent
// Name Server connection plus the transient Storage Server connections it
// opens per REDIRECT_*. Grounded on
// _examples/original_source/src/client/user_client.c::handle_ns_command (the
// "MODIFIED" persistent-socket rewrite) and client_SS_helper_functions.c.
package client

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/langos-dfs/langos/internal/wire"
)

// DialTimeout bounds the initial NS connection and REGISTER_CLIENT round trip.
const DialTimeout = 10 * time.Second

// Session is one client's persistent connection to the Name Server.
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	Username string
}

// Dial connects to the NS at addr and registers username, mirroring
// user_client.c's "Initial Connection and Registration" step. The REGISTER_CLIENT
// round trip happens here so a returned *Session is always already registered.
func Dial(addr, username string) (*Session, error) {
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: connect to name server %s: %w", addr, err)
	}
	s := &Session{conn: conn, reader: bufio.NewReader(conn), Username: username}

	reply, err := s.Send(wire.VerbRegisterClient, username)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if isErrorReply(reply) {
		conn.Close()
		return nil, fmt.Errorf("client: registration rejected: %s", reply)
	}
	return s, nil
}

// Send writes one NS command and returns the reply body with the __END__
// marker stripped. Safe to call repeatedly on the same persistent connection,
// same as handle_ns_command's send/recv-until-marker loop.
func (s *Session) Send(verb string, args ...string) (string, error) {
	if err := s.conn.SetDeadline(time.Now().Add(DialTimeout)); err != nil {
		return "", err
	}
	if err := wire.WriteRecord(s.conn, append([]string{verb}, args...)...); err != nil {
		return "", fmt.Errorf("client: send %s: %w", verb, err)
	}
	reply, err := wire.ReadUntilMarker(s.reader, wire.NSEndMarker)
	if err != nil {
		return "", fmt.Errorf("client: read reply to %s: %w", verb, err)
	}
	return reply, nil
}

// Close shuts down the NS connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func isErrorReply(reply string) bool {
	fields := wire.ParseRecord(reply)
	return len(fields) > 0 && fields[0] == "ERROR"
}
