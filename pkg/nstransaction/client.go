// Package nstransaction is the NS's reusable routine for talking to a
// Storage Server as a client: dial, send one framed command, read until
// __SS_END__, and report whether a verb-specific ACK was present. Grounded
// on _examples/original_source/src/name_server/CRWD.c::connect_and_send_to_ss.
package nstransaction

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/langos-dfs/langos/internal/telemetry"
	"github.com/langos-dfs/langos/internal/wire"
)

// DefaultTimeout bounds both the dial and the read-until-marker phase.
const DefaultTimeout = 10 * time.Second

// Result is an SS round trip's outcome.
type Result struct {
	// Raw is the full response with the __SS_END__ marker stripped.
	Raw string
	// Acked is true when Raw contains the expected ACK token.
	Acked bool
}

// Send dials ip:port, writes command, and reads until __SS_END__. wantAck is
// the verb-specific token (ACK_CREATE, ACK_DELETE, ...) that must appear in
// the response for Acked to be true. On any socket error, Send returns a
// wire.Error with CodeSSUnreachable — NS leaves the catalog untouched in
// that case, per spec.md §4.3.
func Send(ctx context.Context, ip string, port int, verb string, wantAck string, parts ...string) (*Result, error) {
	endpoint := fmt.Sprintf("%s:%d", ip, port)
	ctx, span := telemetry.StartSSTransactionSpan(ctx, endpoint, verb)
	var err error
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		telemetry.EndSSTransactionSpan(span, outcome, err)
	}()

	dialer := net.Dialer{Timeout: DefaultTimeout}
	conn, dialErr := dialer.DialContext(ctx, "tcp", endpoint)
	if dialErr != nil {
		err = dialErr
		return nil, wire.NewError(wire.CodeSSUnreachable, "could not connect to storage server %s: %v", endpoint, dialErr)
	}
	defer conn.Close()

	deadline := time.Now().Add(DefaultTimeout)
	_ = conn.SetDeadline(deadline)

	if writeErr := wire.WriteRecord(conn, append([]string{verb}, parts...)...); writeErr != nil {
		err = writeErr
		return nil, wire.NewError(wire.CodeSSUnreachable, "could not send to storage server %s: %v", endpoint, writeErr)
	}

	raw, readErr := readUntilSSMarker(conn)
	if readErr != nil {
		err = readErr
		return nil, wire.NewError(wire.CodeSSUnreachable, "no response from storage server %s: %v", endpoint, readErr)
	}

	return &Result{Raw: raw, Acked: strings.Contains(raw, wantAck)}, nil
}

func readUntilSSMarker(conn net.Conn) (string, error) {
	buf := make([]byte, 4096)
	var acc strings.Builder
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			if strings.Contains(acc.String(), wire.SSEndMarker) {
				break
			}
		}
		if err != nil {
			if acc.Len() > 0 && strings.Contains(acc.String(), wire.SSEndMarker) {
				break
			}
			return "", err
		}
	}
	raw := acc.String()
	if idx := strings.Index(raw, wire.SSEndMarker); idx != -1 {
		raw = raw[:idx]
	}
	return raw, nil
}
