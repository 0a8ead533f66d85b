package client

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/internal/wire"
)

// fakeNS is a minimal Name Server stand-in driven by a per-connection script,
// used to test Session/Runner without pulling in pkg/nsserver.
func fakeNS(t *testing.T, script func(conn net.Conn, r *bufio.Reader)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn, bufio.NewReader(conn))
	}()
	return ln.Addr().String()
}

func TestDialRegistersAndSucceeds(t *testing.T) {
	addr := fakeNS(t, func(conn net.Conn, r *bufio.Reader) {
		line, err := wire.ReadLine(r)
		require.NoError(t, err)
		require.Contains(t, line, wire.VerbRegisterClient)
		_ = wire.WriteTerminated(conn, wire.NSEndMarker, wire.AckClientReg)
	})

	s, err := Dial(addr, "alice")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "alice", s.Username)
}

func TestDialRejectedRegistration(t *testing.T) {
	addr := fakeNS(t, func(conn net.Conn, r *bufio.Reader) {
		_, err := wire.ReadLine(r)
		require.NoError(t, err)
		_ = wire.WriteTerminated(conn, wire.NSEndMarker, "ERROR;106;bad username")
	})

	_, err := Dial(addr, "bad;name")
	assert.Error(t, err)
}

func TestSendRoundTrip(t *testing.T) {
	addr := fakeNS(t, func(conn net.Conn, r *bufio.Reader) {
		_, err := wire.ReadLine(r) // REGISTER_CLIENT
		require.NoError(t, err)
		_ = wire.WriteTerminated(conn, wire.NSEndMarker, wire.AckClientReg)

		line, err := wire.ReadLine(r) // LIST_USERS
		require.NoError(t, err)
		require.Contains(t, line, wire.VerbListUsers)
		_ = wire.WriteTerminated(conn, wire.NSEndMarker, "alice")
	})

	s, err := Dial(addr, "alice")
	require.NoError(t, err)
	defer s.Close()

	reply, err := s.Send(wire.VerbListUsers)
	require.NoError(t, err)
	assert.Contains(t, reply, "alice")
}
