package nsserver

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/catalog"
)

func startTestNS(t *testing.T) (addr string, cat *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)

	srv := New("127.0.0.1:0", cat, 2*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		srv.listenerMu.Lock()
		defer srv.listenerMu.Unlock()
		if srv.listener == nil {
			return false
		}
		addr = srv.listener.Addr().String()
		return true
	}, time.Second, 10*time.Millisecond)

	return addr, cat
}

func dialNS(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func TestRegisterClientThenListUsers(t *testing.T) {
	addr, _ := startTestNS(t)
	conn, r := dialNS(t, addr)

	require.NoError(t, wire.WriteRecord(conn, wire.VerbRegisterClient, "alice"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.AckClientReg)

	require.NoError(t, wire.WriteRecord(conn, wire.VerbListUsers))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, "alice")
}

func TestUnknownFirstFrameRejected(t *testing.T) {
	addr, _ := startTestNS(t)
	conn, r := dialNS(t, addr)

	require.NoError(t, wire.WriteRecord(conn, "BOGUS"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, "ERROR")
}

func TestRegisterSSThenReadRedirect(t *testing.T) {
	addr, cat := startTestNS(t)

	ssConn, ssReader := dialNS(t, addr)
	require.NoError(t, wire.WriteRecord(ssConn, wire.VerbRegisterSS, "127.0.0.1", "9999", "preexisting.txt"))
	resp, err := wire.ReadUntilMarker(ssReader, wire.NSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.AckSSReg)
	assert.Equal(t, 1, cat.ServerCount())

	// The adopted row's owner is the sentinel "ss_owner" (spec.md §3): only
	// a client logged in as that sentinel has implicit read access to it;
	// other users gain access only if the sentinel grants it via ADDACCESS.
	clientConn, clientReader := dialNS(t, addr)
	require.NoError(t, wire.WriteRecord(clientConn, wire.VerbRegisterClient, "ss_owner"))
	_, err = wire.ReadUntilMarker(clientReader, wire.NSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(clientConn, wire.VerbRead, "preexisting.txt"))
	resp, err = wire.ReadUntilMarker(clientReader, wire.NSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.RedirectRead)
	assert.Contains(t, resp, "9999")
}

func TestServeRejectsListenOnBadAddress(t *testing.T) {
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	srv := New("bad-address-no-port", cat, time.Second)
	err = srv.Serve(context.Background())
	assert.Error(t, err)
}
