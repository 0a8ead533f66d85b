package nsserver

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/internal/wire"
)

// fakeSS answers every frame it receives with a fixed ack line plus the SS
// end marker, simulating the storage server leg of an NS-mediated op
// without pulling in pkg/ssengine.
func fakeSS(t *testing.T, ack string) string {
	t.Helper()
	return fakeSSRouter(t, func(verb string, args []string) string { return ack })
}

// fakeSSRouter is fakeSS generalized to a per-verb reply, for tests that
// exercise more than one NS-mediated verb against the same listener.
func fakeSSRouter(t *testing.T, reply func(verb string, args []string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				line, err := wire.ReadLine(r)
				if err != nil {
					return
				}
				fields := wire.ParseRecord(line)
				_ = wire.WriteTerminated(c, wire.SSEndMarker, reply(fields[0], fields[1:]))
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func registerSSAt(t *testing.T, addr string, ssAddr string) {
	t.Helper()
	host, port, err := net.SplitHostPort(ssAddr)
	require.NoError(t, err)

	conn, r := dialNS(t, addr)
	require.NoError(t, wire.WriteRecord(conn, wire.VerbRegisterSS, host, port, ""))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, wire.AckSSReg)
}

func loginClient(t *testing.T, addr, username string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, r := dialNS(t, addr)
	require.NoError(t, wire.WriteRecord(conn, wire.VerbRegisterClient, username))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, wire.AckClientReg)
	return conn, r
}

func TestCreateDeleteRoundTrip(t *testing.T) {
	ssAddr := fakeSS(t, wire.SSAckCreate+";"+wire.SSAckDelete)
	nsAddr, _ := startTestNS(t)
	registerSSAt(t, nsAddr, ssAddr)

	conn, r := loginClient(t, nsAddr, "alice")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbCreate, "a.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "OK")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbDelete, "a.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "OK")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbInfo, "a.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "404")
}

func TestDeleteRejectsNonOwner(t *testing.T) {
	ssAddr := fakeSS(t, wire.SSAckCreate)
	nsAddr, _ := startTestNS(t)
	registerSSAt(t, nsAddr, ssAddr)

	owner, ownerR := loginClient(t, nsAddr, "alice")
	require.NoError(t, wire.WriteRecord(owner, wire.VerbCreate, "b.txt"))
	resp, err := wire.ReadUntilMarker(ownerR, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "OK")

	other, otherR := loginClient(t, nsAddr, "mallory")
	require.NoError(t, wire.WriteRecord(other, wire.VerbDelete, "b.txt"))
	resp, err = wire.ReadUntilMarker(otherR, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "401")
}

func TestUpdateMetaRecomputesCounts(t *testing.T) {
	ssAddr := fakeSSRouter(t, func(verb string, args []string) string {
		if verb == wire.SSVerbCreate {
			return wire.SSAckCreate
		}
		return "hello there friend" // SS_READ has no dedicated ack token
	})
	nsAddr, cat := startTestNS(t)
	registerSSAt(t, nsAddr, ssAddr)

	conn, r := loginClient(t, nsAddr, "alice")
	require.NoError(t, wire.WriteRecord(conn, wire.VerbCreate, "c.txt"))
	_, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.VerbUpdateMeta, "c.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "OK")

	fm, err := cat.Lookup("c.txt")
	require.NoError(t, err)
	require.Equal(t, 3, fm.WordCount)
}

// TestCreateRejectsExistingFile ensures a second CREATE never dials the SS at
// all: it must fail fast with ERROR;409 from the catalog pre-check, not
// ERROR;504 from the SS's own O_EXCL rejection.
func TestCreateRejectsExistingFile(t *testing.T) {
	ssAddr := fakeSSRouter(t, func(verb string, args []string) string {
		if verb == wire.SSVerbCreate {
			t.Fatalf("second CREATE must never reach the storage server")
		}
		return wire.SSAckCreate
	})
	nsAddr, _ := startTestNS(t)
	registerSSAt(t, nsAddr, ssAddr)

	conn, r := loginClient(t, nsAddr, "alice")
	require.NoError(t, wire.WriteRecord(conn, wire.VerbCreate, "d.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "OK")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbCreate, "d.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "409")
}

func TestCheckpointRejectsPathTraversalTag(t *testing.T) {
	ssAddr := fakeSS(t, wire.SSAckCreate)
	nsAddr, _ := startTestNS(t)
	registerSSAt(t, nsAddr, ssAddr)

	conn, r := loginClient(t, nsAddr, "alice")
	require.NoError(t, wire.WriteRecord(conn, wire.VerbCreate, "e.txt"))
	_, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.VerbCheckpoint, "e.txt", "../../etc/passwd"))
	resp, err := wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "422")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbRevert, "e.txt", "some/slash"))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "422")

	require.NoError(t, wire.WriteRecord(conn, wire.VerbViewCheckpoint, "e.txt", ".."))
	resp, err = wire.ReadUntilMarker(r, wire.NSEndMarker)
	require.NoError(t, err)
	require.Contains(t, resp, "ERROR")
	require.Contains(t, resp, "422")
}
