package ssserver

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/internal/wire"
	"github.com/langos-dfs/langos/pkg/ssengine"
)

func startTestServer(t *testing.T) (addr string, engine *ssengine.Engine) {
	t.Helper()
	engine = ssengine.New(t.TempDir())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handleConnection(conn, engine)
		}
	}()
	return ln.Addr().String(), engine
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func TestCreateReadDelete(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, r := dial(t, addr)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCreate, "notes.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckCreate)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRead, "notes.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.NotContains(t, resp, "ERROR")

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbDelete, "notes.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckDelete)
}

func TestCreateDuplicateFails(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, r := dial(t, addr)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCreate, "dup.txt"))
	_, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCreate, "dup.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, "ERROR")
}

func TestWriteSessionLockDataCommit(t *testing.T) {
	addr, engine := startTestServer(t)
	require.NoError(t, engine.Create("doc.txt"))

	conn, r := dial(t, addr)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbLockSentence, "doc.txt", "0"))
	line, err := wire.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, wire.SSAckLock, line)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbWriteData, "0", "Hello"))
	line, err = wire.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, wire.SSAckData, line)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbWriteData, "1", "world."))
	line, err = wire.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, wire.SSAckData, line)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCommitWrite))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckCommit)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRead, "doc.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", strings.TrimRight(resp, "\n"))
}

func TestUndoAfterCommit(t *testing.T) {
	addr, engine := startTestServer(t)
	require.NoError(t, engine.Create("memo.txt"))

	conn, r := dial(t, addr)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbLockSentence, "memo.txt", "0"))
	_, err := wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbWriteData, "0", "Hi."))
	_, err = wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCommitWrite))
	_, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbUndo, "memo.txt"))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckUndo)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRead, "memo.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.NotContains(t, resp, "Hi.")
}

func TestCheckpointAndRevert(t *testing.T) {
	addr, engine := startTestServer(t)
	require.NoError(t, engine.Create("plan.txt"))

	conn, r := dial(t, addr)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbLockSentence, "plan.txt", "0"))
	_, err := wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbWriteData, "0", "V1."))
	_, err = wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCommitWrite))
	_, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCheckpoint, "plan.txt", "v1"))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckCheckpoint)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbLockSentence, "plan.txt", "0"))
	_, err = wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbWriteData, "0", "V2."))
	_, err = wire.ReadLine(r)
	require.NoError(t, err)
	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbCommitWrite))
	_, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbViewCheckpoint, "plan.txt", "v1"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Equal(t, "V1.", strings.TrimRight(resp, "\n"))

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRevert, "plan.txt", "v1"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, wire.SSAckRevert)

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRead, "plan.txt"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Equal(t, "V1.", strings.TrimRight(resp, "\n"))

	require.NoError(t, wire.WriteRecord(conn, wire.SSVerbRevert, "plan.txt", "v1"))
	resp, err = wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, "ERROR")
}

func TestUnknownVerb(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, r := dial(t, addr)

	require.NoError(t, wire.WriteRecord(conn, "BOGUS_VERB", "x"))
	resp, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	require.NoError(t, err)
	assert.Contains(t, resp, "ERROR")
}
