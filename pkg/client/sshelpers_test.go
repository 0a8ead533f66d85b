package client

import (
	"bufio"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/internal/wire"
)

// fakeSSConn is a minimal one-shot Storage Server stand-in: it reads frames
// off the connection and replies according to script, without pulling in
// pkg/ssengine.
func fakeSSConn(t *testing.T, handle func(conn net.Conn, r *bufio.Reader)) (ip string, port int) {
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
		handle(conn, bufio.NewReader(conn))
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, p
}

func TestReadFromSS(t *testing.T) {
	ip, port := fakeSSConn(t, func(conn net.Conn, r *bufio.Reader) {
		line, err := wire.ReadLine(r)
		require.NoError(t, err)
		require.Contains(t, line, wire.SSVerbRead)
		_ = wire.WriteTerminated(conn, wire.SSEndMarker, "hello world")
	})

	content, err := ReadFromSS(ip, port, "a.txt")
	require.NoError(t, err)
	assert.Contains(t, content, "hello world")
}

func TestStreamFromSS(t *testing.T) {
	ip, port := fakeSSConn(t, func(conn net.Conn, r *bufio.Reader) {
		_, err := wire.ReadLine(r)
		require.NoError(t, err)
		_ = wire.WriteTerminated(conn, wire.SSEndMarker, "one two three")
	})

	var words []string
	err := StreamFromSS(ip, port, "a.txt", func(w string) { words = append(words, w) })
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, words)
}

type scriptedPrompter struct {
	steps []struct {
		idx     int
		content string
		done    bool
	}
	i int
}

func (p *scriptedPrompter) NextWord() (int, string, bool, error) {
	s := p.steps[p.i]
	p.i++
	return s.idx, s.content, s.done, nil
}

func TestWriteSession(t *testing.T) {
	ip, port := fakeSSConn(t, func(conn net.Conn, r *bufio.Reader) {
		line, err := wire.ReadLine(r)
		require.NoError(t, err)
		require.Contains(t, line, wire.SSVerbLockSentence)
		require.NoError(t, wire.WriteLine(conn, wire.SSAckLock))

		line, err = wire.ReadLine(r)
		require.NoError(t, err)
		require.Contains(t, line, wire.SSVerbWriteData)
		require.NoError(t, wire.WriteLine(conn, wire.SSAckData))

		line, err = wire.ReadLine(r)
		require.NoError(t, err)
		require.Contains(t, line, wire.SSVerbCommitWrite)
		_ = wire.WriteTerminated(conn, wire.SSEndMarker, wire.SSAckCommit)
	})

	prompter := &scriptedPrompter{steps: []struct {
		idx     int
		content string
		done    bool
	}{
		{idx: 2, content: "replacement"},
		{done: true},
	}}

	err := WriteSession(ip, port, "a.txt", 1, prompter)
	require.NoError(t, err)
}
