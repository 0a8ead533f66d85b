package ssengine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSessionStateMachine(t *testing.T) {
	s := NewWriteSession()
	assert.False(t, s.Locked())

	err := s.Buffer(0, "x")
	assert.Error(t, err, "WRITE_DATA before SS_LOCK_SENTENCE must fail")

	s.Lock("a.txt", 0)
	assert.True(t, s.Locked())

	require.NoError(t, s.Buffer(0, "Hello"))
	require.NoError(t, s.Buffer(1, "world."))

	e := New(t.TempDir())
	require.NoError(t, e.Create("a.txt"))

	filename, err := s.Commit(e)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", filename)
	assert.False(t, s.Locked(), "COMMIT_WRITE always returns to IDLE")

	var buf bytes.Buffer
	require.NoError(t, e.ReadTo("a.txt", &buf))
	assert.Equal(t, "Hello world.", buf.String())
}

func TestWriteSessionDisconnectDiscardsBuffer(t *testing.T) {
	s := NewWriteSession()
	s.Lock("a.txt", 0)
	require.NoError(t, s.Buffer(0, "Hello"))
	s.Reset()
	assert.False(t, s.Locked())

	err := s.Buffer(0, "too late")
	assert.Error(t, err)
}

func TestWriteSessionCommitOutsideLockFails(t *testing.T) {
	s := NewWriteSession()
	e := New(t.TempDir())
	_, err := s.Commit(e)
	assert.Error(t, err)
}

func TestWriteSessionRelockDiscardsPriorBuffer(t *testing.T) {
	s := NewWriteSession()
	s.Lock("a.txt", 0)
	require.NoError(t, s.Buffer(0, "stale"))
	s.Lock("a.txt", 1)
	assert.Empty(t, s.ops)
}
