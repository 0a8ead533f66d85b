package ssengine

import "fmt"

// sessionState is a per-connection WRITE state, matching spec.md §4.4's
// state machine: IDLE -> LOCKED on SS_LOCK_SENTENCE, LOCKED -> LOCKED on each
// WRITE_DATA, LOCKED -> IDLE on COMMIT_WRITE, any -> IDLE (buffer discarded)
// on disconnect.
type sessionState int

const (
	stateIdle sessionState = iota
	stateLocked
)

// WriteSession tracks one connection's in-flight write, strictly sequential:
// there is no pipelining of WRITE_DATA within a session.
type WriteSession struct {
	state    sessionState
	filename string
	sentence int
	ops      []WriteOp
}

func NewWriteSession() *WriteSession {
	return &WriteSession{state: stateIdle}
}

// Lock transitions IDLE -> LOCKED, recording the target file and sentence.
// Relocking while already LOCKED discards the prior buffer — the protocol
// never sends a second SS_LOCK_SENTENCE mid-session, but this keeps the
// state machine total rather than panicking on a malformed client.
func (s *WriteSession) Lock(filename string, sentence int) {
	s.state = stateLocked
	s.filename = filename
	s.sentence = sentence
	s.ops = nil
}

// Buffer appends one WRITE_DATA edit. Returns an error if not LOCKED.
func (s *WriteSession) Buffer(wordIndex int, content string) error {
	if s.state != stateLocked {
		return fmt.Errorf("WRITE_DATA received outside a locked write session")
	}
	s.ops = append(s.ops, WriteOp{WordIndex: wordIndex, Content: content})
	return nil
}

// Commit applies the buffered ops to engine and resets to IDLE regardless of
// outcome — a failed commit still clears the session per the state machine
// (COMMIT_WRITE is the only LOCKED -> IDLE transition, success or not).
func (s *WriteSession) Commit(e *Engine) (filename string, err error) {
	if s.state != stateLocked {
		return "", fmt.Errorf("COMMIT_WRITE received outside a locked write session")
	}
	filename = s.filename
	sentence := s.sentence
	ops := s.ops
	s.Reset()
	err = e.Commit(filename, sentence, ops)
	return filename, err
}

// Reset returns the session to IDLE, discarding any buffered edits —
// used both after COMMIT_WRITE and on disconnect.
func (s *WriteSession) Reset() {
	s.state = stateIdle
	s.filename = ""
	s.sentence = 0
	s.ops = nil
}

func (s *WriteSession) Locked() bool { return s.state == stateLocked }
