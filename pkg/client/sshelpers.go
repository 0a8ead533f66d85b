package client

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/langos-dfs/langos/internal/wire"
)

// StreamWordDelay paces STREAM output, matching client_SS_helper_functions.c's
// usleep(100000) between words.
const StreamWordDelay = 100 * time.Millisecond

func dialSS(ip string, port int) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: connect to storage server %s: %w", addr, err)
	}
	return conn, nil
}

// ReadFromSS performs the SS_READ round trip and returns the file's full
// content, mirroring handle_ss_read/read_from_ss.
func ReadFromSS(ip string, port int, filename string) (string, error) {
	conn, err := dialSS(ip, port)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := wire.WriteRecord(conn, wire.SSVerbRead, filename); err != nil {
		return "", fmt.Errorf("client: send SS_READ: %w", err)
	}
	content, err := wire.ReadUntilMarker(bufio.NewReader(conn), wire.SSEndMarker)
	if err != nil {
		return "", fmt.Errorf("client: read SS_READ reply: %w", err)
	}
	return content, nil
}

// StreamFromSS performs the SS_STREAM round trip, buffers the full reply
// (same as stream_from_ss's single total_reply buffer), then replays it to
// out one whitespace-delimited word at a time with StreamWordDelay between
// words.
func StreamFromSS(ip string, port int, filename string, out func(string)) error {
	conn, err := dialSS(ip, port)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := wire.WriteRecord(conn, wire.SSVerbStream, filename); err != nil {
		return fmt.Errorf("client: send SS_STREAM: %w", err)
	}
	content, err := wire.ReadUntilMarker(bufio.NewReader(conn), wire.SSEndMarker)
	if err != nil {
		return fmt.Errorf("client: read SS_STREAM reply: %w", err)
	}

	for _, word := range strings.Fields(content) {
		out(word)
		time.Sleep(StreamWordDelay)
	}
	return nil
}

// WordPrompter supplies the per-word entries of a WRITE session. NextWord
// returns done=true once the user signals completion ("ETIRW" in the
// original protocol).
type WordPrompter interface {
	NextWord() (index int, content string, done bool, err error)
}

// PromptUIWordPrompter is the default interactive WordPrompter, grounded on
// the "Enter <word_index> <content> or 'ETIRW' to finish" loop in
// client_SS_helper_functions.c::handle_ss_write_session.
type PromptUIWordPrompter struct{}

func (PromptUIWordPrompter) NextWord() (int, string, bool, error) {
	prompt := promptui.Prompt{Label: "write (<index> <content>, or ETIRW to finish)"}
	line, err := prompt.Run()
	if err != nil {
		return 0, "", false, err
	}
	if strings.EqualFold(line, "ETIRW") {
		return 0, "", true, nil
	}
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return 0, "", false, fmt.Errorf("invalid format, use: <word_index> <content>")
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false, fmt.Errorf("word index must be numeric: %w", err)
	}
	return idx, parts[1], false, nil
}

// WriteSession runs a full SS write transaction: lock the sentence, loop
// WordPrompter entries as WRITE_DATA frames, commit on done. Mirrors
// handle_ss_write_session's lock/loop/commit shape exactly, generalized
// behind WordPrompter so it can run headless in tests.
func WriteSession(ip string, port int, filename string, sentenceIndex int, prompter WordPrompter) error {
	conn, err := dialSS(ip, port)
	if err != nil {
		return err
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	if err := wire.WriteRecord(conn, wire.SSVerbLockSentence, filename, strconv.Itoa(sentenceIndex)); err != nil {
		return fmt.Errorf("client: send SS_LOCK_SENTENCE: %w", err)
	}
	ack, err := wire.ReadLine(r)
	if err != nil {
		return fmt.Errorf("client: read lock ack: %w", err)
	}
	if !strings.Contains(ack, wire.SSAckLock) {
		return fmt.Errorf("client: storage server refused lock: %s", ack)
	}

	for {
		idx, content, done, err := prompter.NextWord()
		if err != nil {
			return err
		}
		if done {
			break
		}
		if err := wire.WriteRecord(conn, wire.SSVerbWriteData, strconv.Itoa(idx), content); err != nil {
			return fmt.Errorf("client: send WRITE_DATA: %w", err)
		}
		dataAck, err := wire.ReadLine(r)
		if err != nil {
			return fmt.Errorf("client: read data ack: %w", err)
		}
		if !strings.Contains(dataAck, wire.SSAckData) {
			return fmt.Errorf("client: write data not acknowledged: %s", dataAck)
		}
	}

	if err := wire.WriteRecord(conn, wire.SSVerbCommitWrite); err != nil {
		return fmt.Errorf("client: send COMMIT_WRITE: %w", err)
	}
	commitReply, err := wire.ReadUntilMarker(r, wire.SSEndMarker)
	if err != nil {
		return fmt.Errorf("client: read commit reply: %w", err)
	}
	if !strings.Contains(commitReply, wire.SSAckCommit) {
		return fmt.Errorf("client: commit not acknowledged: %s", commitReply)
	}
	return nil
}
