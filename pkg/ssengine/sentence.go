package ssengine

import (
	"errors"
	"os"
	"strings"

	"github.com/langos-dfs/langos/internal/logger"
)

// ErrSentenceNotFound is returned when sentenceNum is beyond the last
// sentence in the file — spec.md §8: "WRITE on sentence beyond the last
// returns ERROR;422 (via SS: no ACK_COMMIT)".
var ErrSentenceNotFound = errors.New("sentence not found")

// WriteOp is one buffered (word index, replacement content) edit, applied in
// the order it was received (spec.md §4.4: "applied in FIFO order").
type WriteOp struct {
	WordIndex int
	Content   string
}

const sentenceTerminators = ".?!"

// findSentence locates the start/end byte offsets of sentence n in content:
// the substring between the nth and (n+1)th occurrence of any of ".?!", with
// leading whitespace after a terminator trimmed. Mirrors
// get_nth_sentence's whitespace-skip set (" \t\n\r"). For n > 0, a sentence
// that would start at the end of content (nothing after the last
// terminator) is not found.
func findSentence(content string, n int) (start, end int, ok bool) {
	pos := 0
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(content[pos:], sentenceTerminators)
		if idx == -1 {
			return 0, 0, false
		}
		pos += idx + 1
		for pos < len(content) && isSentenceWhitespace(content[pos]) {
			pos++
		}
	}
	if n > 0 && pos == len(content) {
		return 0, 0, false
	}
	start = pos
	idx := strings.IndexAny(content[start:], sentenceTerminators)
	if idx == -1 {
		end = len(content)
	} else {
		end = start + idx + 1
	}
	return start, end, true
}

func isSentenceWhitespace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// tokenize splits a sentence into words on whitespace, mirroring
// strtok(sentence, " \t\n\r").
func tokenize(sentence string) []string {
	return strings.FieldsFunc(sentence, isSentenceWhitespace)
}

// applyOps applies buffered edits to words in FIFO order: an index within
// range replaces that word, an index equal to the current length appends,
// anything else is skipped with a warning.
func applyOps(words []string, ops []WriteOp) []string {
	for _, op := range ops {
		switch {
		case op.WordIndex >= 0 && op.WordIndex < len(words):
			words[op.WordIndex] = op.Content
		case op.WordIndex == len(words):
			words = append(words, op.Content)
		default:
			logger.Warn("write op word index out of range, skipped", "word_index", op.WordIndex, "words", len(words))
		}
	}
	return words
}

// joinWords re-assembles words with single spaces, except no space is
// inserted before a trailing punctuation token (a standalone "." "?" or
// "!"), matching commit_changes's rebuild loop exactly.
func joinWords(words []string) string {
	var b strings.Builder
	for i, w := range words {
		b.WriteString(w)
		if i < len(words)-1 {
			next := words[i+1]
			isLoneTerminator := len(next) == 1 && strings.ContainsAny(next, sentenceTerminators)
			if !isLoneTerminator {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// Commit applies ops to sentence sentenceNum of filename and persists the
// result: write filename.tmp, rename the existing file to filename.bak (if
// it existed), then rename filename.tmp over filename. On a failure after
// the backup rename, filename.bak is renamed back.
func (e *Engine) Commit(filename string, sentenceNum int, ops []WriteOp) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	existed := true
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		existed = false
		raw = []byte{}
	}
	content := string(raw)

	start, end, ok := findSentence(content, sentenceNum)
	if !ok {
		return ErrSentenceNotFound
	}

	sentence := content[start:end]
	words := tokenize(sentence)
	words = applyOps(words, ops)
	newSentence := joinWords(words)

	newContent := content[:start] + newSentence + content[end:]

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(newContent), 0o644); err != nil {
		return err
	}

	backupPath := e.backupPath(path)
	if existed {
		if err := os.Rename(path, backupPath); err != nil && !os.IsNotExist(err) {
			os.Remove(tmpPath)
			return err
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if existed {
			os.Rename(backupPath, path)
		}
		return err
	}
	return nil
}
