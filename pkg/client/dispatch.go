package client

import (
	"strconv"
	"strings"

	"github.com/langos-dfs/langos/internal/wire"
)

// ReplyKind classifies an NS reply the way handle_ns_command's if/else-if
// chain over strncmp(server_reply, "REDIRECT_...", n) does.
type ReplyKind int

const (
	ReplyPlain ReplyKind = iota
	ReplyError
	ReplyRedirectRead
	ReplyRedirectWrite
	ReplyRedirectStream
)

// Reply is an NS response, parsed enough to decide what the client does next.
type Reply struct {
	Kind     ReplyKind
	Text     string // plain message or error text, unparsed
	SSIP     string
	SSPort   int
	Filename string
	Sentence int // REDIRECT_WRITE only
}

// ParseReply classifies raw (an NS reply with its __END__ marker already
// stripped) the same way the original client's strncmp chain does: the
// first field alone decides the kind, remaining fields carry the SS
// endpoint and filename a redirect hands off.
func ParseReply(raw string) Reply {
	trimmed := strings.TrimRight(raw, "\n")
	fields := wire.ParseRecord(trimmed)
	if len(fields) == 0 {
		return Reply{Kind: ReplyPlain, Text: trimmed}
	}

	switch fields[0] {
	case "ERROR":
		return Reply{Kind: ReplyError, Text: trimmed}
	case wire.RedirectRead:
		if len(fields) < 4 {
			return Reply{Kind: ReplyError, Text: "malformed REDIRECT_READ: " + trimmed}
		}
		port, _ := strconv.Atoi(fields[2])
		return Reply{Kind: ReplyRedirectRead, SSIP: fields[1], SSPort: port, Filename: fields[3]}
	case wire.RedirectStream:
		if len(fields) < 4 {
			return Reply{Kind: ReplyError, Text: "malformed REDIRECT_STREAM: " + trimmed}
		}
		port, _ := strconv.Atoi(fields[2])
		return Reply{Kind: ReplyRedirectStream, SSIP: fields[1], SSPort: port, Filename: fields[3]}
	case wire.RedirectWrite:
		if len(fields) < 5 {
			return Reply{Kind: ReplyError, Text: "malformed REDIRECT_WRITE: " + trimmed}
		}
		port, _ := strconv.Atoi(fields[2])
		sentence, _ := strconv.Atoi(fields[4])
		return Reply{Kind: ReplyRedirectWrite, SSIP: fields[1], SSPort: port, Filename: fields[3], Sentence: sentence}
	default:
		return Reply{Kind: ReplyPlain, Text: trimmed}
	}
}
