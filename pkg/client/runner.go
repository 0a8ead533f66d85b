package client

import (
	"fmt"
	"strings"

	"github.com/langos-dfs/langos/internal/wire"
)

// Runner turns one typed input line into a wire command, sends it over the
// Session, and carries out whatever the NS reply asks for (printing a plain
// reply, or opening the transient SS connection a REDIRECT_* names).
// Mirrors user_client.c's main loop's command table plus handle_ns_command's
// dispatch, collapsed into one object so cmd/dfsclient only has to wire
// stdin/stdout to it.
type Runner struct {
	Session  *Session
	Print    func(string)
	Prompter WordPrompter
}

func NewRunner(s *Session, print func(string)) *Runner {
	return &Runner{Session: s, Print: print, Prompter: PromptUIWordPrompter{}}
}

// commandTable maps an uppercased input verb to its required argument count
// and the wire verb it becomes. Spacing (not ";") separates a typed command's
// arguments; Run re-joins them with ";" the way user_client.c's snprintf calls do.
var commandTable = map[string]struct {
	verb    string
	minArgs int
	usage   string
}{
	"VIEW":            {wire.VerbView, 0, "VIEW [flags]"},
	"LIST":            {wire.VerbListUsers, 0, "LIST"},
	"CREATE":          {wire.VerbCreate, 1, "CREATE <filename>"},
	"READ":            {wire.VerbRead, 1, "READ <filename>"},
	"WRITE":           {wire.VerbWrite, 2, "WRITE <filename> <sentence_number>"},
	"DELETE":          {wire.VerbDelete, 1, "DELETE <filename>"},
	"STREAM":          {wire.VerbStream, 1, "STREAM <filename>"},
	"UNDO":            {wire.VerbUndo, 1, "UNDO <filename>"},
	"INFO":            {wire.VerbInfo, 1, "INFO <filename>"},
	"ADDACCESS":       {wire.VerbAddAccess, 3, "ADDACCESS <filename> <user> <R|W>"},
	"REMACCESS":       {wire.VerbRemAccess, 2, "REMACCESS <filename> <user>"},
	"EXEC":            {wire.VerbExec, 1, "EXEC <filename>"},
	"CREATEFOLDER":    {wire.VerbCreateFolder, 1, "CREATEFOLDER <name>"},
	"VIEWFOLDER":      {wire.VerbViewFolder, 1, "VIEWFOLDER <prefix>"},
	"CHECKPOINT":      {wire.VerbCheckpoint, 2, "CHECKPOINT <filename> <tag>"},
	"REVERT":          {wire.VerbRevert, 2, "REVERT <filename> <tag>"},
	"VIEWCHECKPOINT":  {wire.VerbViewCheckpoint, 2, "VIEWCHECKPOINT <filename> <tag>"},
	"REQUESTACCESS":   {wire.VerbRequestAccess, 1, "REQUESTACCESS <filename>"},
	"VIEWREQUESTS":    {wire.VerbViewRequests, 1, "VIEWREQUESTS <filename>"},
	"APPROVE":         {wire.VerbApprove, 2, "APPROVE <filename> <user>"},
	"REJECT":          {wire.VerbReject, 2, "REJECT <filename> <user>"},
	"ANNOTATE":        {wire.VerbAnnotate, 1, "ANNOTATE <filename> <text...>"},
	"SHOW_ANNOTATION": {wire.VerbShowAnnotation, 1, "SHOW_ANNOTATION <filename>"},
}

// Run parses one input line and executes it. Returns false when input is
// "exit", signalling the REPL should stop, the same sentinel
// user_client.c's main loop checks for.
func (r *Runner) Run(input string) (keepGoing bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return true, nil
	}
	if strings.EqualFold(input, "exit") {
		return false, nil
	}

	fields := strings.Fields(input)
	verbWord := strings.ToUpper(fields[0])
	args := fields[1:]

	// ANNOTATE's text argument can contain spaces (it is the one field
	// the wire protocol never splits further); grab everything after the
	// filename as a single argument instead of space-tokenizing it, the
	// same way the original CLI's strtok(NULL, "") grabs the rest of the line.
	if verbWord == "ANNOTATE" {
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), fields[0]))
		nameAndText := strings.SplitN(rest, " ", 2)
		if len(nameAndText) < 2 {
			r.Print("Usage: ANNOTATE <filename> <text...>")
			return true, nil
		}
		args = []string{nameAndText[0], nameAndText[1]}
	}

	spec, ok := commandTable[verbWord]
	if !ok {
		r.Print(fmt.Sprintf("Unknown command: %s", fields[0]))
		return true, nil
	}
	if len(args) < spec.minArgs {
		r.Print("Usage: " + spec.usage)
		return true, nil
	}

	reply, sendErr := r.Session.Send(spec.verb, args...)
	if sendErr != nil {
		return false, sendErr
	}

	parsed := ParseReply(reply)
	switch parsed.Kind {
	case ReplyError, ReplyPlain:
		r.Print(parsed.Text)
	case ReplyRedirectRead:
		content, err := ReadFromSS(parsed.SSIP, parsed.SSPort, parsed.Filename)
		if err != nil {
			return true, err
		}
		r.Print(content)
	case ReplyRedirectStream:
		r.Print(fmt.Sprintf("[Streaming file: %s...]", parsed.Filename))
		if err := StreamFromSS(parsed.SSIP, parsed.SSPort, parsed.Filename, func(w string) { r.Print(w) }); err != nil {
			return true, err
		}
		r.Print("[...Stream finished]")
	case ReplyRedirectWrite:
		if err := WriteSession(parsed.SSIP, parsed.SSPort, parsed.Filename, parsed.Sentence, r.Prompter); err != nil {
			return true, err
		}
		r.Print("Write session finished.")
		if _, err := r.Session.Send(wire.VerbUpdateMeta, parsed.Filename); err != nil {
			return true, err
		}
	}
	return true, nil
}
