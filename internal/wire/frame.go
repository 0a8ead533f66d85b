// Package wire implements the delimiter-based record protocol shared by the
// Name Server, Storage Server and Client: "VERB;arg1;arg2;...\n" requests,
// responses terminated by a literal marker line ("__END__" for NS,
// "__SS_END__" for SS). There is no length prefix and no escaping — callers
// are responsible for rejecting fields that contain the delimiter.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// End-of-response markers. Always sent as their own newline-terminated line.
const (
	NSEndMarker = "__END__"
	SSEndMarker = "__SS_END__"
)

// Delimiter separates positional fields within a single record.
const Delimiter = ";"

// WriteRecord writes "parts[0];parts[1];...\n" to w.
func WriteRecord(w io.Writer, parts ...string) error {
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(parts, Delimiter))
	return err
}

// WriteLine writes a single already-formatted line terminated by \n.
func WriteLine(w io.Writer, line string) error {
	_, err := fmt.Fprintf(w, "%s\n", line)
	return err
}

// WriteTerminated writes each of body's lines (already newline-free) followed
// by the marker line, e.g. a client ACK payload or an NS catalog-only reply.
func WriteTerminated(w io.Writer, marker string, body ...string) error {
	for _, line := range body {
		if err := WriteLine(w, line); err != nil {
			return err
		}
	}
	return WriteLine(w, marker)
}

// ReadLine reads a single newline-terminated line with the trailing newline
// stripped. Used for the first frame of a session (REGISTER_CLIENT /
// REGISTER_SS) and for marker-less SS acks (ACK_LOCK, ACK_DATA).
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadUntilMarker accumulates newline-terminated lines from r until it reads
// a line equal to marker, then returns everything before it (marker and its
// own newline stripped). This is used on both sides of a transaction: the NS
// reading an SS reply up to __SS_END__, and the Client reading an NS reply up
// to __END__.
func ReadUntilMarker(r *bufio.Reader, marker string) (string, error) {
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.TrimRight(line, "\r\n") == marker {
				return sb.String(), nil
			}
			return sb.String(), err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == marker {
			return sb.String(), nil
		}
		sb.WriteString(line)
	}
}

// ParseRecord splits a line into its ";"-delimited fields. An empty line
// yields a single empty-string field, mirroring strtok(buf, ";\n") returning
// NULL on the original C implementation — callers must check for that.
func ParseRecord(line string) []string {
	return strings.Split(line, Delimiter)
}
