package nsserver

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/langos-dfs/langos/internal/wire"
)

// fieldValidator rejects the exact class of input spec.md §9 leaves open:
// a field containing the wire delimiter or a newline, which would otherwise
// desynchronize the VERB;arg;arg;... framing further down the line. Caps at
// 255 characters keep a hostile client from buffering NS into OOM.
var fieldValidator = validator.New()

const fieldTag = "required,excludesall=;\x0a,max=255"

// validateField rejects value if it is empty, over-long, or contains ';' or
// a newline — the exact shapes that desynchronize VERB;arg;... framing
// (spec.md §9's open question on embedded delimiters, resolved as reject).
func validateField(name, value string) *wire.Error {
	if err := fieldValidator.Var(value, fieldTag); err != nil {
		return wire.NewError(wire.CodeInvalidArgs, "invalid %s: %v", name, err)
	}
	return nil
}

// validateTag is validateField plus a path-traversal guard, applied to every
// checkpoint tag before it ever reaches an SS_CHECKPOINT/SS_REVERT/
// SS_VIEWCHECKPOINT call — checkpointPath appends the tag straight onto the
// SS's on-disk path (ssengine.Engine.checkpointPath), so a tag containing
// ".." or "/" would otherwise escape the file's own directory.
func validateTag(name, value string) *wire.Error {
	if verr := validateField(name, value); verr != nil {
		return verr
	}
	if strings.Contains(value, "..") || strings.ContainsRune(value, '/') {
		return wire.NewError(wire.CodeInvalidArgs, "invalid %s: must not contain \"..\" or \"/\"", name)
	}
	return nil
}

// validateOptionalField is validateField but allows an empty string — used
// for annotation text and other fields the protocol permits blank.
func validateOptionalField(name, value string) *wire.Error {
	if value == "" {
		return nil
	}
	return validateField(name, value)
}

// exactArgs rejects a mismatched argument count before any handler touches
// the catalog — this is what actually catches "CREATE;a;b", the spec's own
// worked example of a desynchronized client.
func exactArgs(verb string, args []string, n int) *wire.Error {
	if len(args) != n {
		return wire.NewError(wire.CodeInvalidArgs, "%s expects %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}

// minArgs is used by verbs whose trailing argument (e.g. annotation text) may
// itself be empty but must still be present as a field.
func minArgs(verb string, args []string, n int) *wire.Error {
	if len(args) < n {
		return wire.NewError(wire.CodeInvalidArgs, "%s expects at least %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}
