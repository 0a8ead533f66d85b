package wire

import "fmt"

// Code is a wire-level error code, sent to the client as "ERROR;code;msg".
// Values are pinned by spec.md §6 (originally src/error_codes.h).
type Code int

const (
	CodeUnknownCommand   Code = 400
	CodeNotOwner         Code = 401
	CodePermissionDenied Code = 403
	CodeFileNotFound     Code = 404
	CodeFileExists       Code = 409
	CodeInvalidArgs      Code = 422
	CodeNoSSAvailable    Code = 503
	CodeSSFailure        Code = 504
	CodeUserNotFound     Code = 105
	CodeInvalidInput     Code = 106
	CodeServerMisc       Code = 107
	CodeSSUnreachable    Code = 108
)

// Error is a wire-level error: a Code plus a human-readable message. It
// formats as the exact "ERROR;code;msg" line the protocol requires.
type Error struct {
	Code    Code
	Message string
}

func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("ERROR;%d;%s", e.Code, e.Message)
}

// Line renders the error as the exact wire line, with no trailing newline.
func (e *Error) Line() string {
	return e.Error()
}
