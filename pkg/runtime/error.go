package runtime

import "fmt"

// Error is a runtime fault carrying the originating source line. Evaluation
// of the current top-level statement stops at the first one raised.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Runtime error: %s", e.Line, e.Msg)
}

// NewError builds a runtime error for the given source line.
func NewError(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}
