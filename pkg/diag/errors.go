package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// StackFrame is one call frame in a RuntimeError's trace, generalized from
// the teacher's vm/errors.go StackFrame to this engine's richer call shape:
// a frame is either a script/function/method/constructor closure or a
// native call, identified by name, with the source line active at the time
// of the error.
type StackFrame struct {
	Name     string // closure/native display name, "<script>" for module top level
	Selector string // property/method selector for an INVOKE-style call, if any
	Line     int
}

// RuntimeError is a VM execution error with the call stack active when it
// was raised, unchanged in shape from the original spec's taxonomy.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\nstack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			f := e.StackTrace[i]
			fmt.Fprintf(&b, "\n  at %s", f.Name)
			if f.Selector != "" {
				fmt.Fprintf(&b, ".%s", f.Selector)
			}
			if f.Line > 0 {
				fmt.Fprintf(&b, " [line %d]", f.Line)
			}
		}
	}
	return b.String()
}

// NewRuntimeError builds a RuntimeError with the given message and stack.
func NewRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}

// CompileError is a single lex/parse/compile error at a source line.
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// WrapHostError annotates a host-boundary failure (module resolution, file
// I/O during import, bytecode dump/undump I/O) with teascript-level context
// while preserving the underlying error for errors.Cause/errors.Is.
func WrapHostError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
