// Package driver wires the Rift pipeline together: scan, parse, resolve,
// interpret. It converts every phase's errors into structured diagnostics
// for the host to render, and owns the project-manifest machinery used by
// the CLI.
package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmahotiedu/rift/pkg/interpreter"
	"github.com/jmahotiedu/rift/pkg/lexer"
	"github.com/jmahotiedu/rift/pkg/parser"
	"github.com/jmahotiedu/rift/pkg/resolver"
	"github.com/jmahotiedu/rift/pkg/runtime"
	"github.com/jmahotiedu/rift/pkg/token"
)

// Phase names the pipeline stage that produced a diagnostic.
type Phase string

const (
	PhaseScan    Phase = "scan"
	PhaseParse   Phase = "parse"
	PhaseResolve Phase = "resolve"
	PhaseRuntime Phase = "runtime"
)

// Diagnostic is the structured error record handed to the host. Static
// phases report every error they found; the runtime phase reports at most
// one, since execution stops at the first fault.
type Diagnostic struct {
	Phase   Phase
	Message string
	Line    int
	Column  int // 0 when the phase tracks no column
}

func (d Diagnostic) String() string {
	label := strings.ToUpper(string(d.Phase)[:1]) + string(d.Phase)[1:]
	return fmt.Sprintf("[line %d] %s error: %s", d.Line, label, d.Message)
}

// Session holds one interpreter across multiple Execute calls, so a REPL
// keeps globals, functions, and classes defined by earlier inputs.
type Session struct {
	interp *interpreter.Interpreter
}

// NewSession creates a session writing program output to stdout and serving
// the input() native from stdin.
func NewSession(stdout io.Writer, stdin io.Reader) *Session {
	return &Session{interp: interpreter.NewWithIO(stdout, stdin)}
}

// Interpreter exposes the session's interpreter, mainly for tests.
func (s *Session) Interpreter() *interpreter.Interpreter {
	return s.interp
}

// Execute runs source through the full pipeline. Static errors abort before
// execution and are reported exhaustively; a runtime fault aborts the run
// and yields a single runtime diagnostic.
func (s *Session) Execute(source string) []Diagnostic {
	lex := lexer.New(source)
	tokens := lex.ScanTokens()
	if errs := lex.Errors(); len(errs) > 0 {
		return scanDiagnostics(errs)
	}

	p := parser.New(tokens)
	statements := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return parseDiagnostics(errs)
	}

	locals, resolveErrs := resolver.Resolve(statements)
	if len(resolveErrs) > 0 {
		return resolveDiagnostics(resolveErrs)
	}

	if err := s.interp.Run(statements, locals); err != nil {
		return []Diagnostic{runtimeDiagnostic(err)}
	}
	return nil
}

// Run executes a standalone source text in a fresh session.
func Run(source string, stdout io.Writer, stdin io.Reader) []Diagnostic {
	return NewSession(stdout, stdin).Execute(source)
}

// IsIncomplete reports whether source looks like the prefix of a valid
// program, so a REPL can keep prompting for continuation lines instead of
// reporting an error.
func IsIncomplete(source string) bool {
	lex := lexer.New(source)
	tokens := lex.ScanTokens()
	for _, err := range lex.Errors() {
		if err.Msg == "unterminated string" {
			return true
		}
	}
	if len(lex.Errors()) > 0 {
		return false
	}
	p := parser.New(tokens)
	p.Parse()
	errs := p.Errors()
	if len(errs) == 0 {
		return false
	}
	// Only errors at the EOF token indicate truncated input.
	for _, err := range errs {
		if err.Token.Type != token.EOF {
			return false
		}
	}
	return true
}

func scanDiagnostics(errs []*lexer.Error) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, Diagnostic{Phase: PhaseScan, Message: err.Msg, Line: err.Line, Column: err.Column})
	}
	return out
}

func parseDiagnostics(errs []*parser.Error) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, Diagnostic{Phase: PhaseParse, Message: err.Msg, Line: err.Token.Line, Column: err.Token.Column})
	}
	return out
}

func resolveDiagnostics(errs []*resolver.Error) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, Diagnostic{Phase: PhaseResolve, Message: err.Msg, Line: err.Token.Line, Column: err.Token.Column})
	}
	return out
}

func runtimeDiagnostic(err error) Diagnostic {
	if rt, ok := err.(*runtime.Error); ok {
		return Diagnostic{Phase: PhaseRuntime, Message: rt.Msg, Line: rt.Line}
	}
	return Diagnostic{Phase: PhaseRuntime, Message: err.Error()}
}
