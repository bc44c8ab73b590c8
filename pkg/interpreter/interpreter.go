// Package interpreter executes resolved Rift programs by walking the AST
// against a chain of environment frames.
package interpreter

import (
	"io"
	"os"

	"github.com/jmahotiedu/rift/pkg/ast"
	"github.com/jmahotiedu/rift/pkg/resolver"
	"github.com/jmahotiedu/rift/pkg/runtime"
)

// maxCallDepth bounds recursion so a runaway program reports a runtime error
// instead of exhausting the host stack.
const maxCallDepth = 1024

// Interpreter drives evaluation of Rift statements. Variable references use
// the resolver's distance records; anything without a record is looked up in
// the global frame by name at the moment of use.
type Interpreter struct {
	globals *runtime.Environment
	locals  resolver.Locals
	stdout  io.Writer
	stdin   io.Reader
	depth   int
}

// New returns an interpreter printing to stdout and reading from stdin, with
// the native functions already registered in its global frame.
func New() *Interpreter {
	return NewWithIO(os.Stdout, os.Stdin)
}

// NewWithIO returns an interpreter with explicit output and input
// collaborators. Tests pass a buffer; the REPL shares one instance across
// inputs so globals persist.
func NewWithIO(stdout io.Writer, stdin io.Reader) *Interpreter {
	interp := &Interpreter{
		globals: runtime.NewEnvironment(nil),
		locals:  make(resolver.Locals),
		stdout:  stdout,
		stdin:   stdin,
	}
	registerNatives(interp.globals, stdin, stdout)
	return interp
}

// Globals returns the interpreter's global frame.
func (i *Interpreter) Globals() *runtime.Environment {
	return i.globals
}

// Run executes a resolved statement list against the global frame. The
// locals records come from a resolver pass over exactly these statements;
// records accumulate across calls so a REPL session can keep one
// interpreter alive. The first runtime fault aborts the run.
func (i *Interpreter) Run(statements []ast.Stmt, locals resolver.Locals) error {
	for expr, distance := range locals {
		i.locals[expr] = distance
	}
	for _, stmt := range statements {
		if err := i.execute(stmt, i.globals); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execute(stmt ast.Stmt, env *runtime.Environment) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := i.evaluate(s.Expression, env)
		return err
	case *ast.PrintStmt:
		value, err := i.evaluate(s.Expression, env)
		if err != nil {
			return err
		}
		_, err = io.WriteString(i.stdout, Stringify(value)+"\n")
		return err
	case *ast.LetStmt:
		var value runtime.Value = runtime.NilValue{}
		if s.Initializer != nil {
			var err error
			value, err = i.evaluate(s.Initializer, env)
			if err != nil {
				return err
			}
		}
		env.Define(s.Name.Lexeme, value)
		return nil
	case *ast.BlockStmt:
		return i.executeBlock(s.Statements, env.Child())
	case *ast.IfStmt:
		cond, err := i.evaluate(s.Condition, env)
		if err != nil {
			return err
		}
		if isTruthy(cond) {
			return i.execute(s.ThenBranch, env)
		}
		if s.ElseBranch != nil {
			return i.execute(s.ElseBranch, env)
		}
		return nil
	case *ast.WhileStmt:
		for {
			cond, err := i.evaluate(s.Condition, env)
			if err != nil {
				return err
			}
			if !isTruthy(cond) {
				return nil
			}
			if err := i.execute(s.Body, env); err != nil {
				return err
			}
		}
	case *ast.ForStmt:
		return i.executeFor(s, env)
	case *ast.FunctionStmt:
		fn := &runtime.FunctionValue{Declaration: s, Closure: env}
		env.Define(s.Name.Lexeme, fn)
		return nil
	case *ast.ReturnStmt:
		var value runtime.Value = runtime.NilValue{}
		if s.Value != nil {
			var err error
			value, err = i.evaluate(s.Value, env)
			if err != nil {
				return err
			}
		}
		return returnSignal{value: value}
	case *ast.ClassStmt:
		return i.executeClass(s, env)
	}
	return nil
}

func (i *Interpreter) executeBlock(statements []ast.Stmt, env *runtime.Environment) error {
	for _, stmt := range statements {
		if err := i.execute(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

// executeFor runs the loop against a header frame holding the loop variable.
// After each iteration the header frame is replaced by a fresh copy, so a
// closure created in iteration k keeps observing iteration k's binding while
// the increment and later iterations work on their own frames.
func (i *Interpreter) executeFor(s *ast.ForStmt, env *runtime.Environment) error {
	loopEnv := env.Child()
	if s.Initializer != nil {
		if err := i.execute(s.Initializer, loopEnv); err != nil {
			return err
		}
	}
	for {
		if s.Condition != nil {
			cond, err := i.evaluate(s.Condition, loopEnv)
			if err != nil {
				return err
			}
			if !isTruthy(cond) {
				return nil
			}
		}
		if err := i.execute(s.Body, loopEnv); err != nil {
			return err
		}
		next := env.Child()
		for name, value := range loopEnv.Snapshot() {
			next.Define(name, value)
		}
		loopEnv = next
		if s.Increment != nil {
			if _, err := i.evaluate(s.Increment, loopEnv); err != nil {
				return err
			}
		}
	}
}

func (i *Interpreter) executeClass(s *ast.ClassStmt, env *runtime.Environment) error {
	var superclass *runtime.ClassValue
	if s.Superclass != nil {
		resolved, err := i.evaluate(s.Superclass, env)
		if err != nil {
			return err
		}
		class, ok := resolved.(*runtime.ClassValue)
		if !ok {
			return runtime.NewError(s.Superclass.Name.Line, "superclass must be a class")
		}
		superclass = class
	}

	env.Define(s.Name.Lexeme, runtime.NilValue{})

	methodEnv := env
	if superclass != nil {
		methodEnv = env.Child()
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*runtime.FunctionValue, len(s.Methods))
	for _, method := range s.Methods {
		methods[method.Name.Lexeme] = &runtime.FunctionValue{
			Declaration:   method,
			Closure:       methodEnv,
			IsInitializer: method.Name.Lexeme == "init",
		}
	}

	class := &runtime.ClassValue{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods}
	if err := env.Assign(s.Name.Lexeme, class); err != nil {
		return runtime.NewError(s.Name.Line, "%s", err.Error())
	}
	return nil
}

// returnSignal carries a return value up to the nearest call boundary. It
// travels the error path so every statement-sequence execution point checks
// it explicitly; the resolver guarantees it can never escape past the
// outermost call.
type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return" }
