// Package resolver implements the static resolution pass that runs between
// parsing and execution. It computes, for every variable reference, how many
// frames the interpreter must walk to reach the binding, and collects every
// static error it can find before giving up. Keeping it a separate pass is
// what allows forward references to top-level functions and classes while
// still rejecting local scope violations before anything runs.
package resolver

import (
	"fmt"

	"github.com/jmahotiedu/rift/pkg/ast"
	"github.com/jmahotiedu/rift/pkg/token"
)

// Locals maps a variable-reference node to its resolution distance: the
// number of enclosing-frame hops from the use site to the defining frame.
// References absent from the map are globals, looked up by name at run time.
type Locals map[ast.Expr]int

// Error is a static diagnostic anchored to the offending token.
type Error struct {
	Token token.Token
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Resolve error at %q: %s", e.Token.Line, e.Token.Lexeme, e.Msg)
}

type functionKind int

const (
	functionNone functionKind = iota
	functionPlain
	functionMethod
	functionInitializer
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSubclass
)

type resolver struct {
	// Each scope maps a name to whether its initializer has completed:
	// declared-but-not-defined entries catch self-referential initializers.
	scopes          []map[string]bool
	locals          Locals
	errors          []*Error
	currentFunction functionKind
	currentClass    classKind
}

// Resolve performs the full static pass over a statement list. It is a pure
// function of the AST: resolving the same program twice yields identical
// records. Execution must not proceed when any errors are returned.
func Resolve(statements []ast.Stmt) (Locals, []*Error) {
	r := &resolver{locals: make(Locals)}
	r.resolveStmts(statements)
	return r.locals, r.errors
}

func (r *resolver) resolveStmts(statements []ast.Stmt) {
	for _, stmt := range statements {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()
	case *ast.LetStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)
	case *ast.FunctionStmt:
		// The name is defined before the body resolves, enabling recursion.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, functionPlain)
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expression)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expression)
	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.ThenBranch)
		if s.ElseBranch != nil {
			r.resolveStmt(s.ElseBranch)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)
	case *ast.ForStmt:
		// The header scope mirrors the per-iteration frame the interpreter
		// creates, so distances inside the body line up with it.
		r.beginScope()
		if s.Initializer != nil {
			r.resolveStmt(s.Initializer)
		}
		if s.Condition != nil {
			r.resolveExpr(s.Condition)
		}
		r.resolveStmt(s.Body)
		if s.Increment != nil {
			r.resolveExpr(s.Increment)
		}
		r.endScope()
	case *ast.ReturnStmt:
		if r.currentFunction == functionNone {
			r.errorAt(s.Keyword, "cannot return from top-level code")
		}
		if s.Value != nil {
			if r.currentFunction == functionInitializer {
				r.errorAt(s.Keyword, "cannot return a value from an initializer")
			}
			r.resolveExpr(s.Value)
		}
	case *ast.ClassStmt:
		r.resolveClass(s)
	}
}

func (r *resolver) resolveClass(class *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classPlain
	defer func() { r.currentClass = enclosingClass }()

	r.declare(class.Name)
	r.define(class.Name)

	if class.Superclass != nil {
		if class.Superclass.Name.Lexeme == class.Name.Lexeme {
			r.errorAt(class.Superclass.Name, "a class cannot inherit from itself")
		}
		r.currentClass = classSubclass
		r.resolveExpr(class.Superclass)
		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range class.Methods {
		kind := functionMethod
		if method.Name.Lexeme == "init" {
			kind = functionInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if class.Superclass != nil {
		r.endScope()
	}
}

func (r *resolver) resolveFunction(fn *ast.FunctionStmt, kind functionKind) {
	enclosing := r.currentFunction
	r.currentFunction = kind
	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()
	r.currentFunction = enclosing
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			if defined, declared := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; declared && !defined {
				r.errorAt(e.Name, "cannot read variable in its own initializer")
			}
		}
		r.resolveLocal(e, e.Name)
	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Arguments {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(e.Object)
	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.GroupingExpr:
		r.resolveExpr(e.Expression)
	case *ast.LiteralExpr:
		// nothing to resolve
	case *ast.ThisExpr:
		if r.currentClass == classNone {
			r.errorAt(e.Keyword, "cannot use 'this' outside of a class")
		}
		r.resolveLocal(e, e.Keyword)
	case *ast.SuperExpr:
		switch r.currentClass {
		case classNone:
			r.errorAt(e.Keyword, "cannot use 'super' outside of a class")
		case classPlain:
			r.errorAt(e.Keyword, "cannot use 'super' in a class with no superclass")
		}
		r.resolveLocal(e, e.Keyword)
	}
}

// resolveLocal records the hop count to the innermost scope declaring the
// name. Names found in no scope stay out of the map: they are late-bound
// globals, which may legitimately be declared after this reference.
func (r *resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

// declare marks a name visible but uninitialized. Redeclaring a name in the
// same local scope is a static error; the global scope is late-bound and
// permits redefinition.
func (r *resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name.Lexeme]; ok {
		r.errorAt(name, fmt.Sprintf("variable '%s' already declared in this scope", name.Lexeme))
	}
	scope[name.Lexeme] = false
}

func (r *resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bool))
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) errorAt(tok token.Token, msg string) {
	r.errors = append(r.errors, &Error{Token: tok, Msg: msg})
}
