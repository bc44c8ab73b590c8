// Package parser builds the Rift AST from a token stream via recursive
// descent. Grammar errors are collected and reported together; after an
// error the parser synchronizes at the next statement boundary so later
// statements are still checked.
package parser

import (
	"fmt"

	"github.com/jmahotiedu/rift/pkg/ast"
	"github.com/jmahotiedu/rift/pkg/token"
)

const maxArity = 255

// Error is a parse-time diagnostic anchored to the offending token.
type Error struct {
	Token token.Token
	Msg   string
}

func (e *Error) Error() string {
	if e.Token.Type == token.EOF {
		return fmt.Sprintf("[line %d] Parse error at end: %s", e.Token.Line, e.Msg)
	}
	return fmt.Sprintf("[line %d] Parse error at %q: %s", e.Token.Line, e.Token.Lexeme, e.Msg)
}

type Parser struct {
	tokens  []token.Token
	current int
	errors  []*Error
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the token stream and returns the statement list. The list
// only covers statements that parsed cleanly; check Errors before using it.
func (p *Parser) Parse() []ast.Stmt {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Errors returns the parse errors in source order.
func (p *Parser) Errors() []*Error {
	return p.errors
}

//-----------------------------------------------------------------------------
// Declarations
//-----------------------------------------------------------------------------

func (p *Parser) declaration() ast.Stmt {
	var stmt ast.Stmt
	var err error
	switch {
	case p.match(token.Class):
		stmt, err = p.classDeclaration()
	case p.match(token.Fn):
		stmt, err = p.function("function")
	case p.match(token.Let):
		stmt, err = p.letDeclaration()
	default:
		stmt, err = p.statement()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.Identifier, "expected class name")
	if err != nil {
		return nil, err
	}

	var superclass *ast.VariableExpr
	if p.match(token.Less) {
		if _, err := p.consume(token.Identifier, "expected superclass name"); err != nil {
			return nil, err
		}
		superclass = &ast.VariableExpr{Name: p.previous()}
	}

	if _, err := p.consume(token.LeftBrace, "expected '{' before class body"); err != nil {
		return nil, err
	}
	var methods []*ast.FunctionStmt
	for !p.check(token.RightBrace) && !p.isAtEnd() {
		method, err := p.function("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if _, err := p.consume(token.RightBrace, "expected '}' after class body"); err != nil {
		return nil, err
	}
	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}, nil
}

func (p *Parser) function(kind string) (*ast.FunctionStmt, error) {
	name, err := p.consume(token.Identifier, fmt.Sprintf("expected %s name", kind))
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LeftParen, fmt.Sprintf("expected '(' after %s name", kind)); err != nil {
		return nil, err
	}
	var params []token.Token
	if !p.check(token.RightParen) {
		for {
			if len(params) >= maxArity {
				p.errorAt(p.peek(), fmt.Sprintf("cannot have more than %d parameters", maxArity))
			}
			param, err := p.consume(token.Identifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.consume(token.RightParen, fmt.Sprintf("expected ')' after %s parameters", kind)); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LeftBrace, fmt.Sprintf("expected '{' before %s body", kind)); err != nil {
		return nil, err
	}
	body, err := p.blockStatements()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) letDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.Identifier, "expected variable name")
	if err != nil {
		return nil, err
	}
	var initializer ast.Expr
	if p.match(token.Equal) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.Semicolon, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name, Initializer: initializer}, nil
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.If):
		return p.ifStatement()
	case p.match(token.Print):
		return p.printStatement()
	case p.match(token.Return):
		return p.returnStatement()
	case p.match(token.While):
		return p.whileStatement()
	case p.match(token.For):
		return p.forStatement()
	case p.match(token.LeftBrace):
		stmts, err := p.blockStatements()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Statements: stmts}, nil
	}
	return p.expressionStatement()
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LeftParen, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RightParen, "expected ')' after if condition"); err != nil {
		return nil, err
	}
	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}, nil
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LeftParen, "expected '(' after 'print'"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RightParen, "expected ')' after print argument"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.Semicolon, "expected ';' after print statement"); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Expression: value}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.previous()
	var value ast.Expr
	var err error
	if !p.check(token.Semicolon) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.Semicolon, "expected ';' after return value"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LeftParen, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RightParen, "expected ')' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: condition, Body: body}, nil
}

// forStatement keeps the header as a first-class node. Desugaring to a while
// loop would force every iteration to share one loop-variable binding; the
// interpreter needs the intact header to give each iteration its own frame.
func (p *Parser) forStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LeftParen, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	var err error
	switch {
	case p.match(token.Semicolon):
		initializer = nil
	case p.match(token.Let):
		initializer, err = p.letDeclaration()
		if err != nil {
			return nil, err
		}
	default:
		initializer, err = p.expressionStatement()
		if err != nil {
			return nil, err
		}
	}

	var condition ast.Expr
	if !p.check(token.Semicolon) {
		condition, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.Semicolon, "expected ';' after loop condition"); err != nil {
		return nil, err
	}

	var increment ast.Expr
	if !p.check(token.RightParen) {
		increment, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.RightParen, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Initializer: initializer, Condition: condition, Increment: increment, Body: body}, nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.Semicolon, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ast.ExpressionStmt{Expression: expr}, nil
}

func (p *Parser) blockStatements() ([]ast.Stmt, error) {
	var statements []ast.Stmt
	for !p.check(token.RightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	if _, err := p.consume(token.RightBrace, "expected '}' after block"); err != nil {
		return nil, err
	}
	return statements, nil
}

//-----------------------------------------------------------------------------
// Expressions (precedence climbing)
//-----------------------------------------------------------------------------

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.Equal) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}, nil
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}, nil
		}
		return nil, p.errorAt(equals, "invalid assignment target")
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(token.Or) {
		operator := p.previous()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.And) {
		operator := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.match(token.BangEqual, token.EqualEqual) {
		operator := p.previous()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) comparison() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.match(token.Greater, token.GreaterEqual, token.Less, token.LessEqual) {
		operator := p.previous()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) term() (ast.Expr, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.match(token.Minus, token.Plus) {
		operator := p.previous()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) factor() (ast.Expr, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(token.Slash, token.Star, token.Percent) {
		operator := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.Bang, token.Minus) {
		operator := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operator: operator, Operand: operand}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(token.LeftParen):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.match(token.Dot):
			name, err := p.consume(token.Identifier, "expected property name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var arguments []ast.Expr
	if !p.check(token.RightParen) {
		for {
			if len(arguments) >= maxArity {
				p.errorAt(p.peek(), fmt.Sprintf("cannot have more than %d arguments", maxArity))
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paren, err := p.consume(token.RightParen, "expected ')' after arguments")
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Callee: callee, Arguments: arguments, Paren: paren}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.match(token.False):
		return &ast.LiteralExpr{Value: false}, nil
	case p.match(token.True):
		return &ast.LiteralExpr{Value: true}, nil
	case p.match(token.Nil):
		return &ast.LiteralExpr{Value: nil}, nil
	case p.match(token.Number, token.String):
		return &ast.LiteralExpr{Value: p.previous().Literal}, nil
	case p.match(token.This):
		return &ast.ThisExpr{Keyword: p.previous()}, nil
	case p.match(token.Super):
		keyword := p.previous()
		if _, err := p.consume(token.Dot, "expected '.' after 'super'"); err != nil {
			return nil, err
		}
		method, err := p.consume(token.Identifier, "expected superclass method name")
		if err != nil {
			return nil, err
		}
		return &ast.SuperExpr{Keyword: keyword, Method: method}, nil
	case p.match(token.Identifier):
		return &ast.VariableExpr{Name: p.previous()}, nil
	case p.match(token.LeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RightParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return &ast.GroupingExpr{Expression: expr}, nil
	}
	return nil, p.errorAt(p.peek(), "expected expression")
}

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

func (p *Parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(t token.Type) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) consume(t token.Type, message string) (token.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(tok token.Token, message string) *Error {
	err := &Error{Token: tok, Msg: message}
	p.errors = append(p.errors, err)
	return err
}

// synchronize skips tokens until a likely statement boundary so one grammar
// error does not cascade into spurious reports for the rest of the file.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == token.Semicolon {
			return
		}
		switch p.peek().Type {
		case token.Class, token.Fn, token.Let, token.For,
			token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}
