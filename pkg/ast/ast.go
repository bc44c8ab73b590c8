package ast

import "github.com/jmahotiedu/rift/pkg/token"

// NodeType names the concrete kind of an AST node.
type NodeType string

const (
	NodeBinaryExpr     NodeType = "BinaryExpr"
	NodeUnaryExpr      NodeType = "UnaryExpr"
	NodeLiteralExpr    NodeType = "LiteralExpr"
	NodeGroupingExpr   NodeType = "GroupingExpr"
	NodeVariableExpr   NodeType = "VariableExpr"
	NodeAssignExpr     NodeType = "AssignExpr"
	NodeLogicalExpr    NodeType = "LogicalExpr"
	NodeCallExpr       NodeType = "CallExpr"
	NodeGetExpr        NodeType = "GetExpr"
	NodeSetExpr        NodeType = "SetExpr"
	NodeThisExpr       NodeType = "ThisExpr"
	NodeSuperExpr      NodeType = "SuperExpr"
	NodeExpressionStmt NodeType = "ExpressionStmt"
	NodePrintStmt      NodeType = "PrintStmt"
	NodeLetStmt        NodeType = "LetStmt"
	NodeBlockStmt      NodeType = "BlockStmt"
	NodeIfStmt         NodeType = "IfStmt"
	NodeWhileStmt      NodeType = "WhileStmt"
	NodeForStmt        NodeType = "ForStmt"
	NodeFunctionStmt   NodeType = "FunctionStmt"
	NodeReturnStmt     NodeType = "ReturnStmt"
	NodeClassStmt      NodeType = "ClassStmt"
)

// Node is the shared behaviour of every AST node. Nodes are built by the
// parser and immutable afterwards; node identity (the pointer) keys the
// resolver's distance records.
type Node interface {
	NodeType() NodeType
	isNode()
}

// Expr marks expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt marks statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

type exprMarker struct{}

func (exprMarker) isNode()   {}
func (exprMarker) exprNode() {}

type stmtMarker struct{}

func (stmtMarker) isNode()   {}
func (stmtMarker) stmtNode() {}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

type BinaryExpr struct {
	exprMarker
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (*BinaryExpr) NodeType() NodeType { return NodeBinaryExpr }

type UnaryExpr struct {
	exprMarker
	Operator token.Token
	Operand  Expr
}

func (*UnaryExpr) NodeType() NodeType { return NodeUnaryExpr }

// LiteralExpr carries nil, bool, float64 or string.
type LiteralExpr struct {
	exprMarker
	Value any
}

func (*LiteralExpr) NodeType() NodeType { return NodeLiteralExpr }

type GroupingExpr struct {
	exprMarker
	Expression Expr
}

func (*GroupingExpr) NodeType() NodeType { return NodeGroupingExpr }

type VariableExpr struct {
	exprMarker
	Name token.Token
}

func (*VariableExpr) NodeType() NodeType { return NodeVariableExpr }

type AssignExpr struct {
	exprMarker
	Name  token.Token
	Value Expr
}

func (*AssignExpr) NodeType() NodeType { return NodeAssignExpr }

// LogicalExpr covers the short-circuiting `and`/`or` operators.
type LogicalExpr struct {
	exprMarker
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (*LogicalExpr) NodeType() NodeType { return NodeLogicalExpr }

// CallExpr records the closing paren token for error positions.
type CallExpr struct {
	exprMarker
	Callee    Expr
	Arguments []Expr
	Paren     token.Token
}

func (*CallExpr) NodeType() NodeType { return NodeCallExpr }

type GetExpr struct {
	exprMarker
	Object Expr
	Name   token.Token
}

func (*GetExpr) NodeType() NodeType { return NodeGetExpr }

type SetExpr struct {
	exprMarker
	Object Expr
	Name   token.Token
	Value  Expr
}

func (*SetExpr) NodeType() NodeType { return NodeSetExpr }

type ThisExpr struct {
	exprMarker
	Keyword token.Token
}

func (*ThisExpr) NodeType() NodeType { return NodeThisExpr }

type SuperExpr struct {
	exprMarker
	Keyword token.Token
	Method  token.Token
}

func (*SuperExpr) NodeType() NodeType { return NodeSuperExpr }

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type ExpressionStmt struct {
	stmtMarker
	Expression Expr
}

func (*ExpressionStmt) NodeType() NodeType { return NodeExpressionStmt }

type PrintStmt struct {
	stmtMarker
	Expression Expr
}

func (*PrintStmt) NodeType() NodeType { return NodePrintStmt }

// LetStmt declares a variable; Initializer is nil when omitted.
type LetStmt struct {
	stmtMarker
	Name        token.Token
	Initializer Expr
}

func (*LetStmt) NodeType() NodeType { return NodeLetStmt }

type BlockStmt struct {
	stmtMarker
	Statements []Stmt
}

func (*BlockStmt) NodeType() NodeType { return NodeBlockStmt }

type IfStmt struct {
	stmtMarker
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt // nil when absent
}

func (*IfStmt) NodeType() NodeType { return NodeIfStmt }

type WhileStmt struct {
	stmtMarker
	Condition Expr
	Body      Stmt
}

func (*WhileStmt) NodeType() NodeType { return NodeWhileStmt }

// ForStmt keeps the header parts intact instead of desugaring to a while
// loop: when the initializer declares the loop variable, each iteration gets
// a fresh frame so closures capture per-iteration bindings.
type ForStmt struct {
	stmtMarker
	Initializer Stmt // LetStmt, ExpressionStmt, or nil
	Condition   Expr // nil means always true
	Increment   Expr // nil when absent
	Body        Stmt
}

func (*ForStmt) NodeType() NodeType { return NodeForStmt }

type FunctionStmt struct {
	stmtMarker
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

func (*FunctionStmt) NodeType() NodeType { return NodeFunctionStmt }

type ReturnStmt struct {
	stmtMarker
	Keyword token.Token
	Value   Expr // nil for a bare return
}

func (*ReturnStmt) NodeType() NodeType { return NodeReturnStmt }

type ClassStmt struct {
	stmtMarker
	Name       token.Token
	Superclass *VariableExpr // nil when the class has no superclass
	Methods    []*FunctionStmt
}

func (*ClassStmt) NodeType() NodeType { return NodeClassStmt }
