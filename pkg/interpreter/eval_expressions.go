package interpreter

import (
	"errors"
	"math"

	"github.com/jmahotiedu/rift/pkg/ast"
	"github.com/jmahotiedu/rift/pkg/runtime"
	"github.com/jmahotiedu/rift/pkg/token"
)

func (i *Interpreter) evaluate(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e), nil
	case *ast.GroupingExpr:
		return i.evaluate(e.Expression, env)
	case *ast.UnaryExpr:
		return i.evaluateUnary(e, env)
	case *ast.BinaryExpr:
		return i.evaluateBinary(e, env)
	case *ast.LogicalExpr:
		return i.evaluateLogical(e, env)
	case *ast.VariableExpr:
		return i.lookUpVariable(e.Name, e, env)
	case *ast.AssignExpr:
		return i.evaluateAssign(e, env)
	case *ast.CallExpr:
		return i.evaluateCall(e, env)
	case *ast.GetExpr:
		return i.evaluateGet(e, env)
	case *ast.SetExpr:
		return i.evaluateSet(e, env)
	case *ast.ThisExpr:
		return i.lookUpVariable(e.Keyword, e, env)
	case *ast.SuperExpr:
		return i.evaluateSuper(e, env)
	}
	return nil, runtime.NewError(0, "unsupported expression type %s", expr.NodeType())
}

func literalValue(e *ast.LiteralExpr) runtime.Value {
	switch v := e.Value.(type) {
	case nil:
		return runtime.NilValue{}
	case bool:
		return runtime.BoolValue{Val: v}
	case float64:
		return runtime.NumberValue{Val: v}
	case string:
		return runtime.StringValue{Val: v}
	}
	return runtime.NilValue{}
}

func (i *Interpreter) evaluateUnary(e *ast.UnaryExpr, env *runtime.Environment) (runtime.Value, error) {
	operand, err := i.evaluate(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator.Type {
	case token.Minus:
		num, ok := operand.(runtime.NumberValue)
		if !ok {
			return nil, runtime.NewError(e.Operator.Line, "operand must be a number")
		}
		return runtime.NumberValue{Val: -num.Val}, nil
	case token.Bang:
		return runtime.BoolValue{Val: !isTruthy(operand)}, nil
	}
	return nil, runtime.NewError(e.Operator.Line, "unsupported unary operator %q", e.Operator.Lexeme)
}

func (i *Interpreter) evaluateBinary(e *ast.BinaryExpr, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluate(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(e.Right, env)
	if err != nil {
		return nil, err
	}

	op := e.Operator
	switch op.Type {
	case token.Plus:
		if l, ok := left.(runtime.NumberValue); ok {
			if r, ok := right.(runtime.NumberValue); ok {
				return runtime.NumberValue{Val: l.Val + r.Val}, nil
			}
		}
		if l, ok := left.(runtime.StringValue); ok {
			if r, ok := right.(runtime.StringValue); ok {
				return runtime.StringValue{Val: l.Val + r.Val}, nil
			}
		}
		return nil, runtime.NewError(op.Line, "operands must be two numbers or two strings")
	case token.Minus:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: l - r}, nil
	case token.Star:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: l * r}, nil
	case token.Slash:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, runtime.NewError(op.Line, "division by zero")
		}
		return runtime.NumberValue{Val: l / r}, nil
	case token.Percent:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, runtime.NewError(op.Line, "modulo by zero")
		}
		return runtime.NumberValue{Val: floatMod(l, r)}, nil
	case token.Greater:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: l > r}, nil
	case token.GreaterEqual:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: l >= r}, nil
	case token.Less:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: l < r}, nil
	case token.LessEqual:
		l, r, err := numberOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: l <= r}, nil
	case token.EqualEqual:
		return runtime.BoolValue{Val: isEqual(left, right)}, nil
	case token.BangEqual:
		return runtime.BoolValue{Val: !isEqual(left, right)}, nil
	}
	return nil, runtime.NewError(op.Line, "unsupported binary operator %q", op.Lexeme)
}

func (i *Interpreter) evaluateLogical(e *ast.LogicalExpr, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluate(e.Left, env)
	if err != nil {
		return nil, err
	}
	// The result is whichever operand decided the outcome, uncoerced.
	if e.Operator.Type == token.Or {
		if isTruthy(left) {
			return left, nil
		}
	} else {
		if !isTruthy(left) {
			return left, nil
		}
	}
	return i.evaluate(e.Right, env)
}

func (i *Interpreter) evaluateAssign(e *ast.AssignExpr, env *runtime.Environment) (runtime.Value, error) {
	value, err := i.evaluate(e.Value, env)
	if err != nil {
		return nil, err
	}
	if distance, ok := i.locals[e]; ok {
		if err := env.AssignAt(distance, e.Name.Lexeme, value); err != nil {
			return nil, runtime.NewError(e.Name.Line, "%s", err.Error())
		}
		return value, nil
	}
	if err := i.globals.Assign(e.Name.Lexeme, value); err != nil {
		return nil, runtime.NewError(e.Name.Line, "%s", err.Error())
	}
	return value, nil
}

func (i *Interpreter) evaluateCall(e *ast.CallExpr, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluate(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]runtime.Value, 0, len(e.Arguments))
	for _, arg := range e.Arguments {
		value, err := i.evaluate(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}

	callable, ok := callee.(runtime.Callable)
	if !ok {
		return nil, runtime.NewError(e.Paren.Line, "can only call functions and classes")
	}
	if len(args) != callable.Arity() {
		return nil, runtime.NewError(e.Paren.Line, "expected %d arguments but got %d", callable.Arity(), len(args))
	}
	return i.call(callable, args, e.Paren.Line)
}

// call dispatches over the closed set of callable kinds. Class values
// instantiate; function values run their body in a fresh child frame of the
// captured environment.
func (i *Interpreter) call(callee runtime.Callable, args []runtime.Value, line int) (runtime.Value, error) {
	if i.depth >= maxCallDepth {
		return nil, runtime.NewError(line, "stack overflow")
	}
	i.depth++
	defer func() { i.depth-- }()

	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return i.invokeFunction(fn, args)
	case *runtime.BoundMethodValue:
		return i.invokeFunction(fn.Method, args)
	case *runtime.NativeFunctionValue:
		result, err := fn.Impl(args)
		if err != nil {
			return nil, runtime.NewError(line, "%s", err.Error())
		}
		if result == nil {
			result = runtime.NilValue{}
		}
		return result, nil
	case *runtime.ClassValue:
		instance := runtime.NewInstance(fn)
		if init := fn.FindMethod("init"); init != nil {
			if _, err := i.call(init.Bind(instance), args, line); err != nil {
				return nil, err
			}
		}
		return instance, nil
	}
	return nil, runtime.NewError(line, "can only call functions and classes")
}

func (i *Interpreter) invokeFunction(fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	env := fn.Closure.Child()
	for idx, param := range fn.Declaration.Params {
		env.Define(param.Lexeme, args[idx])
	}

	err := i.executeBlock(fn.Declaration.Body, env)
	if err != nil {
		var ret returnSignal
		if !errors.As(err, &ret) {
			return nil, err
		}
		if fn.IsInitializer {
			return i.initializerThis(fn)
		}
		return ret.value, nil
	}
	if fn.IsInitializer {
		return i.initializerThis(fn)
	}
	return runtime.NilValue{}, nil
}

// initializerThis fetches the receiver from the binding frame; init always
// yields the instance regardless of how its body exited.
func (i *Interpreter) initializerThis(fn *runtime.FunctionValue) (runtime.Value, error) {
	this, err := fn.Closure.GetAt(0, "this")
	if err != nil {
		return nil, runtime.NewError(fn.Declaration.Name.Line, "%s", err.Error())
	}
	return this, nil
}

func (i *Interpreter) evaluateGet(e *ast.GetExpr, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluate(e.Object, env)
	if err != nil {
		return nil, err
	}
	instance, ok := object.(*runtime.InstanceValue)
	if !ok {
		return nil, runtime.NewError(e.Name.Line, "only instances have properties")
	}
	value, ok := instance.GetProperty(e.Name.Lexeme)
	if !ok {
		return nil, runtime.NewError(e.Name.Line, "undefined property '%s'", e.Name.Lexeme)
	}
	return value, nil
}

func (i *Interpreter) evaluateSet(e *ast.SetExpr, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluate(e.Object, env)
	if err != nil {
		return nil, err
	}
	instance, ok := object.(*runtime.InstanceValue)
	if !ok {
		return nil, runtime.NewError(e.Name.Line, "only instances have fields")
	}
	value, err := i.evaluate(e.Value, env)
	if err != nil {
		return nil, err
	}
	instance.SetField(e.Name.Lexeme, value)
	return value, nil
}

// evaluateSuper starts the method search at the superclass recorded in the
// class-declaration frame, skipping the receiver's own class, and binds the
// result to the current `this` (always one frame inside `super`).
func (i *Interpreter) evaluateSuper(e *ast.SuperExpr, env *runtime.Environment) (runtime.Value, error) {
	distance, ok := i.locals[e]
	if !ok {
		return nil, runtime.NewError(e.Keyword.Line, "unresolved 'super' reference")
	}
	superValue, err := env.GetAt(distance, "super")
	if err != nil {
		return nil, runtime.NewError(e.Keyword.Line, "%s", err.Error())
	}
	superclass, ok := superValue.(*runtime.ClassValue)
	if !ok {
		return nil, runtime.NewError(e.Keyword.Line, "'super' is not a class")
	}
	thisValue, err := env.GetAt(distance-1, "this")
	if err != nil {
		return nil, runtime.NewError(e.Keyword.Line, "%s", err.Error())
	}
	instance, ok := thisValue.(*runtime.InstanceValue)
	if !ok {
		return nil, runtime.NewError(e.Keyword.Line, "'this' is not an instance")
	}
	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, runtime.NewError(e.Method.Line, "undefined property '%s'", e.Method.Lexeme)
	}
	return method.Bind(instance), nil
}

func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	if distance, ok := i.locals[expr]; ok {
		value, err := env.GetAt(distance, name.Lexeme)
		if err != nil {
			return nil, runtime.NewError(name.Line, "%s", err.Error())
		}
		return value, nil
	}
	value, err := i.globals.Get(name.Lexeme)
	if err != nil {
		return nil, runtime.NewError(name.Line, "%s", err.Error())
	}
	return value, nil
}

func numberOperands(op token.Token, left, right runtime.Value) (float64, float64, error) {
	l, lok := left.(runtime.NumberValue)
	r, rok := right.(runtime.NumberValue)
	if !lok || !rok {
		return 0, 0, runtime.NewError(op.Line, "operands must be numbers")
	}
	return l.Val, r.Val, nil
}

// isTruthy: nil and false are falsy, everything else (including 0 and the
// empty string) is truthy.
func isTruthy(value runtime.Value) bool {
	switch v := value.(type) {
	case runtime.NilValue:
		return false
	case runtime.BoolValue:
		return v.Val
	default:
		return true
	}
}

// isEqual compares by value within a kind and is always false across kinds.
func isEqual(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.NilValue:
		_, ok := b.(runtime.NilValue)
		return ok
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	case runtime.NumberValue:
		bv, ok := b.(runtime.NumberValue)
		return ok && av.Val == bv.Val
	case runtime.StringValue:
		bv, ok := b.(runtime.StringValue)
		return ok && av.Val == bv.Val
	default:
		// Reference identity for functions, classes, and instances.
		return a == b
	}
}

// floatMod keeps the sign of the divisor, matching the original semantics.
func floatMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
