package runtime

import (
	"fmt"

	"github.com/jmahotiedu/rift/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunction
	KindBoundMethod
	KindNativeFunction
	KindClass
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindBoundMethod:
		return "bound_method"
	case KindNativeFunction:
		return "native_function"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

// Callable is satisfied by every value that may appear as a call target.
type Callable interface {
	Value
	Arity() int
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }

// NumberValue is a double-precision float, the only numeric type.
type NumberValue struct {
	Val float64
}

func (NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// FunctionValue pairs a function declaration with the environment frame that
// was active at its definition site. IsInitializer marks `init` methods,
// which always yield the instance.
type FunctionValue struct {
	Declaration   *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (*FunctionValue) Kind() Kind { return KindFunction }

func (f *FunctionValue) Arity() int { return len(f.Declaration.Params) }

func (f *FunctionValue) String() string {
	return fmt.Sprintf("<fn %s>", f.Declaration.Name.Lexeme)
}

// Bind derives a fresh function whose closure holds `this`. A new frame is
// created per access so each binding is independent.
func (f *FunctionValue) Bind(instance *InstanceValue) *BoundMethodValue {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &BoundMethodValue{
		Receiver: instance,
		Method:   &FunctionValue{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer},
	}
}

// BoundMethodValue is a method paired with its receiver. The underlying
// Method closure already carries the `this` binding.
type BoundMethodValue struct {
	Receiver *InstanceValue
	Method   *FunctionValue
}

func (*BoundMethodValue) Kind() Kind { return KindBoundMethod }

func (b *BoundMethodValue) Arity() int { return b.Method.Arity() }

func (b *BoundMethodValue) String() string { return b.Method.String() }

// NativeFunc is a host-provided implementation registered into the global
// frame before execution.
type NativeFunc func(args []Value) (Value, error)

type NativeFunctionValue struct {
	Name    string
	NumArgs int
	Impl    NativeFunc
}

func (*NativeFunctionValue) Kind() Kind { return KindNativeFunction }

func (n *NativeFunctionValue) Arity() int { return n.NumArgs }

func (n *NativeFunctionValue) String() string {
	return fmt.Sprintf("<native fn %s>", n.Name)
}

//-----------------------------------------------------------------------------
// Classes & instances
//-----------------------------------------------------------------------------

// ClassValue holds the method table and an optional superclass. The
// superclass chain is acyclic; the resolver rejects self-inheritance before
// a ClassValue is ever constructed.
type ClassValue struct {
	Name       string
	Superclass *ClassValue
	Methods    map[string]*FunctionValue
}

func (*ClassValue) Kind() Kind { return KindClass }

// Arity of a class as a callee is the arity of its initializer, or zero.
func (c *ClassValue) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// FindMethod searches the method table and then the superclass chain,
// nearest class first.
func (c *ClassValue) FindMethod(name string) *FunctionValue {
	if method, ok := c.Methods[name]; ok {
		return method
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil
}

func (c *ClassValue) String() string {
	return fmt.Sprintf("<class %s>", c.Name)
}

// InstanceValue references its class (shared with every other instance of
// that class) and owns a mutable field map. Fields are created on first
// assignment, never declared.
type InstanceValue struct {
	Class  *ClassValue
	Fields map[string]Value
}

func NewInstance(class *ClassValue) *InstanceValue {
	return &InstanceValue{
		Class:  class,
		Fields: make(map[string]Value),
	}
}

func (*InstanceValue) Kind() Kind { return KindInstance }

// GetProperty checks instance fields first, then binds a method found on the
// class chain. Returns false when the property does not exist anywhere.
func (inst *InstanceValue) GetProperty(name string) (Value, bool) {
	if field, ok := inst.Fields[name]; ok {
		return field, true
	}
	if method := inst.Class.FindMethod(name); method != nil {
		return method.Bind(inst), true
	}
	return nil, false
}

// SetField writes directly into the field map.
func (inst *InstanceValue) SetField(name string, value Value) {
	inst.Fields[name] = value
}

func (inst *InstanceValue) String() string {
	return fmt.Sprintf("<%s instance>", inst.Class.Name)
}
