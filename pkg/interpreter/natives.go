package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jmahotiedu/rift/pkg/runtime"
)

// registerNatives installs the small standard library into the global frame
// before any statement executes. Natives are opaque callables with a fixed
// arity; a native's error is surfaced as a runtime error at the call site.
func registerNatives(globals *runtime.Environment, stdin io.Reader, stdout io.Writer) {
	reader := bufio.NewReader(stdin)

	define := func(name string, arity int, impl runtime.NativeFunc) {
		globals.Define(name, &runtime.NativeFunctionValue{Name: name, NumArgs: arity, Impl: impl})
	}

	define("clock", 0, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.NumberValue{Val: float64(time.Now().UnixNano()) / float64(time.Second)}, nil
	})

	define("len", 1, func(args []runtime.Value) (runtime.Value, error) {
		str, ok := args[0].(runtime.StringValue)
		if !ok {
			return nil, fmt.Errorf("len() argument must be a string")
		}
		return runtime.NumberValue{Val: float64(len([]rune(str.Val)))}, nil
	})

	define("str", 1, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: Stringify(args[0])}, nil
	})

	define("num", 1, func(args []runtime.Value) (runtime.Value, error) {
		str, ok := args[0].(runtime.StringValue)
		if !ok {
			return nil, fmt.Errorf("num() argument must be a string")
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str.Val), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to a number", str.Val)
		}
		return runtime.NumberValue{Val: parsed}, nil
	})

	define("input", 1, func(args []runtime.Value) (runtime.Value, error) {
		if _, err := io.WriteString(stdout, Stringify(args[0])); err != nil {
			return nil, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("input: %v", err)
		}
		return runtime.StringValue{Val: strings.TrimRight(line, "\r\n")}, nil
	})

	define("type", 1, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: typeName(args[0])}, nil
	})
}

func typeName(value runtime.Value) string {
	switch v := value.(type) {
	case runtime.NilValue:
		return "nil"
	case runtime.BoolValue:
		return "bool"
	case runtime.NumberValue:
		return "number"
	case runtime.StringValue:
		return "string"
	case *runtime.InstanceValue:
		return v.Class.Name
	default:
		// Classes answer as functions, like every other callable.
		return "function"
	}
}
