package interpreter

import (
	"math"
	"strconv"

	"github.com/jmahotiedu/rift/pkg/runtime"
)

// Stringify renders a value the way `print` and `str` show it: numbers print
// positionally with no trailing .0, booleans are true/false, nil is nil, and
// an instance is "<ClassName instance>".
func Stringify(value runtime.Value) string {
	switch v := value.(type) {
	case nil, runtime.NilValue:
		return "nil"
	case runtime.BoolValue:
		if v.Val {
			return "true"
		}
		return "false"
	case runtime.NumberValue:
		return formatNumber(v.Val)
	case runtime.StringValue:
		return v.Val
	case *runtime.FunctionValue:
		return v.String()
	case *runtime.BoundMethodValue:
		return v.String()
	case *runtime.NativeFunctionValue:
		return v.String()
	case *runtime.ClassValue:
		return v.String()
	case *runtime.InstanceValue:
		return v.String()
	}
	return "nil"
}

// formatNumber keeps positional form across the whole integral range; the
// exponent form only appears at magnitudes >= 1e16 or below 1e-4, the same
// thresholds the original runtime used.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
