package interpreter

import (
	"strings"
	"testing"

	"github.com/jmahotiedu/rift/pkg/lexer"
	"github.com/jmahotiedu/rift/pkg/parser"
	"github.com/jmahotiedu/rift/pkg/resolver"
)

// runProgram pushes source through the full pipeline on a fresh interpreter
// and returns whatever print() wrote plus the runtime error, if any. Static
// errors fail the test: these programs are meant to reach execution.
func runProgram(t *testing.T, source string) (string, error) {
	t.Helper()
	return runProgramWithInput(t, source, "")
}

func runProgramWithInput(t *testing.T, source, input string) (string, error) {
	t.Helper()
	l := lexer.New(source)
	tokens := l.ScanTokens()
	if errs := l.Errors(); len(errs) > 0 {
		t.Fatalf("scan errors: %v", errs)
	}
	p := parser.New(tokens)
	statements := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	locals, resolveErrs := resolver.Resolve(statements)
	if len(resolveErrs) > 0 {
		t.Fatalf("resolve errors: %v", resolveErrs)
	}

	var out strings.Builder
	interp := NewWithIO(&out, strings.NewReader(input))
	err := interp.Run(statements, locals)
	return out.String(), err
}

func expectOutput(t *testing.T, source, want string) {
	t.Helper()
	got, err := runProgram(t, source)
	if err != nil {
		t.Fatalf("runtime error: %v\noutput so far:\n%s", err, got)
	}
	if got != want {
		t.Fatalf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func expectRuntimeError(t *testing.T, source, fragment string) {
	t.Helper()
	_, err := runProgram(t, source)
	if err == nil {
		t.Fatalf("expected runtime error containing %q, got none", fragment)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("error %q does not contain %q", err.Error(), fragment)
	}
}

//-----------------------------------------------------------------------------
// Literals, printing, arithmetic
//-----------------------------------------------------------------------------

func TestPrintFormatting(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"integral number drops fraction", "print(3);", "3\n"},
		{"fractional number", "print(3.14);", "3.14\n"},
		{"negative number", "print(-2.5);", "-2.5\n"},
		{"string prints raw", `print("hi");`, "hi\n"},
		{"true", "print(true);", "true\n"},
		{"false", "print(false);", "false\n"},
		{"nil", "print(nil);", "nil\n"},
		{"division result", "print(7 / 2);", "3.5\n"},
		{"ten million stays positional", "print(10000000);", "10000000\n"},
		{"nine digit integral stays positional", "print(123456789);", "123456789\n"},
		{"small fraction stays positional", "print(0.0001);", "0.0001\n"},
		{"tiny fraction uses exponent form", "print(0.00001);", "1e-05\n"},
		{"huge magnitude uses exponent form", "print(100000000 * 100000000);", "1e+16\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectOutput(t, tc.source, tc.want)
		})
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"precedence", "print(1 + 2 * 3);", "7\n"},
		{"grouping", "print((1 + 2) * 3);", "9\n"},
		{"unary minus", "print(-(1 + 2));", "-3\n"},
		{"double negation", "print(--3);", "3\n"},
		{"modulo", "print(10 % 3);", "1\n"},
		{"modulo negative dividend", "print(-10 % 3);", "2\n"},
		{"modulo negative divisor", "print(10 % -3);", "-2\n"},
		{"string concat", `print("foo" + "bar");`, "foobar\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectOutput(t, tc.source, tc.want)
		})
	}
}

func TestArithmeticTypeErrors(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		fragment string
	}{
		{"number plus string", `print(1 + "a");`, "two numbers or two strings"},
		{"string minus string", `print("a" - "b");`, "operands must be numbers"},
		{"negate string", `print(-"a");`, "operand must be a number"},
		{"compare string to number", `print("a" < 1);`, "operands must be numbers"},
		{"division by zero", "print(1 / 0);", "division by zero"},
		{"modulo by zero", "print(1 % 0);", "modulo by zero"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectRuntimeError(t, tc.source, tc.fragment)
		})
	}
}

func TestEquality(t *testing.T) {
	expectOutput(t, `
print(1 == 1);
print(1 == 2);
print("a" == "a");
print(nil == nil);
print(1 == "1");
print(true == 1);
print(nil == false);
print(1 != "1");
`, "true\nfalse\ntrue\ntrue\nfalse\nfalse\nfalse\ntrue\n")
}

func TestTruthiness(t *testing.T) {
	expectOutput(t, `
if (0) { print("zero is truthy"); }
if ("") { print("empty string is truthy"); }
if (nil) { print("bad"); } else { print("nil is falsy"); }
if (false) { print("bad"); } else { print("false is falsy"); }
print(!nil);
print(!0);
`, "zero is truthy\nempty string is truthy\nnil is falsy\nfalse is falsy\ntrue\nfalse\n")
}

func TestLogicalOperatorsReturnOperands(t *testing.T) {
	expectOutput(t, `
print(nil or "fallback");
print("first" or "second");
print(nil and "never");
print(1 and "second");
print(false or false);
`, "fallback\nfirst\nnil\nsecond\nfalse\n")
}

func TestLogicalShortCircuitSkipsSideEffects(t *testing.T) {
	expectOutput(t, `
fn boom() { print("evaluated"); return true; }
let a = false and boom();
let b = true or boom();
print(a);
print(b);
`, "false\ntrue\n")
}

//-----------------------------------------------------------------------------
// Variables & scope
//-----------------------------------------------------------------------------

func TestVariableDeclarationAndAssignment(t *testing.T) {
	expectOutput(t, `
let x = 1;
print(x);
x = 2;
print(x);
let y;
print(y);
print(y = 5);
`, "1\n2\nnil\n5\n")
}

func TestGlobalRedefinition(t *testing.T) {
	expectOutput(t, "let a = 1; let a = 2; print(a);", "2\n")
}

func TestAssignToUndeclared(t *testing.T) {
	expectRuntimeError(t, "x = 1;", "undefined variable")
}

func TestReadUndefined(t *testing.T) {
	expectRuntimeError(t, "print(missing);", "undefined variable")
}

func TestBlockScoping(t *testing.T) {
	expectOutput(t, `
let a = "outer";
{
	let a = "inner";
	print(a);
}
print(a);
`, "inner\nouter\n")
}

func TestInnerScopeMutatesOuter(t *testing.T) {
	expectOutput(t, `
let a = 1;
{
	a = 2;
}
print(a);
`, "2\n")
}

func TestBlockBindingsDoNotLeak(t *testing.T) {
	expectRuntimeError(t, `
{
	let hidden = 1;
}
print(hidden);
`, "undefined variable")
}

//-----------------------------------------------------------------------------
// Control flow
//-----------------------------------------------------------------------------

func TestIfElseChain(t *testing.T) {
	expectOutput(t, `
let n = 7;
if (n < 5) { print("small"); }
else if (n < 10) { print("medium"); }
else { print("large"); }
`, "medium\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
let i = 0;
let sum = 0;
while (i < 5) {
	sum = sum + i;
	i = i + 1;
}
print(sum);
`, "10\n")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, `
let sum = 0;
for (let i = 1; i <= 4; i = i + 1) {
	sum = sum + i;
}
print(sum);
`, "10\n")
}

func TestForLoopWithoutDeclaration(t *testing.T) {
	expectOutput(t, `
let i = 10;
for (i = 0; i < 3; i = i + 1) {
	print(i);
}
print(i);
`, "0\n1\n2\n3\n")
}

func TestForLoopVariableScopedToLoop(t *testing.T) {
	expectRuntimeError(t, `
for (let i = 0; i < 1; i = i + 1) {}
print(i);
`, "undefined variable")
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

func TestFunctionCallAndReturn(t *testing.T) {
	expectOutput(t, `
fn add(a, b) { return a + b; }
print(add(2, 3));
`, "5\n")
}

func TestFunctionWithoutReturnYieldsNil(t *testing.T) {
	expectOutput(t, `
fn noop() {}
print(noop());
`, "nil\n")
}

func TestReturnUnwindsNestedBlocksAndLoops(t *testing.T) {
	expectOutput(t, `
fn firstOverTen(start) {
	let n = start;
	while (true) {
		if (n > 10) {
			return n;
		}
		n = n + 3;
	}
}
print(firstOverTen(2));
`, "11\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
fn fib(n) {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
print(fib(10));
`, "55\n")
}

func TestClosureCapturesDefiningFrame(t *testing.T) {
	expectOutput(t, `
fn makeCounter() {
	let count = 0;
	fn tick() {
		count = count + 1;
		return count;
	}
	return tick;
}
let a = makeCounter();
let b = makeCounter();
print(a());
print(a());
print(b());
`, "1\n2\n1\n")
}

func TestClosureSeesLaterGlobal(t *testing.T) {
	expectOutput(t, `
fn show() { print(announced); }
let announced = "here";
show();
`, "here\n")
}

func TestForLoopClosuresCapturePerIteration(t *testing.T) {
	expectOutput(t, `
let first;
let second;
let third;
for (let i = 0; i < 3; i = i + 1) {
	fn capture() { return i; }
	if (i == 0) { first = capture; }
	if (i == 1) { second = capture; }
	if (i == 2) { third = capture; }
}
print(first());
print(second());
print(third());
`, "0\n1\n2\n")
}

func TestWhileLoopClosuresShareOneBinding(t *testing.T) {
	// Unlike for, a while loop declares its variable once outside the loop,
	// so every closure sees the final value.
	expectOutput(t, `
let first;
let second;
let i = 0;
while (i < 2) {
	fn capture() { return i; }
	if (i == 0) { first = capture; }
	if (i == 1) { second = capture; }
	i = i + 1;
}
print(first());
print(second());
`, "2\n2\n")
}

func TestArityMismatch(t *testing.T) {
	expectRuntimeError(t, `
fn pair(a, b) { return a; }
pair(1);
`, "expected 2 arguments but got 1")
}

func TestCallingNonCallable(t *testing.T) {
	expectRuntimeError(t, `"hello"();`, "can only call functions and classes")
	expectRuntimeError(t, "let x = 4; x();", "can only call functions and classes")
}

func TestUnboundedRecursionReportsStackOverflow(t *testing.T) {
	expectRuntimeError(t, `
fn loop() { return loop(); }
loop();
`, "stack overflow")
}

func TestFunctionsAreFirstClass(t *testing.T) {
	expectOutput(t, `
fn twice(f, x) { return f(f(x)); }
fn inc(n) { return n + 1; }
print(twice(inc, 5));
`, "7\n")
}

//-----------------------------------------------------------------------------
// Classes
//-----------------------------------------------------------------------------

func TestClassInstantiationAndFields(t *testing.T) {
	expectOutput(t, `
class Box {}
let b = Box();
b.value = 42;
print(b.value);
print(b);
print(Box);
`, "42\n<Box instance>\n<class Box>\n")
}

func TestInitializerRunsOnInstantiation(t *testing.T) {
	expectOutput(t, `
class Point {
	init(x, y) {
		this.x = x;
		this.y = y;
	}
}
let p = Point(3, 4);
print(p.x + p.y);
`, "7\n")
}

func TestMethodsSeeThis(t *testing.T) {
	expectOutput(t, `
class Greeter {
	init(name) { this.name = name; }
	greet() { return "hi " + this.name; }
}
print(Greeter("ada").greet());
`, "hi ada\n")
}

func TestBoundMethodKeepsReceiver(t *testing.T) {
	expectOutput(t, `
class Cell {
	init(v) { this.v = v; }
	read() { return this.v; }
}
let cell = Cell(9);
let reader = cell.read;
print(reader());
`, "9\n")
}

func TestFieldShadowsMethod(t *testing.T) {
	expectOutput(t, `
class Thing {
	label() { return "method"; }
}
let thing = Thing();
print(thing.label());
thing.label = "field";
print(thing.label);
`, "method\nfield\n")
}

func TestEarlyReturnFromInitStillYieldsInstance(t *testing.T) {
	expectOutput(t, `
class Guard {
	init(ok) {
		if (!ok) { return; }
		this.checked = true;
	}
}
print(type(Guard(false)));
print(Guard(true).checked);
`, "Guard\ntrue\n")
}

func TestUndefinedProperty(t *testing.T) {
	expectRuntimeError(t, `
class Empty {}
Empty().nothing;
`, "undefined property 'nothing'")
}

func TestPropertyAccessOnNonInstance(t *testing.T) {
	expectRuntimeError(t, "let x = 1; x.field;", "only instances have properties")
	expectRuntimeError(t, `"s".field = 1;`, "only instances have fields")
}

func TestClassArityFollowsInit(t *testing.T) {
	expectRuntimeError(t, `
class Pair { init(a, b) {} }
Pair(1);
`, "expected 2 arguments but got 1")
}

//-----------------------------------------------------------------------------
// Inheritance
//-----------------------------------------------------------------------------

func TestMethodInheritance(t *testing.T) {
	expectOutput(t, `
class Animal {
	speak() { return "..."; }
	describe() { return "I say " + this.speak(); }
}
class Dog < Animal {
	speak() { return "woof"; }
}
print(Dog().describe());
print(Animal().describe());
`, "I say woof\nI say ...\n")
}

func TestInheritedInitializer(t *testing.T) {
	expectOutput(t, `
class Named {
	init(name) { this.name = name; }
}
class Pet < Named {}
print(Pet("rex").name);
`, "rex\n")
}

func TestSuperCallsOverriddenMethod(t *testing.T) {
	expectOutput(t, `
class Base {
	greet() { return "base"; }
}
class Derived < Base {
	greet() { return super.greet() + "+derived"; }
}
print(Derived().greet());
`, "base+derived\n")
}

func TestSuperBindsCurrentReceiver(t *testing.T) {
	// super starts the method search above the declaring class, but `this`
	// inside the found method is still the original receiver.
	expectOutput(t, `
class A {
	name() { return "A"; }
	who() { return this.name(); }
}
class B < A {
	name() { return "B"; }
	who() { return super.who(); }
}
print(B().who());
`, "B\n")
}

func TestSuperSkipsOwnClassEvenOnGrandchild(t *testing.T) {
	expectOutput(t, `
class A { m() { return "A"; } }
class B < A { m() { return "B via " + super.m(); } }
class C < B {}
print(C().m());
`, "B via A\n")
}

func TestSuperclassMustBeClass(t *testing.T) {
	expectRuntimeError(t, `
let NotAClass = 1;
class Sub < NotAClass {}
`, "superclass must be a class")
}

func TestSuperclassResolvedAtDeclaration(t *testing.T) {
	expectOutput(t, `
class A { m() { return "first"; } }
class B < A {}
class A { m() { return "second"; } }
print(B().m());
`, "first\n")
}

//-----------------------------------------------------------------------------
// Natives
//-----------------------------------------------------------------------------

func TestNativeLen(t *testing.T) {
	expectOutput(t, `print(len("hello"));`, "5\n")
	expectOutput(t, `print(len(""));`, "0\n")
	expectRuntimeError(t, "len(5);", "len() argument must be a string")
	expectRuntimeError(t, `len("a", "b");`, "expected 1 arguments but got 2")
}

func TestNativeStr(t *testing.T) {
	expectOutput(t, `
print(str(12) + "!");
print(str(10000000));
print(str(nil));
print(str(true));
`, "12!\n10000000\nnil\ntrue\n")
}

func TestNativeNum(t *testing.T) {
	expectOutput(t, `
print(num("3.5") + 1);
print(num(" 42 "));
`, "4.5\n42\n")
	expectRuntimeError(t, `num("abc");`, "cannot convert")
	expectRuntimeError(t, "num(1);", "num() argument must be a string")
}

func TestNativeType(t *testing.T) {
	// Every callable answers "function", classes included; only instances
	// report their class name.
	expectOutput(t, `
print(type(nil));
print(type(true));
print(type(1));
print(type("s"));
fn f() {}
print(type(f));
class C {}
print(type(C));
print(type(C()));
print(type(clock));
`, "nil\nbool\nnumber\nstring\nfunction\nfunction\nC\nfunction\n")
}

func TestNativeClock(t *testing.T) {
	expectOutput(t, "print(clock() > 0);", "true\n")
}

func TestNativeInput(t *testing.T) {
	got, err := runProgramWithInput(t, `
let name = input("who? ");
print("hello " + name);
`, "world\n")
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	want := "who? hello world\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNativesArePrintable(t *testing.T) {
	expectOutput(t, "print(clock);", "<native fn clock>\n")
	expectOutput(t, "fn f() {} print(f);", "<fn f>\n")
}

//-----------------------------------------------------------------------------
// Error reporting & aborts
//-----------------------------------------------------------------------------

func TestRuntimeErrorCarriesLine(t *testing.T) {
	_, err := runProgram(t, "let a = 1;\nlet b = 2;\nprint(a - \"x\");")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !strings.Contains(err.Error(), "[line 3]") {
		t.Fatalf("error %q should name line 3", err.Error())
	}
}

func TestExecutionStopsAtFirstRuntimeError(t *testing.T) {
	got, err := runProgram(t, `
print("before");
missing();
print("after");
`)
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if got != "before\n" {
		t.Fatalf("output = %q, statements after the fault must not run", got)
	}
}

func TestSideEffectsBeforeFaultPersist(t *testing.T) {
	expectOutput(t, `
let log = "";
fn record(part) {
	log = log + part;
	return true;
}
record("a");
record("b");
print(log);
`, "ab\n")
}
