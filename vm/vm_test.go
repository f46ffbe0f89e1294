package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/compiler"
	"github.com/emberlang/ember/lexer"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/parser"
)

type vmTestCase struct {
	input    string
	expected any
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []vmTestCase{
		{"1", 1},
		{"2", 2},
		{"1 + 2", 3},
		{"1 - 2", -1},
		{"1 * 2", 2},
		{"4 / 2", 2},
		{"50 / 2 * 2 + 10 - 5", 55},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"5 * (2 + 10)", 60},
		{"-5", -5},
		{"-10", -10},
		{"-50 + 100 + -50", 0},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
	}

	runVMTests(t, tests)
}

func TestBooleanExpressions(t *testing.T) {
	tests := []vmTestCase{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"1 < 1", false},
		{"1 > 1", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"1 == 2", false},
		{"1 != 2", true},
		{"true == true", true},
		{"false == false", true},
		{"true == false", false},
		{"(1 < 2) == true", true},
		{"(1 < 2) == false", false},
		{"!true", false},
		{"!false", true},
		{"!5", false},
		{"!!true", true},
		{"!!false", false},
		{"!!5", true},
	}

	runVMTests(t, tests)
}

func TestConditionals(t *testing.T) {
	tests := []vmTestCase{
		{"if (true) { 10 }", 10},
		{"if (true) { 10 } else { 20 }", 10},
		{"if (false) { 10 } else { 20 }", 20},
		{"if (1) { 10 }", 10},
		{"if (1 < 2) { 10 }", 10},
		{"if (1 < 2) { 10 } else { 20 }", 10},
		{"if (1 > 2) { 10 } else { 20 }", 20},
		{"if (1 > 2) { 10 }", object.NULL},
		{"if (false) { 10 }", object.NULL},
		{"if ((if (false) { 10 })) { 10 } else { 20 }", 20},
	}

	runVMTests(t, tests)
}

func TestGlobalLetStatements(t *testing.T) {
	tests := []vmTestCase{
		{"let one = 1; one", 1},
		{"let one = 1; let two = 2; one + two", 3},
		{"let one = 1; let two = one + one; one + two", 3},
	}

	runVMTests(t, tests)
}

func TestStringExpressions(t *testing.T) {
	tests := []vmTestCase{
		{`"monkey"`, "monkey"},
		{`"mon" + "key"`, "monkey"},
		{`"mon" + "key" + "banana"`, "monkeybanana"},
		{`"a" == "a"`, true},
		{`"a" == "b"`, false},
		{`"a" != "a"`, false},
		{`"a" != "b"`, true},
		{`("mon" + "key") == "monkey"`, true},
	}

	runVMTests(t, tests)
}

func TestArrayLiterals(t *testing.T) {
	tests := []vmTestCase{
		{"[]", []int{}},
		{"[1, 2, 3]", []int{1, 2, 3}},
		{"[1 + 2, 3 * 4, 5 + 6]", []int{3, 12, 11}},
	}

	runVMTests(t, tests)
}

func TestHashLiterals(t *testing.T) {
	tests := []vmTestCase{
		{
			"{}", map[object.HashKey]int64{},
		},
		{
			"{1: 2, 2: 3}",
			map[object.HashKey]int64{
				(&object.Integer{Value: 1}).HashKey(): 2,
				(&object.Integer{Value: 2}).HashKey(): 3,
			},
		},
	}

	runVMTests(t, tests)
}

func TestIndexExpressions(t *testing.T) {
	tests := []vmTestCase{
		{"[1, 2, 3][1]", 2},
		{"[1, 2, 3][0 + 2]", 3},
		{"[[1, 1, 1]][0][0]", 1},
		{"[][0]", object.NULL},
		{"[1, 2, 3][99]", object.NULL},
		{"[1][-1]", object.NULL},
		{"{1: 1, 2: 2}[1]", 1},
		{"{1: 1, 2: 2}[2]", 2},
		{"{1: 1}[0]", object.NULL},
		{"{}[0]", object.NULL},
	}

	runVMTests(t, tests)
}

func TestCallingFunctions(t *testing.T) {
	tests := []vmTestCase{
		{
			input:    `let fivePlusTen = fn() { 5 + 10; }; fivePlusTen();`,
			expected: 15,
		},
		{
			input:    `let one = fn() { 1; }; let two = fn() { 2; }; one() + two()`,
			expected: 3,
		},
		{
			input:    `let earlyExit = fn() { return 99; 100; }; earlyExit();`,
			expected: 99,
		},
		{
			input:    `let noReturn = fn() { }; noReturn();`,
			expected: object.NULL,
		},
		{
			input:    `let identity = fn(a) { a; }; identity(4);`,
			expected: 4,
		},
		{
			input:    `let sum = fn(a, b) { a + b; }; sum(1, 2);`,
			expected: 3,
		},
		{
			input: `
			let sum = fn(a, b) {
				let c = a + b;
				c;
			};
			sum(1, 2) + sum(3, 4);`,
			expected: 10,
		},
	}

	runVMTests(t, tests)
}

func TestBuiltinFunctions(t *testing.T) {
	tests := []vmTestCase{
		{`len("")`, 0},
		{`len("four")`, 4},
		{`len([1, 2, 3])`, 3},
		{`len([])`, 0},
		{`first([1, 2, 3])`, 1},
		{`first([])`, object.NULL},
		{`last([1, 2, 3])`, 3},
		{`last([])`, object.NULL},
		{`rest([1, 2, 3])`, []int{2, 3}},
		{`rest([])`, object.NULL},
		{`push([1, 2], 3)`, []int{1, 2, 3}},
	}

	runVMTests(t, tests)
}

func TestFunctionCallWithWrongArguments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`fn() { 1; }(1);`, "wrong number of arguments: want=0, got=1"},
		{`fn(a) { a; }();`, "wrong number of arguments: want=1, got=0"},
		{`fn(a, b) { a + b; }(1);`, "wrong number of arguments: want=2, got=1"},
	}

	for _, tt := range tests {
		program := parse(tt.input)

		comp := compiler.New()
		err := comp.Compile(program)
		require.NoError(t, err)

		machine := New(comp.Bytecode())
		err = machine.Run()
		require.Error(t, err)
		require.Equal(t, tt.expected, err.Error())
	}
}

func runVMTests(t *testing.T, tests []vmTestCase) {
	t.Helper()

	for _, tt := range tests {
		program := parse(tt.input)

		comp := compiler.New()
		err := comp.Compile(program)
		require.NoError(t, err)

		machine := New(comp.Bytecode())
		err = machine.Run()
		require.NoError(t, err)

		stackElem := machine.LastPoppedStackItem()
		testExpectedObject(t, tt.expected, stackElem)
	}
}

func parse(input string) *ast.Program {
	l := lexer.New(input)
	p := parser.New(l)
	return p.ParseProgram()
}

func testExpectedObject(t *testing.T, expected any, actual object.Object) {
	t.Helper()

	switch expected := expected.(type) {
	case int:
		require.NoError(t, testIntegerObject(int64(expected), actual))
	case bool:
		require.NoError(t, testBooleanObject(expected, actual))
	case string:
		require.NoError(t, testStringObject(expected, actual))
	case []int:
		array, ok := actual.(*object.Array)
		require.True(t, ok, "object is not Array: %T (%+v)", actual, actual)
		require.Len(t, array.Elements, len(expected))
		for i, el := range expected {
			require.NoError(t, testIntegerObject(int64(el), array.Elements[i]))
		}
	case map[object.HashKey]int64:
		hash, ok := actual.(*object.Hash)
		require.True(t, ok, "object is not Hash: %T (%+v)", actual, actual)
		require.Len(t, hash.Pairs, len(expected))
		for expectedKey, expectedValue := range expected {
			pair, ok := hash.Pairs[expectedKey]
			require.True(t, ok, "no pair for given key in Pairs")
			require.NoError(t, testIntegerObject(expectedValue, pair.Value))
		}
	case *object.Null:
		require.Equal(t, object.NULL, actual)
	default:
		t.Fatalf("unexpected expected type: %T", expected)
	}
}

func testIntegerObject(expected int64, actual object.Object) error {
	result, ok := actual.(*object.Integer)
	if !ok {
		return fmt.Errorf("object is not Integer. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%d, want=%d", result.Value, expected)
	}
	return nil
}

func testBooleanObject(expected bool, actual object.Object) error {
	result, ok := actual.(*object.Boolean)
	if !ok {
		return fmt.Errorf("object is not Boolean. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
	}
	return nil
}

func testStringObject(expected string, actual object.Object) error {
	result, ok := actual.(*object.String)
	if !ok {
		return fmt.Errorf("object is not String. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%q, want=%q", result.Value, expected)
	}
	return nil
}
