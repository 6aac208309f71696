// Package runtime implements the interpreter and runtime value system for xorlang.
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mr-Ali-Jafari/xorlang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// IntVal represents an integer value.
type IntVal int64

func (v IntVal) TypeName() string { return "int" }
func (v IntVal) String() string   { return fmt.Sprintf("%d", int64(v)) }

// FloatVal represents a floating-point value.
type FloatVal float64

func (v FloatVal) TypeName() string { return "float" }
func (v FloatVal) String() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	// Whole floats keep a trailing .0 so they stay distinguishable from ints.
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return fmt.Sprintf("%t", bool(v)) }

// NullVal represents null.
type NullVal struct{}

func (v NullVal) TypeName() string { return "null" }
func (v NullVal) String() string   { return "null" }

// ---- Callable values ----

// FuncVal represents a user-defined function (closure).
type FuncVal struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure *Environment
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string {
	if v.Name == "" {
		return "<function>"
	}
	return fmt.Sprintf("<function %s>", v.Name)
}

// NativeFn is the Go signature for native functions. Arity checking is the
// native's own responsibility.
type NativeFn func(args []Value) (Value, error)

// NativeVal represents a host-registered native function. When NeedsThis is
// set the value is a method template: member access mints a copy with Recv
// bound, and calling prepends the receiver to the argument list.
type NativeVal struct {
	Name      string
	Fn        NativeFn
	NeedsThis bool
	Recv      Value // bound receiver, nil until bound
}

func (v *NativeVal) TypeName() string { return "native" }
func (v *NativeVal) String() string   { return fmt.Sprintf("<native %s>", v.Name) }

// bind returns a fresh copy with the receiver bound. A new value is minted
// per access so bindings never leak between receivers.
func (v *NativeVal) bind(recv Value) *NativeVal {
	return &NativeVal{Name: v.Name, Fn: v.Fn, NeedsThis: v.NeedsThis, Recv: recv}
}

// ---- OOP values ----

// ClassVal represents a class. Members is a snapshot of the class body
// environment taken at definition time. Built-in classes set Construct to
// produce the instance directly instead of the field-map path.
type ClassVal struct {
	Name      string
	Members   map[string]Value
	Construct func(args []Value) (Value, error)
}

func (v *ClassVal) TypeName() string { return "class" }
func (v *ClassVal) String() string   { return fmt.Sprintf("<class %s>", v.Name) }

// InstanceVal represents an instance of a class.
type InstanceVal struct {
	Class  *ClassVal
	Fields map[string]Value
}

func (v *InstanceVal) TypeName() string { return v.Class.Name }
func (v *InstanceVal) String() string   { return fmt.Sprintf("<%s instance>", v.Class.Name) }

// ---- Array value ----

// ArrayVal represents an array created through the built-in Array class.
type ArrayVal struct {
	Elements []Value
}

func (v *ArrayVal) TypeName() string { return "Array" }
func (v *ArrayVal) String() string {
	parts := make([]string, len(v.Elements))
	for i, elem := range v.Elements {
		if s, ok := elem.(StringVal); ok {
			parts[i] = fmt.Sprintf("\"%s\"", string(s))
		} else {
			parts[i] = elem.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- Module value ----

// ModuleVal is the namespace produced by the module loader. Member access
// reads the module environment's own names only.
type ModuleVal struct {
	Name string
	Env  *Environment
}

func (v *ModuleVal) TypeName() string { return "module" }
func (v *ModuleVal) String() string   { return fmt.Sprintf("<module %s>", v.Name) }

// ---- Truthiness ----

// IsTruthy returns the truthiness of a value. false, null, zero, the empty
// string, and the empty array are falsy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NullVal:
		return false
	case BoolVal:
		return bool(val)
	case IntVal:
		return int64(val) != 0
	case FloatVal:
		return float64(val) != 0
	case StringVal:
		return string(val) != ""
	case *ArrayVal:
		return len(val.Elements) != 0
	default:
		return true
	}
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// ToFloat64 attempts to convert a numeric value to float64.
func ToFloat64(v Value) (float64, bool) {
	switch val := v.(type) {
	case IntVal:
		return float64(int64(val)), true
	case FloatVal:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 attempts to convert a value to int64.
func ToInt64(v Value) (int64, bool) {
	switch val := v.(type) {
	case IntVal:
		return int64(val), true
	case FloatVal:
		return int64(float64(val)), true
	default:
		return 0, false
	}
}
