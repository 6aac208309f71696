package runtime

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
)

// RegisterCoreNatives installs the portable native set into the given
// environment: output, string helpers, conversions, the math family, and
// the built-in Array class. Natives that touch the OS or network are the
// host's business and registered by the embedding program.
func RegisterCoreNatives(env *Environment, w io.Writer) {
	defineNative(env, "print", func(args []Value) (Value, error) {
		fmt.Fprintln(w, ValuesString(args, " "))
		return NullVal{}, nil
	})

	defineNative(env, "println", func(args []Value) (Value, error) {
		fmt.Fprintln(w, ValuesString(args, " "))
		return NullVal{}, nil
	})

	defineNative(env, "typeOf", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("typeOf() expects 1 argument, got %d", len(args))
		}
		return StringVal(args[0].TypeName()), nil
	})

	defineNative(env, "toString", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("toString() expects 1 argument, got %d", len(args))
		}
		return StringVal(args[0].String()), nil
	})

	defineNative(env, "len", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("len() expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case StringVal:
			return IntVal(len(string(v))), nil
		case *ArrayVal:
			return IntVal(len(v.Elements)), nil
		default:
			return nil, fmt.Errorf("len() not supported for type '%s'", args[0].TypeName())
		}
	})

	defineNative(env, "ord", func(args []Value) (Value, error) {
		s, err := oneString("ord", args)
		if err != nil {
			return nil, err
		}
		if len(s) != 1 {
			return nil, fmt.Errorf("ord() expects a single character")
		}
		return IntVal(s[0]), nil
	})

	defineNative(env, "chr", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("chr() expects 1 argument, got %d", len(args))
		}
		n, ok := ToInt64(args[0])
		if !ok {
			return nil, fmt.Errorf("chr() expects an int, got '%s'", args[0].TypeName())
		}
		return StringVal(string(rune(n))), nil
	})

	defineNative(env, "__str_get__", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("__str_get__() expects 2 arguments, got %d", len(args))
		}
		s, ok := args[0].(StringVal)
		if !ok {
			return nil, fmt.Errorf("__str_get__() expects a string, got '%s'", args[0].TypeName())
		}
		idx, ok := ToInt64(args[1])
		if !ok || idx < 0 || idx >= int64(len(s)) {
			return nil, fmt.Errorf("String index out of range")
		}
		return StringVal(string(s)[idx : idx+1]), nil
	})

	registerMathNatives(env)

	env.Define("Array", arrayClass())
}

// defineNative is a shorthand for installing a NativeVal.
func defineNative(env *Environment, name string, fn NativeFn) {
	env.Define(name, &NativeVal{Name: name, Fn: fn})
}

func oneString(name string, args []Value) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s() expects 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(StringVal)
	if !ok {
		return "", fmt.Errorf("%s() expects a string, got '%s'", name, args[0].TypeName())
	}
	return string(s), nil
}

// ---- math family ----

func registerMathNatives(env *Environment) {
	unary := func(name string, f func(float64) float64) {
		defineNative(env, name, func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s() expects 1 argument, got %d", name, len(args))
			}
			x, ok := ToFloat64(args[0])
			if !ok {
				return nil, fmt.Errorf("%s() expects a number, got '%s'", name, args[0].TypeName())
			}
			return FloatVal(f(x)), nil
		})
	}
	binary := func(name string, f func(float64, float64) float64) {
		defineNative(env, name, func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("%s() expects 2 arguments, got %d", name, len(args))
			}
			x, xok := ToFloat64(args[0])
			y, yok := ToFloat64(args[1])
			if !xok || !yok {
				return nil, fmt.Errorf("%s() expects numbers", name)
			}
			return FloatVal(f(x, y)), nil
		})
	}
	toInt := func(name string, f func(float64) float64) {
		defineNative(env, name, func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s() expects 1 argument, got %d", name, len(args))
			}
			x, ok := ToFloat64(args[0])
			if !ok {
				return nil, fmt.Errorf("%s() expects a number, got '%s'", name, args[0].TypeName())
			}
			return IntVal(int64(f(x))), nil
		})
	}

	unary("__math_sin", math.Sin)
	unary("__math_cos", math.Cos)
	unary("__math_tan", math.Tan)
	unary("__math_asin", math.Asin)
	unary("__math_acos", math.Acos)
	unary("__math_atan", math.Atan)
	binary("__math_atan2", math.Atan2)
	unary("__math_sqrt", math.Sqrt)
	binary("__math_pow", math.Pow)
	toInt("__math_floor", math.Floor)
	toInt("__math_ceil", math.Ceil)
	toInt("__math_round", math.Round)
	unary("__math_log", math.Log)
	unary("__math_exp", math.Exp)

	defineNative(env, "__math_random", func(args []Value) (Value, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("__math_random() expects 0 arguments, got %d", len(args))
		}
		return FloatVal(rand.Float64()), nil
	})
}

// ---- built-in Array class ----

// arrayClass returns the Array class value. Construction bypasses the
// instance path and yields an ArrayVal directly; any constructor arguments
// become the initial elements.
func arrayClass() *ClassVal {
	return &ClassVal{
		Name: "Array",
		Construct: func(args []Value) (Value, error) {
			elements := make([]Value, len(args))
			copy(elements, args)
			return &ArrayVal{Elements: elements}, nil
		},
	}
}

// arrayMethod returns the named Array method as an unbound template.
// Member access binds a fresh copy to the receiving array. The methods
// that call back into user code capture the interpreter.
func arrayMethod(interp *Interpreter, name string) (*NativeVal, bool) {
	var fn NativeFn

	switch name {
	case "get":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("get", args, 1)
			if err != nil {
				return nil, err
			}
			idx, err := arrayIndex(arr, rest[0])
			if err != nil {
				return nil, err
			}
			return arr.Elements[idx], nil
		}
	case "set":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("set", args, 2)
			if err != nil {
				return nil, err
			}
			idx, err := arrayIndex(arr, rest[0])
			if err != nil {
				return nil, err
			}
			arr.Elements[idx] = rest[1]
			return NullVal{}, nil
		}
	case "push":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("push", args, 1)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, rest[0])
			return IntVal(len(arr.Elements)), nil
		}
	case "pop":
		fn = func(args []Value) (Value, error) {
			arr, _, err := arrayRecv("pop", args, 0)
			if err != nil {
				return nil, err
			}
			if len(arr.Elements) == 0 {
				return nil, fmt.Errorf("pop() on empty array")
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last, nil
		}
	case "length":
		fn = func(args []Value) (Value, error) {
			arr, _, err := arrayRecv("length", args, 0)
			if err != nil {
				return nil, err
			}
			return IntVal(len(arr.Elements)), nil
		}
	case "removeAt":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("removeAt", args, 1)
			if err != nil {
				return nil, err
			}
			idx, err := arrayIndex(arr, rest[0])
			if err != nil {
				return nil, err
			}
			removed := arr.Elements[idx]
			arr.Elements = append(arr.Elements[:idx], arr.Elements[idx+1:]...)
			return removed, nil
		}
	case "clear":
		fn = func(args []Value) (Value, error) {
			arr, _, err := arrayRecv("clear", args, 0)
			if err != nil {
				return nil, err
			}
			arr.Elements = nil
			return NullVal{}, nil
		}
	case "contains":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("contains", args, 1)
			if err != nil {
				return nil, err
			}
			for _, elem := range arr.Elements {
				if valuesEqual(elem, rest[0]) {
					return BoolVal(true), nil
				}
			}
			return BoolVal(false), nil
		}
	case "indexOf":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("indexOf", args, 1)
			if err != nil {
				return nil, err
			}
			for idx, elem := range arr.Elements {
				if valuesEqual(elem, rest[0]) {
					return IntVal(idx), nil
				}
			}
			return IntVal(-1), nil
		}
	case "join":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("join", args, 1)
			if err != nil {
				return nil, err
			}
			sep, ok := rest[0].(StringVal)
			if !ok {
				return nil, fmt.Errorf("join() expects a string separator, got '%s'", rest[0].TypeName())
			}
			return StringVal(ValuesString(arr.Elements, string(sep))), nil
		}
	case "forEach":
		fn = func(args []Value) (Value, error) {
			arr, rest, err := arrayRecv("forEach", args, 1)
			if err != nil {
				return nil, err
			}
			for _, elem := range arr.Elements {
				if _, err := interp.callValue(rest[0], []Value{elem}, span.Span{}); err != nil {
					return nil, err
				}
			}
			return NullVal{}, nil
		}
	default:
		return nil, false
	}

	return &NativeVal{Name: name, Fn: fn, NeedsThis: true}, true
}

// arrayRecv splits the bound receiver off the argument list and checks the
// remaining arity.
func arrayRecv(name string, args []Value, want int) (*ArrayVal, []Value, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("%s() called without a receiver", name)
	}
	arr, ok := args[0].(*ArrayVal)
	if !ok {
		return nil, nil, fmt.Errorf("%s() receiver must be an Array, got '%s'", name, args[0].TypeName())
	}
	rest := args[1:]
	if len(rest) != want {
		return nil, nil, fmt.Errorf("%s() expects %d arguments, got %d", name, want, len(rest))
	}
	return arr, rest, nil
}

func arrayIndex(arr *ArrayVal, v Value) (int, error) {
	idx, ok := ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("Array index must be an int, got '%s'", v.TypeName())
	}
	if idx < 0 || idx >= int64(len(arr.Elements)) {
		return 0, fmt.Errorf("Array index out of range")
	}
	return int(idx), nil
}
