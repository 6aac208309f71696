package runtime

import (
	"fmt"
	"io"
	"math"

	"github.com/Mr-Ali-Jafari/xorlang/internal/ast"
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and the statement's value.
// For SigNone the value is the statement's result (blocks yield the value
// of their last statement); for SigReturn it is the returned value.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

func resultOf(v Value) ExecResult {
	return ExecResult{Signal: SigNone, Value: v}
}

var resultNull = ExecResult{Signal: SigNone, Value: NullVal{}}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error during interpretation.
type RuntimeError struct {
	Message string
	Span    span.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func runtimeErr(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. Interpreters are not safe for
// concurrent use; each concurrent evaluation needs its own instance.
type Interpreter struct {
	global *Environment
	env    *Environment
	output io.Writer

	stdlibDir    string
	stdlibLoaded bool
	modules      map[string]*ModuleVal // loaded modules keyed by resolved path
}

// NewInterpreter creates a new interpreter with the core natives and the
// built-in Array class registered.
func NewInterpreter(output io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	i := &Interpreter{
		global:  global,
		env:     global,
		output:  output,
		modules: make(map[string]*ModuleVal),
	}
	RegisterCoreNatives(global, output)
	return i
}

// SetStdlibDir sets the stdlib root used by module loading and preloading.
func (i *Interpreter) SetStdlibDir(dir string) {
	i.stdlibDir = dir
}

// RegisterNative installs a host-provided native function under the given
// name. Hosts call this before evaluation starts.
func (i *Interpreter) RegisterNative(name string, fn NativeFn) {
	i.global.Define(name, &NativeVal{Name: name, Fn: fn})
}

// Globals returns the global environment (useful for the REPL and tests).
func (i *Interpreter) Globals() *Environment {
	return i.global
}

// Output returns the interpreter's output writer.
func (i *Interpreter) Output() io.Writer {
	return i.output
}

// Run executes a parsed program in the current environment and returns the
// value of its last statement. Definitions persist across calls, which is
// what the REPL relies on.
func (i *Interpreter) Run(block *ast.BlockStmt) (Value, error) {
	var last Value = NullVal{}
	for _, node := range block.Stmts {
		result, err := i.execNode(node)
		if err != nil {
			return nil, err
		}
		switch result.Signal {
		case SigReturn:
			return nil, runtimeErr(node.GetSpan(), "'return' used outside of a function.")
		case SigBreak:
			return nil, runtimeErr(node.GetSpan(), "'break' used outside of a loop.")
		case SigContinue:
			return nil, runtimeErr(node.GetSpan(), "'continue' used outside of a loop.")
		}
		if result.Value != nil {
			last = result.Value
		}
	}
	return last, nil
}

// ============================================================
// Node dispatch
// ============================================================

func (i *Interpreter) execNode(node ast.Node) (ExecResult, error) {
	switch n := node.(type) {
	case ast.Stmt:
		return i.execStmt(n)
	case ast.Expr:
		val, err := i.evalExpr(n)
		if err != nil {
			return resultNull, err
		}
		return resultOf(val), nil
	default:
		return resultNull, runtimeErr(node.GetSpan(), "unexpected node type: %T", node)
	}
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNull, err
		}
		return resultOf(val), nil

	case *ast.VarDeclStmt:
		return i.execVarDecl(s)

	case *ast.ReturnStmt:
		var val Value = NullVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNull, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForStmt:
		return i.execFor(s)

	case *ast.BlockStmt:
		return i.execBlock(s, NewEnvironment(i.env))

	case *ast.FuncDecl:
		return i.execFuncDecl(s)

	case *ast.ClassDecl:
		return i.execClassDecl(s)

	default:
		return resultNull, runtimeErr(stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVarDecl(s *ast.VarDeclStmt) (ExecResult, error) {
	var val Value = NullVal{}
	if s.Init != nil {
		v, err := i.evalExpr(s.Init)
		if err != nil {
			return resultNull, err
		}
		val = v
	}
	i.env.Define(s.Name, val)
	return resultOf(val), nil
}

// execBlock executes a block in the given environment, restoring the
// previous environment afterwards. The block's value is the value of its
// last statement.
func (i *Interpreter) execBlock(block *ast.BlockStmt, env *Environment) (ExecResult, error) {
	prev := i.env
	i.env = env
	defer func() { i.env = prev }()

	var last Value = NullVal{}
	for _, node := range block.Stmts {
		result, err := i.execNode(node)
		if err != nil {
			return resultNull, err
		}
		if result.Signal != SigNone {
			return result, nil
		}
		if result.Value != nil {
			last = result.Value
		}
	}
	return resultOf(last), nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNull, err
	}
	if IsTruthy(cond) {
		return i.execBlock(s.Body, NewEnvironment(i.env))
	}

	for _, clause := range s.Elifs {
		cond, err := i.evalExpr(clause.Condition)
		if err != nil {
			return resultNull, err
		}
		if IsTruthy(cond) {
			return i.execBlock(clause.Body, NewEnvironment(i.env))
		}
	}

	if s.ElseBody != nil {
		return i.execBlock(s.ElseBody, NewEnvironment(i.env))
	}
	return resultNull, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNull, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execBlock(s.Body, NewEnvironment(i.env))
		if err != nil {
			return resultNull, err
		}
		switch result.Signal {
		case SigReturn:
			return result, nil
		case SigBreak:
			return resultNull, nil
		}
		// SigContinue falls through to the next condition check.
	}
	return resultNull, nil
}

// execFor runs a C-style for loop. The whole loop shares one child
// environment: init, condition, update, and every body iteration see the
// same scope. A missing condition means one iteration (body, then update,
// then stop).
func (i *Interpreter) execFor(s *ast.ForStmt) (ExecResult, error) {
	loopEnv := NewEnvironment(i.env)
	prev := i.env
	i.env = loopEnv
	defer func() { i.env = prev }()

	if s.Init != nil {
		if _, err := i.execNode(s.Init); err != nil {
			return resultNull, err
		}
	}

	for {
		if s.Condition != nil {
			cond, err := i.evalExpr(s.Condition)
			if err != nil {
				return resultNull, err
			}
			if !IsTruthy(cond) {
				break
			}
		}

		result, err := i.execBlock(s.Body, loopEnv)
		if err != nil {
			return resultNull, err
		}
		if result.Signal == SigReturn {
			return result, nil
		}
		if result.Signal == SigBreak {
			return resultNull, nil
		}

		if s.Update != nil {
			if _, err := i.execNode(s.Update); err != nil {
				return resultNull, err
			}
		}

		if s.Condition == nil {
			break
		}
	}
	return resultNull, nil
}

func (i *Interpreter) execFuncDecl(s *ast.FuncDecl) (ExecResult, error) {
	fn := &FuncVal{
		Name:    s.Name,
		Params:  s.Params,
		Body:    s.Body,
		Closure: i.env,
	}
	if s.Name != "" {
		i.env.Define(s.Name, fn)
	}
	return resultOf(fn), nil
}

// execClassDecl evaluates the class body in a fresh environment chained to
// the defining scope and freezes its bindings as the member set.
func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	classEnv := NewEnvironment(i.env)
	for _, member := range s.Members {
		fn := &FuncVal{
			Name:    member.Name,
			Params:  member.Params,
			Body:    member.Body,
			Closure: classEnv,
		}
		classEnv.Define(member.Name, fn)
	}

	class := &ClassVal{Name: s.Name, Members: classEnv.Snapshot()}
	i.env.Define(s.Name, class)
	return resultOf(class), nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return IntVal(e.Value), nil
	case *ast.FloatLiteral:
		return FloatVal(e.Value), nil
	case *ast.StringLiteral:
		return StringVal(e.Value), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.NullLiteral:
		return NullVal{}, nil

	case *ast.IdentExpr:
		val, ok := i.env.Get(e.Name)
		if !ok {
			return nil, runtimeErr(e.GetSpan(), "Undefined variable '%s'", e.Name)
		}
		return val, nil

	case *ast.ThisExpr:
		val, ok := i.env.Get("this")
		if !ok {
			return nil, runtimeErr(e.GetSpan(), "'this' used outside of a class")
		}
		return val, nil

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.AssignExpr:
		return i.evalAssign(e)

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.MemberExpr:
		return i.evalMember(e)

	case *ast.NewExpr:
		return i.evalNew(e)

	case *ast.ImportExpr:
		return i.loadModule(e.Module, e.GetSpan())

	default:
		return nil, runtimeErr(expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.MINUS:
		switch v := operand.(type) {
		case IntVal:
			return IntVal(-int64(v)), nil
		case FloatVal:
			return FloatVal(-float64(v)), nil
		}
	case token.PLUS:
		switch operand.(type) {
		case IntVal, FloatVal:
			return operand, nil
		}
	}
	return nil, runtimeErr(e.GetSpan(), "Unsupported operand type for unary '%s': '%s'", e.Op, operand.TypeName())
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.EQ:
		return BoolVal(valuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!valuesEqual(left, right)), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		return i.compareValues(e, left, right)
	}

	// String concatenation
	if e.Op == token.PLUS {
		ls, lok := left.(StringVal)
		rs, rok := right.(StringVal)
		if lok && rok {
			return StringVal(string(ls) + string(rs)), nil
		}
	}

	// Numeric arithmetic
	li, lIsInt := left.(IntVal)
	ri, rIsInt := right.(IntVal)
	if lIsInt && rIsInt {
		return i.evalIntOp(e, int64(li), int64(ri))
	}

	lf, lok := ToFloat64(left)
	rf, rok := ToFloat64(right)
	if lok && rok {
		return i.evalFloatOp(e, lf, rf)
	}

	return nil, runtimeErr(e.GetSpan(), "Unsupported operand types for '%s': '%s' and '%s'",
		e.Op, left.TypeName(), right.TypeName())
}

// evalIntOp applies an arithmetic operator to two ints. Division always
// produces a float; everything else stays integral.
func (i *Interpreter) evalIntOp(e *ast.BinaryExpr, l, r int64) (Value, error) {
	switch e.Op {
	case token.PLUS:
		return IntVal(l + r), nil
	case token.MINUS:
		return IntVal(l - r), nil
	case token.STAR:
		return IntVal(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(e.GetSpan(), "Division by zero")
		}
		return FloatVal(float64(l) / float64(r)), nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(e.GetSpan(), "Modulo by zero")
		}
		return IntVal(l % r), nil
	}
	return nil, runtimeErr(e.GetSpan(), "Unsupported operator '%s'", e.Op)
}

func (i *Interpreter) evalFloatOp(e *ast.BinaryExpr, l, r float64) (Value, error) {
	switch e.Op {
	case token.PLUS:
		return FloatVal(l + r), nil
	case token.MINUS:
		return FloatVal(l - r), nil
	case token.STAR:
		return FloatVal(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(e.GetSpan(), "Division by zero")
		}
		return FloatVal(l / r), nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(e.GetSpan(), "Modulo by zero")
		}
		return FloatVal(math.Mod(l, r)), nil
	}
	return nil, runtimeErr(e.GetSpan(), "Unsupported operator '%s'", e.Op)
}

// compareValues handles ordering operators. Numbers compare numerically,
// strings lexicographically; any other pairing is an error.
func (i *Interpreter) compareValues(e *ast.BinaryExpr, left, right Value) (Value, error) {
	if ls, ok := left.(StringVal); ok {
		if rs, ok := right.(StringVal); ok {
			return orderResult(e.Op, compareStrings(string(ls), string(rs))), nil
		}
	}

	lf, lok := ToFloat64(left)
	rf, rok := ToFloat64(right)
	if lok && rok {
		var cmp int
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
		return orderResult(e.Op, cmp), nil
	}

	return nil, runtimeErr(e.GetSpan(), "Cannot compare '%s' and '%s'", left.TypeName(), right.TypeName())
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func orderResult(op token.Kind, cmp int) BoolVal {
	switch op {
	case token.LT:
		return BoolVal(cmp < 0)
	case token.LTE:
		return BoolVal(cmp <= 0)
	case token.GT:
		return BoolVal(cmp > 0)
	case token.GTE:
		return BoolVal(cmp >= 0)
	}
	return BoolVal(false)
}

// valuesEqual implements == across all value kinds. Different kinds are
// simply unequal; ints and floats compare numerically; reference values
// compare by identity.
func valuesEqual(left, right Value) bool {
	lf, lok := ToFloat64(left)
	rf, rok := ToFloat64(right)
	if lok && rok {
		return lf == rf
	}

	switch l := left.(type) {
	case StringVal:
		r, ok := right.(StringVal)
		return ok && l == r
	case BoolVal:
		r, ok := right.(BoolVal)
		return ok && l == r
	case NullVal:
		_, ok := right.(NullVal)
		return ok
	case *FuncVal:
		r, ok := right.(*FuncVal)
		return ok && l == r
	case *NativeVal:
		r, ok := right.(*NativeVal)
		return ok && l == r
	case *ClassVal:
		r, ok := right.(*ClassVal)
		return ok && l == r
	case *InstanceVal:
		r, ok := right.(*InstanceVal)
		return ok && l == r
	case *ArrayVal:
		r, ok := right.(*ArrayVal)
		return ok && l == r
	case *ModuleVal:
		r, ok := right.(*ModuleVal)
		return ok && l == r
	}
	return false
}

// ============================================================
// Assignment, calls, member access
// ============================================================

// evalAssign evaluates target = value. Assigning to an undefined name
// defines it in the current scope (see Environment.Set). The assigned
// value is the expression's result.
func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}

	switch target := e.Target.(type) {
	case *ast.IdentExpr:
		i.env.Set(target.Name, val)
		return val, nil

	case *ast.MemberExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*InstanceVal)
		if !ok {
			return nil, runtimeErr(e.GetSpan(), "Cannot assign to member of non-instance")
		}
		inst.Fields[target.Property] = val
		return val, nil

	default:
		return nil, runtimeErr(e.GetSpan(), "Invalid assignment target")
	}
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		arg, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = arg
	}

	return i.callValue(callee, args, e.GetSpan())
}

// callValue invokes any callable value: user functions, natives, and
// classes (calling a class constructs an instance).
func (i *Interpreter) callValue(callee Value, args []Value, s span.Span) (Value, error) {
	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunc(fn, args, s)

	case *NativeVal:
		callArgs := args
		if fn.NeedsThis {
			if fn.Recv == nil {
				return nil, runtimeErr(s, "Native method '%s' called without a receiver", fn.Name)
			}
			callArgs = append([]Value{fn.Recv}, args...)
		}
		result, err := fn.Fn(callArgs)
		if err != nil {
			return nil, runtimeErr(s, "%s", err)
		}
		if result == nil {
			result = NullVal{}
		}
		return result, nil

	case *ClassVal:
		return i.instantiate(fn, args, s)

	default:
		return nil, runtimeErr(s, "'%s' is not callable", callee.TypeName())
	}
}

// callFunc applies a user function with exact arity checking.
func (i *Interpreter) callFunc(fn *FuncVal, args []Value, s span.Span) (Value, error) {
	if len(args) != len(fn.Params) {
		name := fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		return nil, runtimeErr(s, "Function '%s' expects %d arguments, got %d", name, len(fn.Params), len(args))
	}

	fnEnv := NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		fnEnv.Define(param, args[idx])
	}

	result, err := i.execBlock(fn.Body, fnEnv)
	if err != nil {
		return nil, err
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	if result.Signal == SigBreak || result.Signal == SigContinue {
		return nil, runtimeErr(s, "'%s' used outside of a loop.", signalWord(result.Signal))
	}
	return NullVal{}, nil
}

func signalWord(sig ExecSignal) string {
	if sig == SigBreak {
		return "break"
	}
	return "continue"
}

// instantiate builds an instance of a class and runs its init member if
// present. The instance is always the result; init's return is discarded.
func (i *Interpreter) instantiate(class *ClassVal, args []Value, s span.Span) (Value, error) {
	if class.Construct != nil {
		result, err := class.Construct(args)
		if err != nil {
			return nil, runtimeErr(s, "%s", err)
		}
		return result, nil
	}

	inst := &InstanceVal{Class: class, Fields: make(map[string]Value)}

	if init, ok := class.Members["init"]; ok {
		switch ctor := init.(type) {
		case *FuncVal:
			bound := i.bindMethod(ctor, inst)
			if _, err := i.callFunc(bound, args, s); err != nil {
				return nil, err
			}
		case *NativeVal:
			if _, err := i.callValue(ctor.bind(inst), args, s); err != nil {
				return nil, err
			}
		}
	}

	return inst, nil
}

// bindMethod mints a fresh function whose closure pre-defines 'this'.
// Binding happens per access, so extracted methods stay bound to the
// instance they came from.
func (i *Interpreter) bindMethod(fn *FuncVal, inst *InstanceVal) *FuncVal {
	boundEnv := NewEnvironment(fn.Closure)
	boundEnv.Define("this", inst)
	return &FuncVal{
		Name:    fn.Name,
		Params:  fn.Params,
		Body:    fn.Body,
		Closure: boundEnv,
	}
}

// evalMember resolves a.b for every value that has members: instances
// (fields, then late-bound methods), classes (statics), arrays (method
// table), and modules (their own names).
func (i *Interpreter) evalMember(e *ast.MemberExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *InstanceVal:
		if val, ok := o.Fields[e.Property]; ok {
			return val, nil
		}
		if member, ok := o.Class.Members[e.Property]; ok {
			switch m := member.(type) {
			case *FuncVal:
				return i.bindMethod(m, o), nil
			case *NativeVal:
				if m.NeedsThis {
					return m.bind(o), nil
				}
				return m, nil
			default:
				return member, nil
			}
		}
		return nil, runtimeErr(e.GetSpan(), "Undefined property '%s'.", e.Property)

	case *ClassVal:
		if member, ok := o.Members[e.Property]; ok {
			return member, nil
		}
		return nil, runtimeErr(e.GetSpan(), "'%s' has no static member '%s'", o.Name, e.Property)

	case *ArrayVal:
		if method, ok := arrayMethod(i, e.Property); ok {
			return method.bind(o), nil
		}
		return nil, runtimeErr(e.GetSpan(), "Array has no method '%s'", e.Property)

	case *ModuleVal:
		if val, ok := o.Env.GetOwn(e.Property); ok {
			return val, nil
		}
		return nil, runtimeErr(e.GetSpan(), "Module '%s' has no member '%s'", o.Name, e.Property)

	default:
		return nil, runtimeErr(e.GetSpan(), "Cannot access member of non-class value")
	}
}

// evalNew constructs an instance: new C(args). The name must resolve to a
// class in scope.
func (i *Interpreter) evalNew(e *ast.NewExpr) (Value, error) {
	val, ok := i.env.Get(e.ClassName)
	if !ok {
		return nil, runtimeErr(e.GetSpan(), "Undefined variable '%s'", e.ClassName)
	}
	class, ok := val.(*ClassVal)
	if !ok {
		return nil, runtimeErr(e.GetSpan(), "'%s' is not a class", e.ClassName)
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		arg, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = arg
	}

	return i.instantiate(class, args, e.GetSpan())
}
