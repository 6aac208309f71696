package runtime

// Environment represents a variable scope with a parent chain.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define inserts or overwrites a name in the current scope. Redefining an
// existing name is allowed and replaces it.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Set assigns to an existing variable anywhere on the chain. If the name is
// not defined in any scope, it is defined on the receiver environment
// instead. Assignment therefore never fails.
func (e *Environment) Set(name string, value Value) {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			env.values[name] = value
			return
		}
	}
	e.values[name] = value
}

// GetOwn looks up a name in this scope only, ignoring parents. Module
// member access uses it to keep namespaces isolated.
func (e *Environment) GetOwn(name string) (Value, bool) {
	val, exists := e.values[name]
	return val, exists
}

// Names returns the names defined in this scope only.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	return names
}

// Snapshot copies this scope's own bindings into a fresh map. Class
// definition uses it to freeze the member set.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}
