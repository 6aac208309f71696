package runtime

import "testing"

func TestDefineAndGet(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("x", IntVal(1))

	v, ok := env.Get("x")
	if !ok {
		t.Fatal("expected x to be defined")
	}
	if int64(v.(IntVal)) != 1 {
		t.Errorf("expected 1, got %v", v)
	}
}

func TestDefineOverwrites(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("x", IntVal(1))
	env.Define("x", IntVal(2))

	v, _ := env.Get("x")
	if int64(v.(IntVal)) != 2 {
		t.Errorf("expected redefinition to overwrite, got %v", v)
	}
}

func TestGetWalksParentChain(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", IntVal(1))
	inner := NewEnvironment(outer)

	v, ok := inner.Get("x")
	if !ok {
		t.Fatal("expected x visible from inner scope")
	}
	if int64(v.(IntVal)) != 1 {
		t.Errorf("expected 1, got %v", v)
	}
}

func TestShadowingDoesNotTouchOuter(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", IntVal(1))
	inner := NewEnvironment(outer)
	inner.Define("x", IntVal(2))

	v, _ := outer.Get("x")
	if int64(v.(IntVal)) != 1 {
		t.Errorf("outer binding changed by shadowing, got %v", v)
	}
}

func TestSetMutatesNearestBinding(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", IntVal(1))
	inner := NewEnvironment(outer)

	inner.Set("x", IntVal(9))

	v, _ := outer.Get("x")
	if int64(v.(IntVal)) != 9 {
		t.Errorf("expected Set to reach the outer binding, got %v", v)
	}
	if _, own := inner.GetOwn("x"); own {
		t.Error("Set created a shadowing binding instead of mutating the outer one")
	}
}

// Set on a name that is defined nowhere falls back to defining it on the
// receiver environment, so assignment never fails.
func TestSetFallsBackToDefining(t *testing.T) {
	outer := NewEnvironment(nil)
	inner := NewEnvironment(outer)

	inner.Set("fresh", IntVal(42))

	if _, ok := outer.GetOwn("fresh"); ok {
		t.Error("fallback definition landed on the parent")
	}
	v, ok := inner.GetOwn("fresh")
	if !ok {
		t.Fatal("expected fallback definition on the receiver environment")
	}
	if int64(v.(IntVal)) != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestGetOwnIgnoresParents(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", IntVal(1))
	inner := NewEnvironment(outer)

	if _, ok := inner.GetOwn("x"); ok {
		t.Error("GetOwn must not consult parent environments")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("a", IntVal(1))

	snap := env.Snapshot()
	env.Define("a", IntVal(2))
	env.Define("b", IntVal(3))

	if int64(snap["a"].(IntVal)) != 1 {
		t.Errorf("snapshot changed after later Define, got %v", snap["a"])
	}
	if _, ok := snap["b"]; ok {
		t.Error("snapshot picked up a later definition")
	}
}
