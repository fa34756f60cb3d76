package lang

import (
	"errors"
	"testing"
)

func TestResolve_Arrays(t *testing.T) {
	r := NewRegistry()
	r.Define("int")

	tests := []struct {
		name string
		dims int
	}{
		{"int", 0},
		{"int[]", 1},
		{"int[][]", 2},
		{"int[][][]", 3},
	}
	for _, tt := range tests {
		typ, err := Resolve(r, tt.name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.name, err)
		}
		if typ.Name() != tt.name {
			t.Errorf("Resolve(%q).Name() = %q", tt.name, typ.Name())
		}
		dims := 0
		for c := typ.Component(); c != nil; c = c.Component() {
			dims++
		}
		if dims != tt.dims {
			t.Errorf("%q: got %d dimensions, want %d", tt.name, dims, tt.dims)
		}
	}
}

func TestResolve_UnknownType(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"std.Ghost", "std.Ghost[]"} {
		if _, err := Resolve(r, name); !errors.Is(err, ErrUnknownType) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnknownType", name, err)
		}
	}
}

func TestClass_DeclaredMembers(t *testing.T) {
	r := NewRegistry()
	c := r.Define("std.Thing").
		Method("touch", "int").
		StaticMethod("make").
		Constructor("int").
		Field("size").
		StaticField("MAX").
		PrivateField("secret")

	if d, ok := c.DeclaredMethod("touch", []string{"int"}); !ok || d.Static {
		t.Errorf("touch(int) should be a declared instance method")
	}
	if _, ok := c.DeclaredMethod("touch", nil); ok {
		t.Errorf("parameter lists are exact")
	}
	if d, ok := c.DeclaredMethod("make", nil); !ok || !d.Static {
		t.Errorf("make() should be a declared static method")
	}
	if !c.DeclaredConstructor([]string{"int"}) {
		t.Errorf("constructor (int) should be declared")
	}
	if c.DeclaredConstructor(nil) {
		t.Errorf("no-arg constructor was not declared")
	}
	if d, ok := c.DeclaredField("size"); !ok || d.Static || !d.Public {
		t.Errorf("size should be a public instance field")
	}
	if d, ok := c.DeclaredField("MAX"); !ok || !d.Static || !d.Public {
		t.Errorf("MAX should be a public static field")
	}
	if d, ok := c.DeclaredField("secret"); !ok || d.Public {
		t.Errorf("secret should be declared but not public")
	}
}

func TestClass_Hierarchy(t *testing.T) {
	r := NewRegistry()
	iface := r.Define("std.Closeable")
	base := r.Define("std.Base")
	sub := r.Define("std.Sub").Extends(base).Implements(iface)

	if base.Superclass() != nil {
		t.Errorf("root class must report a nil superclass")
	}
	if sub.Superclass() == nil || sub.Superclass().Name() != "std.Base" {
		t.Errorf("Sub should extend Base")
	}
	ifaces := sub.Interfaces()
	if len(ifaces) != 1 || ifaces[0].Name() != "std.Closeable" {
		t.Errorf("Sub should implement Closeable, got %v", ifaces)
	}
	if base.Interfaces() != nil {
		t.Errorf("Base implements nothing")
	}
}

func TestArrayType_HasNoMembers(t *testing.T) {
	r := NewRegistry()
	elem := r.Define("std.Object").Method("toString").Field("x").Constructor()

	arr := ArrayOf(elem)
	if arr.Superclass() != nil || arr.Interfaces() != nil {
		t.Errorf("array types sit outside the hierarchy")
	}
	if _, ok := arr.DeclaredMethod("toString", nil); ok {
		t.Errorf("arrays declare no methods")
	}
	if arr.DeclaredConstructor(nil) {
		t.Errorf("arrays declare no constructors")
	}
	if _, ok := arr.DeclaredField("x"); ok {
		t.Errorf("arrays declare no fields")
	}
}

func TestStandardRegistry(t *testing.T) {
	r := StandardRegistry()

	str, err := r.Lookup("std.String")
	if err != nil {
		t.Fatalf("std.String missing: %v", err)
	}
	if _, ok := str.DeclaredMethod("substring", []string{"int"}); !ok {
		t.Errorf("std.String.substring(int) should be declared")
	}
	if _, ok := str.DeclaredMethod("substring", []string{"int", "int"}); !ok {
		t.Errorf("std.String.substring(int, int) should be declared")
	}
	if str.Superclass() == nil || str.Superclass().Name() != "std.Object" {
		t.Errorf("std.String should extend std.Object")
	}

	math := r.MustLookup("std.Math")
	if d, ok := math.DeclaredField("PI"); !ok || !d.Static {
		t.Errorf("std.Math.PI should be a static field")
	}
}
