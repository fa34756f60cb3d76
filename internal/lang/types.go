// Package lang models the object system of the sandboxed script runtime.
//
// The whitelist never reflects over Go types directly. Instead, the
// embedding interpreter describes its object model through the Type and
// Resolver interfaces, and hands reflected member descriptors (Method,
// Constructor, Field) to the permission checks. This keeps the matching
// and existence rules independent of any particular runtime.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is wrapped by Resolver implementations when a canonical
// type name does not denote any type in the object model. Callers use it
// to distinguish a broken catalog entry from a merely missing member.
var ErrUnknownType = errors.New("unknown type")

// Type describes one type in the script object model.
type Type interface {
	// Name is the fully qualified, dot-separated type name. Array types
	// report their component name with one "[]" suffix per dimension.
	Name() string

	// Component returns the element type of an array type, nil otherwise.
	Component() Type

	// Superclass returns the direct superclass, or nil at the root of the
	// hierarchy (and for array and interface types).
	Superclass() Type

	// Interfaces returns the directly implemented interfaces.
	Interfaces() []Type

	// DeclaredMethod looks up a method declared directly on this type by
	// name and exact ordered parameter type names. Inherited methods are
	// not visible here; hierarchy walks belong to the caller.
	DeclaredMethod(name string, paramTypes []string) (MethodDecl, bool)

	// DeclaredConstructor reports whether this type directly declares a
	// constructor with the exact ordered parameter type names.
	DeclaredConstructor(paramTypes []string) bool

	// DeclaredField looks up a field declared directly on this type.
	DeclaredField(name string) (FieldDecl, bool)
}

// MethodDecl carries the modifiers of a directly declared method.
type MethodDecl struct {
	Static bool
}

// FieldDecl carries the modifiers of a directly declared field.
type FieldDecl struct {
	Static bool
	Public bool
}

// Method is a reflected method descriptor as presented by the interceptor.
type Method struct {
	Declaring Type
	Name      string
	Params    []Type
	Static    bool
}

// Constructor is a reflected constructor descriptor.
type Constructor struct {
	Declaring Type
	Params    []Type
}

// Field is a reflected field descriptor.
type Field struct {
	Declaring Type
	Name      string
	Static    bool
}

// Value is implemented by interpreter values that know their runtime type.
// It is consulted when a denied operation is rendered for the script author.
type Value interface {
	RuntimeType() Type
}

// Object is a minimal Value for hosts without their own value representation.
type Object struct {
	T    Type
	Data any
}

// RuntimeType returns the type the object was created with.
func (o Object) RuntimeType() Type { return o.T }

// Resolver resolves canonical type names against the live object model.
type Resolver interface {
	// Lookup resolves a non-array canonical name. The returned error wraps
	// ErrUnknownType when the name denotes no type at all.
	Lookup(name string) (Type, error)
}

// Resolve resolves a canonical type name, synthesizing array types for
// trailing "[]" pairs so that "int[][]" resolves without the object model
// registering every array dimension.
func Resolve(r Resolver, name string) (Type, error) {
	dims := 0
	for strings.HasSuffix(name, "[]") {
		name = name[:len(name)-2]
		dims++
	}
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	for i := 0; i < dims; i++ {
		t = ArrayOf(t)
	}
	return t, nil
}

// ArrayOf returns the array type with the given component type.
func ArrayOf(component Type) Type {
	return &arrayType{component: component}
}

// arrayType is a synthesized array type. Arrays declare no members of
// their own and sit outside the class hierarchy.
type arrayType struct {
	component Type
}

func (a *arrayType) Name() string      { return a.component.Name() + "[]" }
func (a *arrayType) Component() Type   { return a.component }
func (a *arrayType) Superclass() Type  { return nil }
func (a *arrayType) Interfaces() []Type { return nil }

func (a *arrayType) DeclaredMethod(string, []string) (MethodDecl, bool) {
	return MethodDecl{}, false
}

func (a *arrayType) DeclaredConstructor([]string) bool { return false }

func (a *arrayType) DeclaredField(string) (FieldDecl, bool) {
	return FieldDecl{}, false
}

// unknownTypeError builds the canonical ErrUnknownType wrapping.
func unknownTypeError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownType, name)
}
