package lang

import "slices"

// Registry is a programmatic object model: the interpreter (or a test)
// defines classes, their hierarchy, and their directly declared members.
// Definitions happen once at startup; lookups are read-only afterwards,
// so a Registry is safe for concurrent use once built.
type Registry struct {
	types map[string]*Class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Class)}
}

// Define registers a new class under its canonical name and returns it for
// fluent member declaration. Defining the same name twice replaces the
// earlier class.
func (r *Registry) Define(name string) *Class {
	c := &Class{name: name}
	r.types[name] = c
	return c
}

// Lookup implements Resolver over the registered classes.
func (r *Registry) Lookup(name string) (Type, error) {
	c, ok := r.types[name]
	if !ok {
		return nil, unknownTypeError(name)
	}
	return c, nil
}

// MustLookup resolves a canonical name (array suffixes included) or panics.
// Intended for wiring code and tests where the name is a literal.
func (r *Registry) MustLookup(name string) Type {
	t, err := Resolve(r, name)
	if err != nil {
		panic(err)
	}
	return t
}

// Class is a registry-defined type.
type Class struct {
	name       string
	super      *Class
	interfaces []*Class
	methods    []classMethod
	ctors      [][]string
	fields     []classField
}

type classMethod struct {
	name   string
	params []string
	static bool
}

type classField struct {
	name   string
	static bool
	public bool
}

// Extends sets the direct superclass.
func (c *Class) Extends(super *Class) *Class {
	c.super = super
	return c
}

// Implements adds directly implemented interfaces.
func (c *Class) Implements(ifaces ...*Class) *Class {
	c.interfaces = append(c.interfaces, ifaces...)
	return c
}

// Method declares an instance method with the given parameter type names.
func (c *Class) Method(name string, params ...string) *Class {
	c.methods = append(c.methods, classMethod{name: name, params: params})
	return c
}

// StaticMethod declares a static method.
func (c *Class) StaticMethod(name string, params ...string) *Class {
	c.methods = append(c.methods, classMethod{name: name, params: params, static: true})
	return c
}

// Constructor declares a constructor with the given parameter type names.
func (c *Class) Constructor(params ...string) *Class {
	c.ctors = append(c.ctors, params)
	return c
}

// Field declares a public instance field.
func (c *Class) Field(name string) *Class {
	c.fields = append(c.fields, classField{name: name, public: true})
	return c
}

// StaticField declares a public static field.
func (c *Class) StaticField(name string) *Class {
	c.fields = append(c.fields, classField{name: name, static: true, public: true})
	return c
}

// PrivateField declares a non-public instance field. It is invisible to
// accessible-field lookups but still a direct declaration.
func (c *Class) PrivateField(name string) *Class {
	c.fields = append(c.fields, classField{name: name})
	return c
}

// Name returns the canonical class name.
func (c *Class) Name() string { return c.name }

// Component returns nil; classes are never array types.
func (c *Class) Component() Type { return nil }

// Superclass returns the direct superclass or nil.
func (c *Class) Superclass() Type {
	if c.super == nil {
		return nil
	}
	return c.super
}

// Interfaces returns the directly implemented interfaces.
func (c *Class) Interfaces() []Type {
	if len(c.interfaces) == 0 {
		return nil
	}
	out := make([]Type, len(c.interfaces))
	for i, iface := range c.interfaces {
		out[i] = iface
	}
	return out
}

// DeclaredMethod finds a directly declared method by name and exact
// ordered parameter type names.
func (c *Class) DeclaredMethod(name string, paramTypes []string) (MethodDecl, bool) {
	for _, m := range c.methods {
		if m.name == name && slices.Equal(m.params, paramTypes) {
			return MethodDecl{Static: m.static}, true
		}
	}
	return MethodDecl{}, false
}

// DeclaredConstructor reports a directly declared constructor with the
// exact ordered parameter type names.
func (c *Class) DeclaredConstructor(paramTypes []string) bool {
	for _, params := range c.ctors {
		if slices.Equal(params, paramTypes) {
			return true
		}
	}
	return false
}

// DeclaredField finds a directly declared field by name.
func (c *Class) DeclaredField(name string) (FieldDecl, bool) {
	for _, f := range c.fields {
		if f.name == name {
			return FieldDecl{Static: f.static, Public: f.public}, true
		}
	}
	return FieldDecl{}, false
}
