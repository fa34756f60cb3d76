package lang

// StandardRegistry builds the object model of the script standard library.
// Embedding applications extend the returned registry with their own
// classes before handing it to the interpreter and the audit tooling.
//
// The builtin whitelist catalog references these names, so renaming a
// member here without updating the catalog breaks the builtin entries
// (the audit command catches that).
func StandardRegistry() *Registry {
	r := NewRegistry()

	// Primitive value types. They carry no members; scripts reach them
	// only through argument positions.
	r.Define("int")
	r.Define("long")
	r.Define("float")
	r.Define("bool")
	r.Define("string")

	object := r.Define("std.Object").
		Constructor().
		Method("equals", "std.Object").
		Method("hashCode").
		Method("toString")

	r.Define("std.String").
		Extends(object).
		Constructor().
		Constructor("std.String").
		Method("charAt", "int").
		Method("contains", "std.String").
		Method("length").
		Method("split", "std.String").
		Method("substring", "int").
		Method("substring", "int", "int").
		Method("toLowerCase").
		Method("toUpperCase").
		StaticMethod("valueOf", "int")

	r.Define("std.List").
		Extends(object).
		Constructor().
		Method("add", "std.Object").
		Method("clear").
		Method("get", "int").
		Method("remove", "int").
		Method("size")

	r.Define("std.Map").
		Extends(object).
		Constructor().
		Method("containsKey", "std.Object").
		Method("get", "std.Object").
		Method("put", "std.Object", "std.Object").
		Method("size")

	r.Define("std.Math").
		StaticField("E").
		StaticField("PI").
		StaticMethod("abs", "int").
		StaticMethod("floor", "float").
		StaticMethod("max", "int", "int").
		StaticMethod("min", "int", "int").
		StaticMethod("pow", "float", "float")

	return r
}
