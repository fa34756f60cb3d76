// Package whitelist implements the enumerating signature whitelist: the
// permission contract the interpreter consults before every reflective
// operation, backed by static lists of signatures.
package whitelist

import (
	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/signature"
)

// Whitelist decides whether one attempted reflective operation is
// permitted. The receiver, argument, and value parameters are part of the
// contract for strategies that inspect live data; the enumerating strategy
// matches on descriptors alone and ignores them. Every operation returns a
// plain boolean: absence of a match is a denial, never an error.
type Whitelist interface {
	PermitsMethod(m lang.Method, receiver any, args []any) bool
	PermitsConstructor(c lang.Constructor, args []any) bool
	PermitsStaticMethod(m lang.Method, args []any) bool
	PermitsFieldGet(f lang.Field, receiver any) bool
	PermitsFieldSet(f lang.Field, receiver any, value any) bool
	PermitsStaticFieldGet(f lang.Field) bool
	PermitsStaticFieldSet(f lang.Field, value any) bool
}

// Enumerating is a whitelist over five ordered signature lists, one per
// kind. The lists are populated once at construction and never mutated,
// so all permission checks are safe for unsynchronized concurrent use.
type Enumerating struct {
	methods       []*signature.Signature
	staticMethods []*signature.Signature
	constructors  []*signature.Signature
	fields        []*signature.Signature
	staticFields  []*signature.Signature

	all []*signature.Signature // original order, for listing and audit
}

// NewEnumerating buckets the entries by kind, preserving their relative
// order within each list. List order only decides which entry wins when
// several match; any match grants the same permission.
func NewEnumerating(entries []*signature.Signature) *Enumerating {
	w := &Enumerating{all: entries}
	for _, s := range entries {
		switch s.Kind() {
		case signature.KindMethod:
			w.methods = append(w.methods, s)
		case signature.KindStaticMethod:
			w.staticMethods = append(w.staticMethods, s)
		case signature.KindConstructor:
			w.constructors = append(w.constructors, s)
		case signature.KindField:
			w.fields = append(w.fields, s)
		case signature.KindStaticField:
			w.staticFields = append(w.staticFields, s)
		}
	}
	return w
}

// Entries returns all signatures in construction order. The slice is
// shared; callers must not modify it.
func (w *Enumerating) Entries() []*signature.Signature { return w.all }

// Count returns the total number of entries.
func (w *Enumerating) Count() int { return len(w.all) }

// matchMethod returns the first method signature matching the descriptor.
func (w *Enumerating) matchMethod(list []*signature.Signature, m lang.Method) *signature.Signature {
	for _, s := range list {
		if s.MatchesMethod(m) {
			return s
		}
	}
	return nil
}

func (w *Enumerating) matchConstructor(c lang.Constructor) *signature.Signature {
	for _, s := range w.constructors {
		if s.MatchesConstructor(c) {
			return s
		}
	}
	return nil
}

func (w *Enumerating) matchField(list []*signature.Signature, f lang.Field) *signature.Signature {
	for _, s := range list {
		if s.MatchesField(f) {
			return s
		}
	}
	return nil
}

// PermitsMethod permits an instance method call.
func (w *Enumerating) PermitsMethod(m lang.Method, receiver any, args []any) bool {
	return w.matchMethod(w.methods, m) != nil
}

// PermitsConstructor permits an object construction.
func (w *Enumerating) PermitsConstructor(c lang.Constructor, args []any) bool {
	return w.matchConstructor(c) != nil
}

// PermitsStaticMethod permits a static method call. The caller guarantees
// the descriptor denotes a static method; staticness is not re-checked.
func (w *Enumerating) PermitsStaticMethod(m lang.Method, args []any) bool {
	return w.matchMethod(w.staticMethods, m) != nil
}

// PermitsFieldGet permits an instance field read.
func (w *Enumerating) PermitsFieldGet(f lang.Field, receiver any) bool {
	return w.matchField(w.fields, f) != nil
}

// PermitsFieldSet permits an instance field write. Reads and writes share
// the same entries; the value is never inspected.
func (w *Enumerating) PermitsFieldSet(f lang.Field, receiver any, value any) bool {
	return w.matchField(w.fields, f) != nil
}

// PermitsStaticFieldGet permits a static field read.
func (w *Enumerating) PermitsStaticFieldGet(f lang.Field) bool {
	return w.matchField(w.staticFields, f) != nil
}

// PermitsStaticFieldSet permits a static field write.
func (w *Enumerating) PermitsStaticFieldSet(f lang.Field, value any) bool {
	return w.matchField(w.staticFields, f) != nil
}

// CheckDescriptor evaluates a purely textual descriptor against the list
// for its kind. Field get and set share a kind, as do static gets/sets.
func (w *Enumerating) CheckDescriptor(kind signature.Kind, declaring, name string, args []string) bool {
	var list []*signature.Signature
	switch kind {
	case signature.KindMethod:
		list = w.methods
	case signature.KindStaticMethod:
		list = w.staticMethods
	case signature.KindConstructor:
		list = w.constructors
	case signature.KindField:
		list = w.fields
	case signature.KindStaticField:
		list = w.staticFields
	}
	for _, s := range list {
		if s.MatchesDescriptor(kind, declaring, name, args) {
			return true
		}
	}
	return false
}
