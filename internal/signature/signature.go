package signature

import (
	"hash/fnv"
	"slices"
	"strings"

	"github.com/svanoort/script-security-plugin/internal/lang"
)

// Kind is the closed set of signature variants.
type Kind int

const (
	KindMethod Kind = iota
	KindStaticMethod
	KindConstructor
	KindField
	KindStaticField
)

// Label returns the kind label used in the canonical line format.
func (k Kind) Label() string {
	switch k {
	case KindMethod:
		return "method"
	case KindStaticMethod:
		return "staticMethod"
	case KindConstructor:
		return "new"
	case KindField:
		return "field"
	case KindStaticField:
		return "staticField"
	default:
		return "unknown"
	}
}

// KindFromLabel maps a canonical kind label back to its Kind.
func KindFromLabel(label string) (Kind, bool) {
	switch label {
	case "method":
		return KindMethod, true
	case "staticMethod":
		return KindStaticMethod, true
	case "new":
		return KindConstructor, true
	case "field":
		return KindField, true
	case "staticField":
		return KindStaticField, true
	default:
		return 0, false
	}
}

// Signature is one whitelisted member descriptor. Identity is fully
// determined by (kind, canonical text); the text is computed eagerly at
// construction so signatures are immutable and safe to share across
// goroutines without synchronization.
type Signature struct {
	kind     Kind
	receiver string   // declaring type, canonical, exact
	name     string   // member name, exact or Wildcard; "" for constructors
	args     []string // ordered argument type names, each exact

	part string // signature part: everything after the kind label
	text string // full canonical line: label + " " + part
}

func newSignature(kind Kind, receiver, name string, args []string) *Signature {
	s := &Signature{
		kind:     kind,
		receiver: receiver,
		name:     name,
		args:     slices.Clone(args),
	}
	s.part = s.buildPart()
	s.text = kind.Label() + " " + s.part
	return s
}

func (s *Signature) buildPart() string {
	var b strings.Builder
	b.WriteString(s.receiver)
	if s.kind != KindConstructor {
		b.WriteByte(' ')
		b.WriteString(s.name)
	}
	for _, a := range s.args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

// Method builds an instance-method signature from raw canonical names.
func Method(receiver, name string, args ...string) *Signature {
	return newSignature(KindMethod, receiver, name, args)
}

// StaticMethod builds a static-method signature.
func StaticMethod(receiver, name string, args ...string) *Signature {
	return newSignature(KindStaticMethod, receiver, name, args)
}

// Constructor builds a constructor signature. No wildcard applies.
func Constructor(typ string, args ...string) *Signature {
	return newSignature(KindConstructor, typ, "", args)
}

// Field builds an instance-field signature.
func Field(typ, name string) *Signature {
	return newSignature(KindField, typ, name, nil)
}

// StaticField builds a static-field signature.
func StaticField(typ, name string) *Signature {
	return newSignature(KindStaticField, typ, name, nil)
}

// MethodOf canonicalizes a live receiver type and parameter types.
func MethodOf(receiver lang.Type, name string, params ...lang.Type) *Signature {
	return newSignature(KindMethod, CanonicalName(receiver), name, canonicalNames(params))
}

// StaticMethodOf canonicalizes a live declaring type and parameter types.
func StaticMethodOf(receiver lang.Type, name string, params ...lang.Type) *Signature {
	return newSignature(KindStaticMethod, CanonicalName(receiver), name, canonicalNames(params))
}

// ConstructorOf canonicalizes a live declaring type and parameter types.
func ConstructorOf(typ lang.Type, params ...lang.Type) *Signature {
	return newSignature(KindConstructor, CanonicalName(typ), "", canonicalNames(params))
}

// FieldOf canonicalizes a live declaring type.
func FieldOf(typ lang.Type, name string) *Signature {
	return newSignature(KindField, CanonicalName(typ), name, nil)
}

// StaticFieldOf canonicalizes a live declaring type.
func StaticFieldOf(typ lang.Type, name string) *Signature {
	return newSignature(KindStaticField, CanonicalName(typ), name, nil)
}

// Kind returns the signature kind.
func (s *Signature) Kind() Kind { return s.kind }

// Receiver returns the declaring type name.
func (s *Signature) Receiver() string { return s.receiver }

// Name returns the member name ("" for constructors).
func (s *Signature) Name() string { return s.name }

// Args returns the ordered argument type names. The slice is shared;
// callers must not modify it.
func (s *Signature) Args() []string { return s.args }

// String returns the canonical line form, e.g.
// "method std.String substring int int". Parsing this line back and
// re-rendering it reproduces the identical string.
func (s *Signature) String() string { return s.text }

// SignaturePart returns the canonical text minus the kind label. It is the
// primary sort key, so catalogs group entries for the same member across
// kinds before tie-breaking on the full line.
func (s *Signature) SignaturePart() string { return s.part }

// Compare orders signatures by signature part, tie-broken by the full
// canonical line. The order is total and deterministic, which is the
// contract catalog sorting and deduplication rely on.
func (s *Signature) Compare(o *Signature) int {
	if r := strings.Compare(s.part, o.part); r != 0 {
		return r
	}
	return strings.Compare(s.text, o.text)
}

// Equal reports identity: same kind and identical canonical text. A method
// and a field with coincidentally identical signature parts are never equal.
func (s *Signature) Equal(o *Signature) bool {
	return o != nil && s.kind == o.kind && s.text == o.text
}

// Hash derives a hash from the canonical text, consistent with Equal.
func (s *Signature) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.text))
	return h.Sum64()
}

// matchesMember is the shared descriptor comparison: member name via the
// wildcard rule, declaring type exactly (no supertype substitution), and
// the argument type sequence exactly, in order, same arity.
func (s *Signature) matchesMember(declaring, name string, args []string) bool {
	return nameMatches(s.name, name) && s.receiver == declaring && slices.Equal(s.args, args)
}

// MatchesMethod reports whether this signature matches a reflected method
// descriptor. Valid for method and staticMethod signatures; staticness of
// the candidate is deliberately not checked here — the interceptor
// guarantees instance checks only see instance methods and static checks
// only see static ones.
func (s *Signature) MatchesMethod(m lang.Method) bool {
	if s.kind != KindMethod && s.kind != KindStaticMethod {
		return false
	}
	return s.matchesMember(CanonicalName(m.Declaring), m.Name, canonicalNames(m.Params))
}

// MatchesConstructor reports whether this signature matches a reflected
// constructor descriptor: exact declaring type, exact argument sequence.
func (s *Signature) MatchesConstructor(c lang.Constructor) bool {
	if s.kind != KindConstructor {
		return false
	}
	return s.receiver == CanonicalName(c.Declaring) && slices.Equal(s.args, canonicalNames(c.Params))
}

// MatchesField reports whether this signature matches a reflected field
// descriptor. Matching is not hierarchy-aware: only fields declared
// directly on the named type match, even though the host language permits
// reads through a subclass receiver. Exists() is hierarchy-aware, so an
// entry naming a superclass field audits as existing yet never matches an
// access through a subclass; that asymmetry is preserved from the original
// policy on purpose.
func (s *Signature) MatchesField(f lang.Field) bool {
	if s.kind != KindField && s.kind != KindStaticField {
		return false
	}
	return nameMatches(s.name, f.Name) && s.receiver == CanonicalName(f.Declaring)
}

// MatchesDescriptor matches against a purely textual descriptor of the
// attempted operation. It is the same comparison Matches* perform after
// canonicalizing, exposed for tooling that has names but no live types
// (the management API's check endpoint and the CLI probe).
func (s *Signature) MatchesDescriptor(kind Kind, declaring, name string, args []string) bool {
	if s.kind != kind {
		return false
	}
	if kind == KindConstructor {
		return s.receiver == declaring && slices.Equal(s.args, args)
	}
	return s.matchesMember(declaring, name, args)
}
