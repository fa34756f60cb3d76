// Package signature implements the whitelist signature data model: canonical
// type naming, the five signature kinds, their single-line text form, and
// the matching and existence rules the enumerating whitelist is built on.
package signature

import (
	"fmt"

	"github.com/svanoort/script-security-plugin/internal/lang"
)

// CanonicalName renders the canonical textual name of a type: the fully
// qualified dot-separated name, with one "[]" suffix per array dimension.
func CanonicalName(t lang.Type) string {
	if c := t.Component(); c != nil {
		return CanonicalName(c) + "[]"
	}
	return t.Name()
}

// CanonicalNameOf renders the canonical name of a live value's runtime
// type, or "null" for an absent value. Denied-operation messages use this
// so the script author sees the runtime types actually passed, not any
// statically declared ones.
func CanonicalNameOf(v any) string {
	if v == nil {
		return "null"
	}
	if tv, ok := v.(lang.Value); ok {
		return CanonicalName(tv.RuntimeType())
	}
	// Host-native values that never entered the interpreter. Map the
	// common Go carriers onto the primitive names; anything else is
	// rendered by its Go type so the message stays diagnosable.
	switch v.(type) {
	case bool:
		return "bool"
	case int, int32:
		return "int"
	case int64:
		return "long"
	case float32, float64:
		return "float"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// canonicalNames renders each type in order.
func canonicalNames(types []lang.Type) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = CanonicalName(t)
	}
	return out
}

// Wildcard is the literal token that matches any member name. It is legal
// only in the name position of method and field signatures; declaring-type
// and argument-type names are always exact.
const Wildcard = "*"

// nameMatches is the single-token wildcard predicate for member names:
// the pattern is either the wildcard or an exact, case-sensitive match.
func nameMatches(pattern, actual string) bool {
	return pattern == Wildcard || pattern == actual
}
