package signature

import (
	"fmt"

	"github.com/svanoort/script-security-plugin/internal/lang"
)

// Exists validates the signature against the live object model: does it
// denote a real, reachable member of the right flavor? A missing member is
// a normal false result; an unresolvable type name is an error, so audit
// tooling can tell a stale catalog entry from a member that isn't there.
func (s *Signature) Exists(r lang.Resolver) (bool, error) {
	recv, err := lang.Resolve(r, s.receiver)
	if err != nil {
		return false, fmt.Errorf("signature %q: %w", s.text, err)
	}
	// Argument type names must resolve too: an argument naming a type the
	// model has never heard of marks the entry broken, not merely absent.
	for _, a := range s.args {
		if _, err := lang.Resolve(r, a); err != nil {
			return false, fmt.Errorf("signature %q: %w", s.text, err)
		}
	}

	switch s.kind {
	case KindMethod:
		return methodExists(recv, s.name, s.args, true), nil
	case KindStaticMethod:
		d, ok := recv.DeclaredMethod(s.name, s.args)
		return ok && d.Static, nil
	case KindConstructor:
		return recv.DeclaredConstructor(s.args), nil
	case KindField, KindStaticField:
		return accessibleField(recv, s.name), nil
	default:
		return false, nil
	}
}

// methodExists searches for an instance method the way dynamic dispatch
// would reach it: depth-first up the superclass chain, then through each
// directly implemented interface, recursively. A declaration found on a
// proper ancestor satisfies existence regardless of its static flag; a
// declaration found directly on the starting type must not be static.
func methodExists(t lang.Type, name string, args []string, start bool) bool {
	if s := t.Superclass(); s != nil && methodExists(s, name, args, false) {
		return true
	}
	for _, i := range t.Interfaces() {
		if methodExists(i, name, args, false) {
			return true
		}
	}
	if d, ok := t.DeclaredMethod(name, args); ok {
		return !start || !d.Static
	}
	return false
}

// accessibleField mirrors a public-field lookup: the type itself, then its
// interfaces recursively, then the superclass chain. Unlike MatchesField
// this walks ancestors; see the asymmetry note there.
func accessibleField(t lang.Type, name string) bool {
	if d, ok := t.DeclaredField(name); ok && d.Public {
		return true
	}
	for _, i := range t.Interfaces() {
		if accessibleField(i, name) {
			return true
		}
	}
	if s := t.Superclass(); s != nil {
		return accessibleField(s, name)
	}
	return false
}
