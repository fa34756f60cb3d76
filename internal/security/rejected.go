package security

import (
	"strings"

	"github.com/svanoort/script-security-plugin/internal/signature"
)

// RejectedError reports a denied reflective operation. The message names
// the denied member in canonical catalog form so the script author can
// request exactly that entry be whitelisted.
type RejectedError struct {
	// Signature is the descriptor that was denied, with declared
	// parameter types: the line to add to a catalog.
	Signature *signature.Signature
	// Call is the attempted operation rendered with the runtime types of
	// the live arguments (including "null" for absent values).
	Call string
}

func (e *RejectedError) Error() string {
	return "Scripts are not permitted to use " + e.Signature.String()
}

// renderCall renders the attempted operation from live arguments, e.g.
// "std.String.substring(int, null)". Runtime types are reported, not the
// statically declared ones.
func renderCall(declaring, member string, args []any) string {
	var b strings.Builder
	b.WriteString(declaring)
	if member != "" {
		b.WriteByte('.')
		b.WriteString(member)
	}
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(signature.CanonicalNameOf(a))
	}
	b.WriteByte(')')
	return b.String()
}
