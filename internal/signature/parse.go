package signature

import (
	"fmt"
	"slices"
	"strings"
)

// Parse reads one canonical catalog line back into a signature. The
// grammar is the output of String():
//
//	method <declaringType> <name> <argType> ...
//	staticMethod <declaringType> <name> <argType> ...
//	new <type> <argType> ...
//	field <declaringType> <name>
//	staticField <declaringType> <name>
//
// Tokens are space-separated; re-rendering the parsed signature yields the
// identical line.
func Parse(line string) (*Signature, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty signature line")
	}
	label, rest := tokens[0], tokens[1:]
	switch label {
	case "method", "staticMethod":
		if len(rest) < 2 {
			return nil, fmt.Errorf("%s signature needs a declaring type and a name: %q", label, line)
		}
		kind := KindMethod
		if label == "staticMethod" {
			kind = KindStaticMethod
		}
		return newSignature(kind, rest[0], rest[1], rest[2:]), nil
	case "new":
		if len(rest) < 1 {
			return nil, fmt.Errorf("new signature needs a type: %q", line)
		}
		return newSignature(KindConstructor, rest[0], "", rest[1:]), nil
	case "field", "staticField":
		if len(rest) != 2 {
			return nil, fmt.Errorf("%s signature needs exactly a declaring type and a name: %q", label, line)
		}
		kind := KindField
		if label == "staticField" {
			kind = KindStaticField
		}
		return newSignature(kind, rest[0], rest[1], nil), nil
	default:
		return nil, fmt.Errorf("unknown signature kind %q in %q", label, line)
	}
}

// Sort orders signatures in place by the canonical catalog order.
func Sort(sigs []*Signature) {
	slices.SortFunc(sigs, (*Signature).Compare)
}

// Dedup returns the signatures sorted with exact duplicates removed.
// Duplicate means Equal: same kind, identical canonical text.
func Dedup(sigs []*Signature) []*Signature {
	sorted := slices.Clone(sigs)
	Sort(sorted)
	return slices.CompactFunc(sorted, (*Signature).Equal)
}
