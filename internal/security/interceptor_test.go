package security

import (
	"errors"
	"testing"

	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/signature"
	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

func stdTypes(t testing.TB) (lang.Type, lang.Type) {
	t.Helper()
	r := lang.StandardRegistry()
	return r.MustLookup("std.String"), r.MustLookup("int")
}

func parseAll(t testing.TB, lines ...string) []*signature.Signature {
	t.Helper()
	sigs := make([]*signature.Signature, len(lines))
	for i, line := range lines {
		s, err := signature.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		sigs[i] = s
	}
	return sigs
}

func TestInterceptor_PermittedCallProceeds(t *testing.T) {
	wl := whitelist.NewEnumerating(parseAll(t, "method std.String substring int"))
	i := NewInterceptor(wl, nil)

	str, intT := stdTypes(t)
	err := i.MethodCall(lang.Method{Declaring: str, Name: "substring", Params: []lang.Type{intT}}, nil, []any{5})
	if err != nil {
		t.Fatalf("whitelisted call should proceed, got %v", err)
	}
}

func TestInterceptor_DeniedCallMessage(t *testing.T) {
	i := NewInterceptor(whitelist.NewEnumerating(nil), nil)

	str, intT := stdTypes(t)
	err := i.MethodCall(lang.Method{Declaring: str, Name: "substring", Params: []lang.Type{intT}}, nil, []any{5})
	if err == nil {
		t.Fatalf("unlisted call must be denied")
	}

	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("denial must be a *RejectedError, got %T", err)
	}
	want := "Scripts are not permitted to use method std.String substring int"
	if rej.Error() != want {
		t.Errorf("Error() = %q, want %q", rej.Error(), want)
	}
	// The rejected signature carries the declared parameter types, ready
	// to paste into a catalog.
	if rej.Signature.String() != "method std.String substring int" {
		t.Errorf("Signature = %q", rej.Signature)
	}
	if rej.Call != "std.String.substring(int)" {
		t.Errorf("Call = %q", rej.Call)
	}
}

func TestInterceptor_CallRendersRuntimeTypes(t *testing.T) {
	i := NewInterceptor(whitelist.NewEnumerating(nil), nil)

	str, intT := stdTypes(t)
	err := i.MethodCall(
		lang.Method{Declaring: str, Name: "substring", Params: []lang.Type{intT, intT}},
		nil, []any{5, nil})
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	// Absent arguments render as "null", not as their declared type.
	if rej.Call != "std.String.substring(int, null)" {
		t.Errorf("Call = %q", rej.Call)
	}
}

func TestInterceptor_NilWhitelistDeniesEverything(t *testing.T) {
	i := NewInterceptor(nil, nil)

	str, intT := stdTypes(t)
	if err := i.MethodCall(lang.Method{Declaring: str, Name: "length"}, nil, nil); err == nil {
		t.Errorf("nil whitelist must deny method calls")
	}
	if err := i.Construct(lang.Constructor{Declaring: str}, nil); err == nil {
		t.Errorf("nil whitelist must deny construction")
	}
	if err := i.StaticMethodCall(lang.Method{Declaring: str, Name: "valueOf", Params: []lang.Type{intT}, Static: true}, nil); err == nil {
		t.Errorf("nil whitelist must deny static calls")
	}
	if err := i.FieldGet(lang.Field{Declaring: str, Name: "x"}, nil); err == nil {
		t.Errorf("nil whitelist must deny field reads")
	}
	if err := i.StaticFieldSet(lang.Field{Declaring: str, Name: "x", Static: true}, 1); err == nil {
		t.Errorf("nil whitelist must deny static field writes")
	}
}

// panickyWhitelist simulates a whitelist whose check blows up.
type panickyWhitelist struct{}

func (panickyWhitelist) PermitsMethod(lang.Method, any, []any) bool      { panic("boom") }
func (panickyWhitelist) PermitsConstructor(lang.Constructor, []any) bool { panic("boom") }
func (panickyWhitelist) PermitsStaticMethod(lang.Method, []any) bool     { panic("boom") }
func (panickyWhitelist) PermitsFieldGet(lang.Field, any) bool            { panic("boom") }
func (panickyWhitelist) PermitsFieldSet(lang.Field, any, any) bool       { panic("boom") }
func (panickyWhitelist) PermitsStaticFieldGet(lang.Field) bool           { panic("boom") }
func (panickyWhitelist) PermitsStaticFieldSet(lang.Field, any) bool      { panic("boom") }

func TestInterceptor_PanicInCheckDenies(t *testing.T) {
	i := NewInterceptor(panickyWhitelist{}, nil)

	str, _ := stdTypes(t)
	err := i.MethodCall(lang.Method{Declaring: str, Name: "length"}, nil, nil)
	if err == nil {
		t.Fatalf("a panicking check must fail closed, not grant access")
	}
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Errorf("fail-closed denial should still be a RejectedError, got %T", err)
	}
}

func TestInterceptor_MonitorMode(t *testing.T) {
	i := NewInterceptor(whitelist.NewEnumerating(nil), nil)
	i.SetEnforcing(false)

	if i.IsEnforcing() {
		t.Fatalf("enforcement should be off")
	}
	str, _ := stdTypes(t)
	if err := i.MethodCall(lang.Method{Declaring: str, Name: "length"}, nil, nil); err != nil {
		t.Errorf("monitor mode must let denied calls proceed, got %v", err)
	}

	i.SetEnforcing(true)
	if err := i.MethodCall(lang.Method{Declaring: str, Name: "length"}, nil, nil); err == nil {
		t.Errorf("re-enabled enforcement must deny again")
	}
}

func TestInterceptor_FieldSetRendersValue(t *testing.T) {
	i := NewInterceptor(whitelist.NewEnumerating(nil), nil)

	str, _ := stdTypes(t)
	err := i.FieldSet(lang.Field{Declaring: str, Name: "length"}, nil, 42)
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Call != "std.String.length = int" {
		t.Errorf("Call = %q", rej.Call)
	}
}
