// Package security is the enforcement boundary between the interpreter
// and the whitelist: one check per reflective access kind, each returning
// nil (proceed) or a *RejectedError (abort and surface to the script).
package security

import (
	"sync/atomic"

	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/logger"
	"github.com/svanoort/script-security-plugin/internal/metrics"
	"github.com/svanoort/script-security-plugin/internal/signature"
	"github.com/svanoort/script-security-plugin/internal/telemetry"
	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

var log = logger.New("security")

// Interceptor consults the whitelist for every intercepted reflective
// operation. With no whitelist configured it denies everything; with
// enforcement disabled it allows everything (monitor-only mode still
// counts and records what would have been denied).
type Interceptor struct {
	wl      whitelist.Whitelist
	store   *telemetry.Storage // nil disables denial recording
	enforce atomic.Bool
	session atomic.Value // string; current script run id, may be empty
}

// NewInterceptor creates an interceptor backed by the given whitelist.
// store may be nil.
func NewInterceptor(wl whitelist.Whitelist, store *telemetry.Storage) *Interceptor {
	i := &Interceptor{wl: wl, store: store}
	i.enforce.Store(true)
	return i
}

// SetSession tags subsequent denial records with the given script run id.
func (i *Interceptor) SetSession(id string) { i.session.Store(id) }

func (i *Interceptor) currentSession() string {
	if v, ok := i.session.Load().(string); ok {
		return v
	}
	return ""
}

// SetEnforcing toggles enforcement. When off, denials are logged and
// recorded but the operation proceeds.
func (i *Interceptor) SetEnforcing(on bool) { i.enforce.Store(on) }

// IsEnforcing reports whether denials abort the operation.
func (i *Interceptor) IsEnforcing() bool { return i.enforce.Load() }

// permitted runs one whitelist check, converting any panic into a denial.
// The check must always come back as a clean boolean: a failure on this
// path may neither crash the host nor silently grant access.
func (i *Interceptor) permitted(check func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Permission check panicked, denying: %v", r)
			ok = false
		}
	}()
	if i.wl == nil {
		return false
	}
	return check()
}

// decide records the outcome and builds the rejection for a denial.
func (i *Interceptor) decide(allowed bool, kind string, sig *signature.Signature, call string) error {
	if allowed {
		metrics.RecordCheck(kind, "allowed")
		return nil
	}
	metrics.RecordCheck(kind, "denied")
	log.Warn("Denied %s: %s", kind, call)
	if i.store != nil {
		if err := i.store.LogDenial(telemetry.Denial{Kind: kind, Signature: sig.String(), Call: call, Session: i.currentSession()}); err != nil {
			log.Warn("Failed to record denial: %v", err)
		}
	}
	if !i.enforce.Load() {
		return nil
	}
	return &RejectedError{Signature: sig, Call: call}
}

// MethodCall checks an instance method call.
func (i *Interceptor) MethodCall(m lang.Method, receiver any, args []any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsMethod(m, receiver, args) })
	return i.decide(allowed, "method",
		signature.MethodOf(m.Declaring, m.Name, m.Params...),
		renderCall(signature.CanonicalName(m.Declaring), m.Name, args))
}

// StaticMethodCall checks a static method call. Callers must only present
// static members here; staticness is not re-verified.
func (i *Interceptor) StaticMethodCall(m lang.Method, args []any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsStaticMethod(m, args) })
	return i.decide(allowed, "staticMethod",
		signature.StaticMethodOf(m.Declaring, m.Name, m.Params...),
		renderCall(signature.CanonicalName(m.Declaring), m.Name, args))
}

// Construct checks an object construction.
func (i *Interceptor) Construct(c lang.Constructor, args []any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsConstructor(c, args) })
	return i.decide(allowed, "new",
		signature.ConstructorOf(c.Declaring, c.Params...),
		renderCall(signature.CanonicalName(c.Declaring), "", args))
}

// FieldGet checks an instance field read.
func (i *Interceptor) FieldGet(f lang.Field, receiver any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsFieldGet(f, receiver) })
	return i.decide(allowed, "field",
		signature.FieldOf(f.Declaring, f.Name),
		signature.CanonicalName(f.Declaring)+"."+f.Name)
}

// FieldSet checks an instance field write.
func (i *Interceptor) FieldSet(f lang.Field, receiver any, value any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsFieldSet(f, receiver, value) })
	return i.decide(allowed, "field",
		signature.FieldOf(f.Declaring, f.Name),
		signature.CanonicalName(f.Declaring)+"."+f.Name+" = "+signature.CanonicalNameOf(value))
}

// StaticFieldGet checks a static field read.
func (i *Interceptor) StaticFieldGet(f lang.Field) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsStaticFieldGet(f) })
	return i.decide(allowed, "staticField",
		signature.StaticFieldOf(f.Declaring, f.Name),
		signature.CanonicalName(f.Declaring)+"."+f.Name)
}

// StaticFieldSet checks a static field write.
func (i *Interceptor) StaticFieldSet(f lang.Field, value any) error {
	allowed := i.permitted(func() bool { return i.wl.PermitsStaticFieldSet(f, value) })
	return i.decide(allowed, "staticField",
		signature.StaticFieldOf(f.Declaring, f.Name),
		signature.CanonicalName(f.Declaring)+"."+f.Name+" = "+signature.CanonicalNameOf(value))
}
