package whitelist

import (
	"sync"
	"sync/atomic"

	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/logger"
	"github.com/svanoort/script-security-plugin/internal/signature"
)

var log = logger.New("whitelist")

// EngineConfig holds engine configuration.
type EngineConfig struct {
	UserDir        string
	DisableBuiltin bool
}

// Engine owns the active whitelist: builtin entries fixed at startup, user
// entries hot-reloadable from the catalog directory. Reload swaps a whole
// Enumerating whitelist under the lock; individual lists are never
// mutated, so checks racing a reload see either the old or the new
// catalog, both internally consistent.
type Engine struct {
	mu      sync.RWMutex
	builtin []*signature.Signature
	user    []*signature.Signature
	current *Enumerating

	loader *Loader
	config EngineConfig

	hitCounts map[string]*int64 // keyed by canonical text

	onReloadCallbacks []func()
}

// NewEngine creates an engine, loading builtin and user catalogs.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	e := &Engine{
		loader:    NewLoader(cfg.UserDir),
		config:    cfg,
		hitCounts: make(map[string]*int64),
	}

	if !cfg.DisableBuiltin {
		builtin, err := e.loader.LoadBuiltin()
		if err != nil {
			return nil, err
		}
		e.builtin = builtin
		log.Info("Loaded %d builtin whitelist entries", len(builtin))
	} else {
		log.Warn("Builtin whitelist disabled")
	}

	if err := e.ReloadUser(); err != nil {
		log.Warn("Failed to load user catalogs: %v", err)
		e.mu.Lock()
		e.rebuildLocked()
		e.mu.Unlock()
	}

	return e, nil
}

// NewTestEngine creates an engine from a fixed entry list, bypassing file
// loading. Convenience for tests.
func NewTestEngine(entries []*signature.Signature) *Engine {
	e := &Engine{
		loader:    NewLoader(""),
		config:    EngineConfig{DisableBuiltin: true},
		hitCounts: make(map[string]*int64),
		builtin:   entries,
	}
	e.mu.Lock()
	e.rebuildLocked()
	e.mu.Unlock()
	return e
}

// ReloadUser reloads the user catalogs and swaps in a fresh whitelist.
func (e *Engine) ReloadUser() error {
	user, err := e.loader.LoadUser()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.user = user
	e.rebuildLocked()
	total := e.current.Count()
	e.mu.Unlock()

	log.Info("Loaded %d user entries, %d total active", len(user), total)
	e.notifyReload()
	return nil
}

// rebuildLocked rebuilds the active whitelist. Caller holds the write lock.
func (e *Engine) rebuildLocked() {
	merged := make([]*signature.Signature, 0, len(e.builtin)+len(e.user))
	merged = append(merged, e.builtin...)
	merged = append(merged, e.user...)
	e.current = NewEnumerating(merged)

	for _, s := range merged {
		if _, ok := e.hitCounts[s.String()]; !ok {
			var n int64
			e.hitCounts[s.String()] = &n
		}
	}
}

// Snapshot returns the active whitelist. The result is immutable and
// stays valid across reloads.
func (e *Engine) Snapshot() *Enumerating {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Loader returns the catalog loader.
func (e *Engine) Loader() *Loader { return e.loader }

// Count returns the number of active entries.
func (e *Engine) Count() int {
	return e.Snapshot().Count()
}

// OnReload registers a callback invoked after each successful reload.
func (e *Engine) OnReload(cb func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReloadCallbacks = append(e.onReloadCallbacks, cb)
}

func (e *Engine) notifyReload() {
	e.mu.RLock()
	callbacks := e.onReloadCallbacks
	e.mu.RUnlock()
	for _, cb := range callbacks {
		go cb()
	}
}

func (e *Engine) recordHit(s *signature.Signature) {
	e.mu.RLock()
	n := e.hitCounts[s.String()]
	e.mu.RUnlock()
	if n != nil {
		atomic.AddInt64(n, 1)
	}
}

// Entry describes one active whitelist entry for inspection surfaces.
type Entry struct {
	Signature *signature.Signature `json:"-"`
	Text      string               `json:"signature"`
	Kind      string               `json:"kind"`
	Hits      int64                `json:"hits"`
}

// Entries returns all active entries with their hit counts, in list order.
func (e *Engine) Entries() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sigs := e.current.Entries()
	out := make([]Entry, len(sigs))
	for i, s := range sigs {
		var hits int64
		if n := e.hitCounts[s.String()]; n != nil {
			hits = atomic.LoadInt64(n)
		}
		out[i] = Entry{Signature: s, Text: s.String(), Kind: s.Kind().Label(), Hits: hits}
	}
	return out
}

// CheckDescriptor evaluates a textual descriptor against the active
// whitelist. Probes do not count as hits; only real interceptions do.
func (e *Engine) CheckDescriptor(kind signature.Kind, declaring, name string, args []string) bool {
	return e.Snapshot().CheckDescriptor(kind, declaring, name, args)
}

// The Engine implements Whitelist by delegating to the active snapshot
// and recording per-entry hits for the inspection surfaces.

// PermitsMethod permits an instance method call.
func (e *Engine) PermitsMethod(m lang.Method, receiver any, args []any) bool {
	wl := e.Snapshot()
	if s := wl.matchMethod(wl.methods, m); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsConstructor permits an object construction.
func (e *Engine) PermitsConstructor(c lang.Constructor, args []any) bool {
	wl := e.Snapshot()
	if s := wl.matchConstructor(c); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsStaticMethod permits a static method call.
func (e *Engine) PermitsStaticMethod(m lang.Method, args []any) bool {
	wl := e.Snapshot()
	if s := wl.matchMethod(wl.staticMethods, m); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsFieldGet permits an instance field read.
func (e *Engine) PermitsFieldGet(f lang.Field, receiver any) bool {
	wl := e.Snapshot()
	if s := wl.matchField(wl.fields, f); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsFieldSet permits an instance field write.
func (e *Engine) PermitsFieldSet(f lang.Field, receiver any, value any) bool {
	wl := e.Snapshot()
	if s := wl.matchField(wl.fields, f); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsStaticFieldGet permits a static field read.
func (e *Engine) PermitsStaticFieldGet(f lang.Field) bool {
	wl := e.Snapshot()
	if s := wl.matchField(wl.staticFields, f); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}

// PermitsStaticFieldSet permits a static field write.
func (e *Engine) PermitsStaticFieldSet(f lang.Field, value any) bool {
	wl := e.Snapshot()
	if s := wl.matchField(wl.staticFields, f); s != nil {
		e.recordHit(s)
		return true
	}
	return false
}
