// Package registry implements the protocol registry of spec.md §4.8: a
// process-wide, name-keyed factory for constructing registered message
// types, with automatically assigned numeric type ids for in-process use
// and an explicit reservation mechanism for ids that must stay stable
// across the wire.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// TypeID identifies a registered type, either auto-assigned (above
// ReservedBase) or explicitly reserved (below it).
type TypeID uint32

// ReservedBase is the boundary between caller-reserved ids (< ReservedBase)
// and auto-assigned ids (> ReservedBase).
const ReservedBase TypeID = 1 << 16

// IProto is implemented by every type registered with Factory: a marker
// that lets Create return a concrete instance through a single interface.
type IProto interface {
	ProtoName() string
}

type registration struct {
	name        string
	id          TypeID
	reserved    bool
	constructor func() IProto
	typ         reflect.Type
}

// Option configures a Register call.
type Option func(*registration)

// WithReservedID pins name to a wire-stable id below ReservedBase. Only
// reserved ids are safe to persist or send across process boundaries;
// auto-assigned ids may change between runs as new types are registered.
func WithReservedID(id TypeID) Option {
	return func(r *registration) {
		r.reserved = true
		r.id = id
	}
}

// Factory is a process-wide registry of constructible protocol types.
// Register is expected to complete, for all types an application will use,
// before any goroutine calls Create concurrently — the same thread-safety
// model spec.md §4.8 describes. Register itself takes a lock so concurrent
// registration calls don't race each other.
type Factory struct {
	mu        sync.Mutex
	byName    sync.Map // string -> *registration
	byID      sync.Map // TypeID -> *registration
	nextAuto  TypeID
	log       logging.Logger
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{nextAuto: ReservedBase + 1, log: logging.GetLogger("registry")}
}

// Default is the package-level Factory most applications share, mirroring
// how a single process typically wants one protocol namespace.
var Default = NewFactory()

// Register associates name with a zero-arg constructor. Re-registering an
// existing name replaces its constructor and logs a warning, exactly as
// spec.md directs — callers that reload plugins or redefine a type during
// development rely on this rather than a hard registration error — but
// preserves the name's id: the set of registered names is what determines
// every unreserved id (see renumberAutoLocked), and re-registration doesn't
// change that set, so the name's position in sorted order (and thus its id)
// comes out the same both before and after.
func Register[T IProto](f *Factory, name string, ctor func() T, opts ...Option) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &registration{name: name, constructor: func() IProto { return ctor() }, typ: reflect.TypeOf(ctor())}
	for _, opt := range opts {
		opt(r)
	}

	if existing, ok := f.byName.Load(name); ok {
		old := existing.(*registration)
		f.log.Warn("registry: re-registering name, replacing constructor", "name", name, "old_id", old.id)
		f.byID.Delete(old.id)
	}
	f.byName.Store(name, r)

	if r.reserved {
		f.byID.Store(r.id, r)
	} else {
		f.renumberAutoLocked()
	}
	return r.id
}

// renumberAutoLocked reassigns every unreserved registration's id in
// lexicographic name order, so id i always corresponds to the i-th name
// among unreserved registrations. Callers must hold f.mu. Run after every
// Register call that adds an unreserved name, which both keeps the sorted
// invariant spec.md §4.8 mandates and, as a side effect, preserves a
// re-registered name's id (the name set didn't change, so neither did its
// sorted position).
func (f *Factory) renumberAutoLocked() {
	var names []string
	f.byName.Range(func(k, v interface{}) bool {
		r := v.(*registration)
		if !r.reserved {
			names = append(names, k.(string))
		}
		return true
	})
	sort.Strings(names)

	next := ReservedBase + 1
	for _, name := range names {
		v, _ := f.byName.Load(name)
		r := v.(*registration)
		f.byID.Delete(r.id)
		r.id = next
		next++
		f.byID.Store(r.id, r)
	}
	f.nextAuto = next
}

// Renumber reassigns every unreserved registration's id in lexicographic
// name order. Register already maintains this invariant on every call, so
// this is normally unnecessary; it remains exported for callers who want an
// explicit deterministic pass (e.g. before serving traffic, for parity with
// spec.md's static-init registration model where every type registers
// before anything depends on an id).
func (f *Factory) Renumber() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renumberAutoLocked()
}

// Create constructs a fresh instance of the type registered under name.
func (f *Factory) Create(name string) (IProto, error) {
	v, ok := f.byName.Load(name)
	if !ok {
		return nil, rpcerr.WithDetails(rpcerr.ErrNotFound, rpcerr.CategoryRegistry, rpcerr.CodeInternalError,
			map[string]interface{}{"name": name})
	}
	return v.(*registration).constructor(), nil
}

// CreateByID constructs a fresh instance of the type registered under id.
func (f *Factory) CreateByID(id TypeID) (IProto, error) {
	v, ok := f.byID.Load(id)
	if !ok {
		return nil, rpcerr.WithDetails(rpcerr.ErrNotFound, rpcerr.CategoryRegistry, rpcerr.CodeInternalError,
			map[string]interface{}{"id": fmt.Sprintf("%d", id)})
	}
	return v.(*registration).constructor(), nil
}

// IDOf returns the TypeID registered for name.
func (f *Factory) IDOf(name string) (TypeID, bool) {
	v, ok := f.byName.Load(name)
	if !ok {
		return 0, false
	}
	return v.(*registration).id, true
}

// NameOf returns the name registered for id.
func (f *Factory) NameOf(id TypeID) (string, bool) {
	v, ok := f.byID.Load(id)
	if !ok {
		return "", false
	}
	return v.(*registration).name, true
}

// TypeOf returns the reflect.Type a name constructs, useful for schema
// generation and Variant alternative lists.
func (f *Factory) TypeOf(name string) (reflect.Type, bool) {
	v, ok := f.byName.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*registration).typ, true
}

// Names returns every registered name, sorted.
func (f *Factory) Names() []string {
	var names []string
	f.byName.Range(func(k, _ interface{}) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}
