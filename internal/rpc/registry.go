package rpc

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	invopopschema "github.com/invopop/jsonschema"
	santhoshschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// Handler decodes params, runs the method, and returns an encodable result.
// A nil result with a nil error is valid for a method with no return value.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// methodEntry is this module's RpcMethodEntry: a registered method's
// declared shape plus its bound handler.
type methodEntry struct {
	Name       string
	ParamNames []string
	ParamTypes []reflect.Type
	ReturnType reflect.Type
	Handler    Handler
	Bound      bool

	paramSchema    *invopopschema.Schema
	compiledSchema *santhoshschema.Schema
}

// Info is the human-readable signature rpc.get_method_info returns.
type Info struct {
	Name       string          `json:"name"`
	ParamNames []string        `json:"param_names"`
	ParamTypes []string        `json:"param_types"`
	ReturnType string          `json:"return_type"`
	Bound      bool            `json:"bound"`
	ParamSchema json.RawMessage `json:"param_schema,omitempty"`
}

// MethodRegistry maps method names to methodEntry, generalizing the
// teacher's router.Router away from a fixed MCP method set: any JSON-RPC
// method, declared with its parameter-name list (used to decide how
// encodeParams shapes the wire params and to validate call_remote's
// name-mapping override).
type MethodRegistry struct {
	mu      sync.RWMutex
	entries map[string]*methodEntry
	logger  logging.Logger
}

// NewMethodRegistry builds an empty registry and wires in the built-in
// introspection methods (rpc.get_method_list etc.).
func NewMethodRegistry(logger logging.Logger) *MethodRegistry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	r := &MethodRegistry{
		entries: make(map[string]*methodEntry),
		logger:  logger.WithField("component", "method_registry"),
	}
	r.registerIntrospection()
	return r
}

// Register binds a handler to name with the given declared parameter names
// and types. Re-registration replaces the prior entry and logs a warning,
// mirroring registry.Factory's re-registration behavior.
func (r *MethodRegistry) Register(name string, paramNames []string, paramTypes []reflect.Type, returnType reflect.Type, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		r.logger.Warn("rpc: re-registering method, replacing prior handler", "method", name)
	}
	entry := &methodEntry{
		Name:       name,
		ParamNames: paramNames,
		ParamTypes: paramTypes,
		ReturnType: returnType,
		Handler:    handler,
		Bound:      handler != nil,
	}
	if len(paramNames) > 0 {
		entry.paramSchema = buildParamSchema(paramNames, paramTypes)
		if compiled, err := compileParamSchema("mem://rpc/"+name+".json", entry.paramSchema); err == nil {
			entry.compiledSchema = compiled
		} else {
			r.logger.Warn("rpc: failed to compile generated param schema, named-param calls won't be validated", "method", name, "error", err.Error())
		}
	}
	r.entries[name] = entry
}

// Declare registers a method's shape without a handler (Bound stays
// false), for advertising a method the peer knows of but does not serve
// locally.
func (r *MethodRegistry) Declare(name string, paramNames []string, paramTypes []reflect.Type, returnType reflect.Type) {
	r.Register(name, paramNames, paramTypes, returnType, nil)
}

// Lookup returns the entry for name, or false if no such method was ever
// declared.
func (r *MethodRegistry) Lookup(name string) (*methodEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Dispatch invokes the bound handler for name, returning rpcerr's
// MethodNotFound if name is undeclared or declared-but-unbound, or
// InvalidParams if params fails validation against the method's generated
// schema (named/object-shaped params only; see validateNamedParams).
func (r *MethodRegistry) Dispatch(ctx context.Context, name string, params json.RawMessage) (interface{}, error) {
	entry, ok := r.Lookup(name)
	if !ok || !entry.Bound {
		return nil, rpcerr.NewMethodNotFound(name)
	}
	if err := validateNamedParams(entry.compiledSchema, params); err != nil {
		return nil, err
	}
	return entry.Handler(ctx, params)
}

// names returns every declared method name, sorted.
func (r *MethodRegistry) names(boundOnly bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if boundOnly && !e.Bound {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *MethodRegistry) info(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Info{}, false
	}
	return entryInfo(e), true
}

func entryInfo(e *methodEntry) Info {
	types := make([]string, len(e.ParamTypes))
	for i, t := range e.ParamTypes {
		if t == nil {
			types[i] = "any"
			continue
		}
		types[i] = t.String()
	}
	ret := "void"
	if e.ReturnType != nil {
		ret = e.ReturnType.String()
	}
	var schemaJSON json.RawMessage
	if e.paramSchema != nil {
		if raw, err := json.Marshal(e.paramSchema); err == nil {
			schemaJSON = raw
		}
	}
	return Info{
		Name:        e.Name,
		ParamNames:  e.ParamNames,
		ParamTypes:  types,
		ReturnType:  ret,
		Bound:       e.Bound,
		ParamSchema: schemaJSON,
	}
}

// registerIntrospection wires the four built-in methods spec.md §4.9
// requires every server to expose.
func (r *MethodRegistry) registerIntrospection() {
	r.entries["rpc.get_method_list"] = &methodEntry{
		Name: "rpc.get_method_list", Bound: true,
		Handler: func(context.Context, json.RawMessage) (interface{}, error) {
			return r.names(false), nil
		},
	}
	r.entries["rpc.get_bind_method_list"] = &methodEntry{
		Name: "rpc.get_bind_method_list", Bound: true,
		Handler: func(context.Context, json.RawMessage) (interface{}, error) {
			return r.names(true), nil
		},
	}
	r.entries["rpc.get_method_info"] = &methodEntry{
		Name: "rpc.get_method_info", Bound: true,
		Handler: func(_ context.Context, params json.RawMessage) (interface{}, error) {
			var name string
			if err := json.Unmarshal(params, &name); err != nil {
				var arr []string
				if err2 := json.Unmarshal(params, &arr); err2 != nil || len(arr) != 1 {
					return nil, rpcerr.NewInvalidParams("rpc.get_method_info", err)
				}
				name = arr[0]
			}
			info, ok := r.info(name)
			if !ok {
				return nil, rpcerr.NewMethodNotFound(name)
			}
			return info, nil
		},
	}
	r.entries["rpc.get_method_info_list"] = &methodEntry{
		Name: "rpc.get_method_info_list", Bound: true,
		Handler: func(context.Context, json.RawMessage) (interface{}, error) {
			names := r.names(false)
			out := make([]Info, 0, len(names))
			for _, n := range names {
				if info, ok := r.info(n); ok {
					out = append(out, info)
				}
			}
			return out, nil
		},
	}
}
