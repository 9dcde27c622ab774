package rpc

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/serde/reflectenc"
)

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// BindHandler adapts fn, a function shaped
//
//	func(ctx context.Context, args *T) (R, error)
//
// into a Handler via internal/serde/reflectenc, spec.md §4.7's reflection
// backend: params are decoded to a generic object and bound field-by-field
// onto *T with reflectenc.Build/BindField, rather than requiring T to
// implement the serializer protocol itself. This is the shape
// reflectenc.BindField's own doc comment describes — an object-shaped RPC
// parameter bound onto a single struct-valued argument.
//
// BindHandler panics if fn's signature doesn't match; it is meant to be
// called once at method-registration time, not per-request.
func BindHandler(fn interface{}) Handler {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 2 || ft.NumOut() != 2 {
		panic("rpc.BindHandler: fn must be func(context.Context, *T) (R, error)")
	}
	if !ft.In(0).Implements(ctxType) {
		panic("rpc.BindHandler: fn's first argument must be a context.Context")
	}
	argType := ft.In(1)
	if argType.Kind() != reflect.Ptr || argType.Elem().Kind() != reflect.Struct {
		panic("rpc.BindHandler: fn's second argument must be a pointer to a struct")
	}

	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		argPtr := reflect.New(argType.Elem())

		if len(params) > 0 {
			var generic map[string]interface{}
			if err := json.Unmarshal(params, &generic); err != nil {
				return nil, rpcerr.NewInvalidParams("", err)
			}
			table, err := reflectenc.Build(argPtr.Interface())
			if err != nil {
				return nil, err
			}
			for _, name := range table.Names() {
				v, ok := generic[name]
				if !ok {
					continue
				}
				if err := reflectenc.BindField(table, name, v); err != nil {
					return nil, rpcerr.NewInvalidParams(name, err)
				}
			}
		}

		out := fv.Call([]reflect.Value{reflect.ValueOf(ctx), argPtr})
		var resErr error
		if e, ok := out[1].Interface().(error); ok {
			resErr = e
		}
		return out[0].Interface(), resErr
	}
}
