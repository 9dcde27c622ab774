package rpc

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/serde"
	"github.com/nekoproto/nekogo/internal/serde/jsonenc"
)

// encodeParams implements spec.md §4.9's parameter-passing table:
//   - no arguments            -> omitted (nil)
//   - one reflected-record arg -> encode as an object ("automatic expansion")
//   - otherwise               -> encode as an array of the arguments in order
//
// A reflected record is any struct (or pointer to one); encodeParams detects
// it with isReflectedRecord rather than requiring the caller to pre-shape the
// call.
func encodeParams(args []interface{}) (json.RawMessage, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		if isReflectedRecord(args[0]) {
			w := jsonenc.NewWriter(jsonenc.Options{})
			if err := serde.Encode(context.Background(), w, args[0]); err != nil {
				return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "encode params record", nil)
			}
			return w.Bytes()
		}
		return encodeArrayParams(args)
	default:
		return encodeArrayParams(args)
	}
}

func encodeArrayParams(args []interface{}) (json.RawMessage, error) {
	w := jsonenc.NewWriter(jsonenc.Options{})
	if err := w.StartArray(len(args)); err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := serde.Encode(context.Background(), w, a); err != nil {
			return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "encode params element", nil)
		}
	}
	if err := w.EndArray(); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// encodeNamedParams encodes args as an object keyed by names, the
// name-mapping override spec.md describes for call_remote.
func encodeNamedParams(names []string, args []interface{}) (json.RawMessage, error) {
	if len(names) != len(args) {
		return nil, rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryRPC, rpcerr.CodeInvalidParams,
			map[string]interface{}{"reason": "argument count does not match declared parameter-name count"})
	}
	w := jsonenc.NewWriter(jsonenc.Options{})
	if err := w.StartObject(len(args)); err != nil {
		return nil, err
	}
	for i, name := range names {
		if err := w.Key(name); err != nil {
			return nil, err
		}
		if err := serde.Encode(context.Background(), w, args[i]); err != nil {
			return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "encode named param", nil)
		}
	}
	if err := w.EndObject(); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// decodeParamsInto decodes raw params (array or object form; the server
// accepts both per spec.md §4.9) into targets, one per declared parameter.
func decodeParamsInto(raw json.RawMessage, paramNames []string, targets []interface{}) error {
	if len(targets) == 0 {
		return nil
	}
	if len(raw) == 0 {
		return rpcerr.NewInvalidParams("", nil)
	}
	r, err := jsonenc.NewDOMReader(raw, jsonenc.ReaderOptions{})
	if err != nil {
		return rpcerr.NewInvalidParams("", err)
	}

	switch {
	case len(targets) == 1 && isReflectedRecord(targets[0]):
		return serde.Decode(context.Background(), r, targets[0])
	default:
		isArray, probeErr := probeIsArray(raw)
		if probeErr != nil {
			return rpcerr.NewInvalidParams("", probeErr)
		}
		if isArray {
			return decodePositional(r, targets)
		}
		return decodeByName(r, paramNames, targets)
	}
}

func probeIsArray(raw json.RawMessage) (bool, error) {
	trimmed := raw
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t' || trimmed[0] == '\n' || trimmed[0] == '\r') {
		trimmed = trimmed[1:]
	}
	if len(trimmed) == 0 {
		return false, rpcerr.NewInvalidParams("", nil)
	}
	return trimmed[0] == '[', nil
}

func decodePositional(r *jsonenc.DOMReader, targets []interface{}) error {
	n, err := r.StartArray()
	if err != nil {
		return err
	}
	if n != len(targets) {
		return rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryRPC, rpcerr.CodeInvalidParams,
			map[string]interface{}{"expected": len(targets), "got": n})
	}
	for _, t := range targets {
		if err := serde.Decode(context.Background(), r, t); err != nil {
			return err
		}
	}
	return r.EndArray()
}

// decodeByName decodes an object-shaped params payload by descending into
// each declared parameter name via NodeReader, independent of the order the
// object's keys appear on the wire.
func decodeByName(r *jsonenc.DOMReader, paramNames []string, targets []interface{}) error {
	if len(paramNames) != len(targets) {
		return rpcerr.New(nil, rpcerr.CategoryRPC, rpcerr.CodeInternalError,
			"method declares a different number of parameter names than targets", nil)
	}
	for i, name := range paramNames {
		if err := r.StartNode(name); err != nil {
			return err
		}
		if err := serde.Decode(context.Background(), r, targets[i]); err != nil {
			return err
		}
		if err := r.FinishNode(); err != nil {
			return err
		}
	}
	return nil
}

// isReflectedRecord reports whether v is a struct or a pointer to one, with
// a plain reflect.Kind test shared by encodeParams and decodeParamsInto so
// both agree on what counts as "a record" (automatic expansion).
func isReflectedRecord(v interface{}) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != reflect.TypeOf(json.RawMessage(nil))
}
