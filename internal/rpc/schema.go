package rpc

import (
	"bytes"
	"encoding/json"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	invopopschema "github.com/invopop/jsonschema"
	santhoshschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// buildParamSchema generates a JSON Schema object describing an
// object-shaped params payload keyed by paramNames, one property per
// declared parameter type, using invopop/jsonschema's Go-type reflection.
// A nil paramType (untyped/"any" parameter) contributes a schema-less
// property, matching spec.md's "declared parameter types are advisory"
// note: unknown types don't block dispatch, they just aren't validated.
func buildParamSchema(paramNames []string, paramTypes []reflect.Type) *invopopschema.Schema {
	reflector := &invopopschema.Reflector{DoNotReference: true}
	props := orderedmap.New[string, *invopopschema.Schema]()
	required := make([]string, 0, len(paramNames))

	for i, name := range paramNames {
		var propSchema *invopopschema.Schema
		if i < len(paramTypes) && paramTypes[i] != nil {
			propSchema = reflector.Reflect(reflect.New(paramTypes[i]).Elem().Interface())
		} else {
			propSchema = &invopopschema.Schema{}
		}
		props.Set(name, propSchema)
		required = append(required, name)
	}

	return &invopopschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// compileParamSchema renders schema to JSON and compiles it with
// santhosh-tekuri/jsonschema, the validation half of the same library pair
// the teacher's internal/schema package used for MCP request validation.
func compileParamSchema(resourceID string, schema *invopopschema.Schema) (*santhoshschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal generated param schema", nil)
	}
	compiler := santhoshschema.NewCompiler()
	compiler.Draft = santhoshschema.Draft2020
	if err := compiler.AddResource(resourceID, bytes.NewReader(raw)); err != nil {
		return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "add param schema resource", nil)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "compile param schema", nil)
	}
	return compiled, nil
}

// validateNamedParams checks an object-shaped decode of raw against
// entry's compiled schema, when one was built (methods declared with no
// parameter names have nothing to validate).
func validateNamedParams(schema *santhoshschema.Schema, raw json.RawMessage) error {
	if schema == nil || len(raw) == 0 {
		return nil
	}
	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return rpcerr.NewInvalidParams("", err)
	}
	// Array-shaped params (the default positional call encoding) aren't
	// validated against the object schema rpc.get_method_info advertises;
	// only the named/object form is schema-checked here.
	if _, isArray := instance.([]interface{}); isArray {
		return nil
	}
	if err := schema.Validate(instance); err != nil {
		return rpcerr.NewInvalidParams("", err)
	}
	return nil
}
