package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindArgs struct {
	Name  string `neko:"name"`
	Count int    `neko:"count"`
}

func TestBindHandlerBindsObjectParams(t *testing.T) {
	h := BindHandler(func(_ context.Context, args *bindArgs) (string, error) {
		return args.Name, nil
	})

	out, err := h(context.Background(), json.RawMessage(`{"name":"widget","count":3}`))
	require.NoError(t, err)
	assert.Equal(t, "widget", out)
}

func TestBindHandlerPassesFieldsThrough(t *testing.T) {
	var seen bindArgs
	h := BindHandler(func(_ context.Context, args *bindArgs) (int, error) {
		seen = *args
		return args.Count * 2, nil
	})

	out, err := h(context.Background(), json.RawMessage(`{"name":"n","count":5}`))
	require.NoError(t, err)
	assert.Equal(t, 10, out)
	assert.Equal(t, "n", seen.Name)
	assert.Equal(t, 5, seen.Count)
}

func TestBindHandlerPropagatesHandlerError(t *testing.T) {
	h := BindHandler(func(_ context.Context, args *bindArgs) (string, error) {
		return "", errors.New("boom")
	})

	_, err := h(context.Background(), json.RawMessage(`{"name":"x","count":1}`))
	assert.EqualError(t, err, "boom")
}

func TestBindHandlerIgnoresUnknownKeys(t *testing.T) {
	h := BindHandler(func(_ context.Context, args *bindArgs) (string, error) {
		return args.Name, nil
	})

	out, err := h(context.Background(), json.RawMessage(`{"name":"ok","extra":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestBindHandlerEmptyParams(t *testing.T) {
	h := BindHandler(func(_ context.Context, args *bindArgs) (string, error) {
		return args.Name, nil
	})

	out, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestBindHandlerRejectsWrongSignature(t *testing.T) {
	assert.Panics(t, func() {
		BindHandler(func(_ context.Context, args bindArgs) (string, error) {
			return args.Name, nil
		})
	})
	assert.Panics(t, func() {
		BindHandler(func(args *bindArgs) (string, error) {
			return args.Name, nil
		})
	})
}
