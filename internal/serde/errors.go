package serde

import (
	"github.com/cockroachdb/errors"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

var (
	// ErrMaxDepthExceeded is returned when codec recursion passes
	// Context.MaxDepth, the module's stand-in for cycle detection.
	ErrMaxDepthExceeded = rpcerr.WithDetails(
		errors.New("serde: max depth exceeded"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrRawUnsupported is returned by Encoder.Raw when a backend cannot
	// embed pre-formatted data verbatim.
	ErrRawUnsupported = rpcerr.WithDetails(
		errors.New("serde: backend does not support raw data"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrArrayShapeNoOptional is returned when a noname (array-shaped)
	// struct declares an optional field, which spec.md's type table
	// disallows since array position alone cannot signal absence.
	ErrArrayShapeNoOptional = rpcerr.WithDetails(
		errors.New("serde: array-shaped record cannot have optional fields"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrSizeMismatch is returned when a fixed-size array's decoded
	// element count does not equal its declared length.
	ErrSizeMismatch = rpcerr.WithDetails(
		errors.New("serde: decoded size does not match fixed length"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrUnknownVariant is returned when a Variant value fails to match
	// any of its declared alternatives during encode or decode.
	ErrUnknownVariant = rpcerr.WithDetails(
		errors.New("serde: no declared variant alternative matched"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrDecodeTargetNotPointer is returned when Decode (or a nested
	// codec call) is given a non-pointer or nil-pointer target.
	ErrDecodeTargetNotPointer = rpcerr.WithDetails(
		errors.New("serde: decode target must be a non-nil pointer"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrUnknownArrayLength is returned when a Decoder's StartArray
	// cannot report an element count up front; every array/slice codec
	// requires a known size-tag, per spec.md's size-tag model.
	ErrUnknownArrayLength = rpcerr.WithDetails(
		errors.New("serde: decoder could not determine array length"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)

	// ErrVariantRequiresCheckpoint is returned when decoding a Variant
	// against a Decoder that does not implement Checkpointer.
	ErrVariantRequiresCheckpoint = rpcerr.WithDetails(
		errors.New("serde: variant decode requires a checkpointable decoder"), rpcerr.CategorySerde, rpcerr.CodeInternalError, nil)
)
