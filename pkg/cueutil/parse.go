// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize is the maximum accepted size for a CUE input file.
// Manifests and config files are small; anything beyond this is almost
// certainly a mistake (or an attempt to make the parser allocate unbounded
// memory).
const DefaultMaxFileSize = 1 << 20 // 1 MiB

type (
	// Option configures a parse operation.
	Option func(*options)

	options struct {
		filename    string
		concrete    bool
		maxFileSize int
	}

	// Result contains the outcome of a successful parse.
	Result[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, kept for callers that need to
		// inspect metadata beyond what the struct captures.
		Unified cue.Value
	}

	// FileTooLargeError is returned when a CUE input exceeds the size limit.
	FileTooLargeError struct {
		Path  string
		Size  int
		Limit int
	}
)

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d exceeds limit of %d bytes", e.Path, e.Size, e.Limit)
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithConcrete requires all values to be concrete after unification.
// Leave unset for documents where fields are optional and defaults are
// applied by the Go layer.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithMaxFileSize overrides the input size limit.
func WithMaxFileSize(limit int) Option {
	return func(o *options) { o.maxFileSize = limit }
}

// CheckFileSize returns a FileTooLargeError if data exceeds limit.
func CheckFileSize(data []byte, limit int, path string) error {
	if len(data) > limit {
		return &FileTooLargeError{Path: path, Size: len(data), Limit: limit}
	}
	return nil
}

// ParseAndDecode validates CUE data against an embedded schema and decodes
// the unified value into T:
//
//  1. Compile the schema and look up schemaPath (e.g. "#Appfile").
//  2. Compile the user data and unify it with the schema definition.
//  3. Validate and decode into a value of type T.
//
// Schema compilation failures are internal errors (the schema ships with the
// binary); user data failures are formatted with FormatError.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := options{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	unified := schemaRoot.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &result, Unified: unified}, nil
}

// ParseAndDecodeString is a convenience wrapper for schemas embedded as strings.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}
