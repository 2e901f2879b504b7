// SPDX-License-Identifier: MPL-2.0

package appfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntrypoint is the sentinel error wrapped by InvalidEntrypointError.
var ErrInvalidEntrypoint = errors.New("invalid entrypoint")

type (
	// Entrypoint identifies a WSGI application object in module:attr form
	// (e.g. "server:app"). The module part may be dotted; both parts must be
	// valid Python identifiers. The supervisor resolves the module relative
	// to the chdir directory, so "server:app" with chdir "web_app" means
	// web_app/server.py exposing a callable named app.
	Entrypoint string

	// InvalidEntrypointError is returned when an Entrypoint is not in
	// module:attr form.
	InvalidEntrypointError struct {
		Value  Entrypoint
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidEntrypointError) Error() string {
	return fmt.Sprintf("invalid entrypoint %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidEntrypoint so callers can use errors.Is.
func (e *InvalidEntrypointError) Unwrap() error { return ErrInvalidEntrypoint }

// String returns the string representation of the Entrypoint.
func (p Entrypoint) String() string { return string(p) }

// Module returns the module path part (before the colon).
func (p Entrypoint) Module() string {
	mod, _, _ := strings.Cut(string(p), ":")
	return mod
}

// Attr returns the attribute name part (after the colon).
func (p Entrypoint) Attr() string {
	_, attr, _ := strings.Cut(string(p), ":")
	return attr
}

// Validate returns an error unless the Entrypoint is in module:attr form with
// a valid dotted module path and a valid attribute identifier.
func (p Entrypoint) Validate() error {
	s := string(p)

	mod, attr, found := strings.Cut(s, ":")
	if !found {
		return &InvalidEntrypointError{Value: p, Reason: "must be in module:attr form"}
	}
	if strings.Contains(attr, ":") {
		return &InvalidEntrypointError{Value: p, Reason: "must contain exactly one colon"}
	}

	if mod == "" {
		return &InvalidEntrypointError{Value: p, Reason: "module part is empty"}
	}
	for _, part := range strings.Split(mod, ".") {
		if !isIdentifier(part) {
			return &InvalidEntrypointError{Value: p, Reason: fmt.Sprintf("module segment %q is not a valid identifier", part)}
		}
	}

	if !isIdentifier(attr) {
		return &InvalidEntrypointError{Value: p, Reason: fmt.Sprintf("attribute %q is not a valid identifier", attr)}
	}

	return nil
}

// isIdentifier reports whether s is a valid ASCII Python identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
