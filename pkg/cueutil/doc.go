// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared helpers for parsing and validating CUE
// documents against embedded schemas.
//
// Both the app manifest (gantry.cue) and the global configuration file are
// CUE documents. This package implements the common flow once: compile the
// embedded schema, compile the user data, unify the two, validate, and decode
// into a Go struct. Validation failures are reported with JSON-path-style
// locations so users can find the offending field.
package cueutil
