// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for the CLI layer.
//
// An ActionableError carries the failed operation, the resource involved, and
// concrete suggestions for fixing the problem. Commands wrap infrastructure
// errors in ActionableError at the boundary so that the default output stays
// short while --verbose reveals the full error chain.
package issue
