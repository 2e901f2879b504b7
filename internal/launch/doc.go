// SPDX-License-Identifier: MPL-2.0

// Package launch runs built application images through a container engine:
// port publication, stream wiring, exit-code mapping and retry of transient
// engine failures.
package launch
