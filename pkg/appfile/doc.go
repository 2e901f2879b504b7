// SPDX-License-Identifier: MPL-2.0

// Package appfile defines the schema and parsing for gantry.cue app manifests.
//
// A manifest describes how to package a Python WSGI application into a
// container image and how to launch it: base interpreter image, dependency
// manifest, source tree, exposed port, worker count, request timeout, and the
// module:attr entry point the supervisor resolves after changing directory.
// Manifests are CUE documents validated against an embedded #Appfile schema;
// fields left unset receive the packaged defaults (python:3.9-slim, port 5000,
// 4 workers, 120 second timeout, web_app/server:app).
package appfile
