// SPDX-License-Identifier: MPL-2.0

// Package supervisor implements a prefork process supervisor for WSGI
// applications.
//
// The master binds exactly one listening socket and spawns N worker
// processes that inherit it by file descriptor, so the kernel distributes
// accepted connections among them. Each worker touches a per-worker
// heartbeat file between requests; a worker whose heartbeat goes stale
// beyond the configured timeout is killed and replaced without disturbing
// its siblings. A worker that cannot import the application entry point
// exits with a distinguished code and takes the whole supervisor down
// before any connection is served.
package supervisor
