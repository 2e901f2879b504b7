// SPDX-License-Identifier: MPL-2.0

// Package build turns an application manifest into a container image.
//
// The pipeline stages a build context (a content-preserving copy of the
// source tree plus a generated Dockerfile), runs any pre-build hooks, invokes
// the container engine, runs post-build hooks, and records the result in a
// state file under .gantry/. Images are tagged with a content hash of the
// source tree so unchanged trees reuse the cached image.
package build
