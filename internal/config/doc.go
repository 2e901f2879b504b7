// SPDX-License-Identifier: MPL-2.0

// Package config loads the global gantry configuration.
//
// Configuration lives in a CUE file under the platform config directory
// (e.g. ~/.config/gantry/config.cue on Linux) and is merged over built-in
// defaults via viper. The file is validated against an embedded #Config
// schema before merging, so typos and type mismatches are reported with
// field locations instead of silently producing zero values.
package config
