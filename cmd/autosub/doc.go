// Package main hosts the autosub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies per-invocation flag
// overrides, runs preflight checks, and hands the video list to the batch
// pipeline. History and dependency reports read the same state the batch
// writes.
//
// Keep this package lean: add behaviour to the internal packages first and
// surface it here through flags or dedicated commands.
package main
