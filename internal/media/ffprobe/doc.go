// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: executes ffprobe through an injectable runner and answers
//     duration queries for the compositor
//
// Helper methods on Result provide stream counts and duration parsing with a
// fallback to per-stream durations when the container omits one.
package ffprobe
