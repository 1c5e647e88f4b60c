// Package logging assembles structured slog loggers and formatting helpers used
// across the AutoTranscriber pipeline.
//
// It owns the configurable console/JSON handlers, fans output out to the
// terminal and the persistent log file, and exposes context-aware helpers so
// stage code can automatically tag log lines with the run ID, video, stage,
// and correlation ID. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every stage emits
// data with the same shape.
package logging
