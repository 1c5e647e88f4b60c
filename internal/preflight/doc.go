// Package preflight provides readiness checks for the external programs,
// directories, and translation endpoint that a batch depends on.
//
// `autosub run` calls RunAll before the first video so a missing ffmpeg or
// unwritable output directory fails fast instead of after a long
// transcription. `autosub deps` renders the same checks as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
