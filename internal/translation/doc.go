// Package translation rewrites transcript segment text into a target
// language while preserving segment count and timing.
//
// Segments are translated in fixed-size batches through a Backend. The
// Backend is obtained from a ModelCache keyed by model identity so repeated
// videos in one batch reuse the same client or process configuration.
//
// Any backend failure fails the whole call soft: the caller receives the
// original segments alongside an error matching ErrTranslationUnavailable.
package translation
