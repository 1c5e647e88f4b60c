// Package subtitles defines the timed-text model shared by every pipeline
// stage and renders it as SubRip (.srt).
//
// Segments are validated once, at the transcription boundary, so later stages
// can rely on start <= end and finite, non-negative offsets. FormatTimestamp
// and WriteSRT produce the on-disk format; ReadSRT and ValidateSRTContent read
// it back for verification.
package subtitles
