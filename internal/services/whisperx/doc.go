// Package whisperx runs WhisperX through uvx and converts its JSON output
// into a validated subtitles.Transcript.
//
// Malformed segments are rejected here, at the transcription boundary, with
// subtitles.ErrMalformedSegment. Configuration options (model, task, CUDA,
// VAD method) are passed via Config.
package whisperx
