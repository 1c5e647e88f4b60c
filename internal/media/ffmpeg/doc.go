// Package ffmpeg drives the ffmpeg binary for the media operations the
// pipeline needs: mono 16 kHz audio extraction for transcription, subtitle
// burn-in, and muxing a composite dub track with (or over) the source video.
//
// All invocations go through a CommandRunner so tests can assert on argument
// lists without ffmpeg installed.
package ffmpeg
