// Package tts turns translated transcript segments into per-segment speech
// clips by invoking an external synthesis process.
//
// The synthesis process is treated as an out-of-process RPC: a Request
// (text, output path, language, voice reference, emotion) goes in as command
// flags, and success is exit status zero plus the output file existing.
// Each segment runs under its own timeout. Failures are logged and the
// segment is skipped; the Orchestrator never aborts the batch for one clip.
//
// Artifacts are sparse and index-aligned: Artifact.SegmentIndex is the
// authoritative link back to the transcript, and clip filenames follow
// segment_%04d.wav.
package tts
