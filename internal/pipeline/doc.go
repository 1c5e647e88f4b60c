// Package pipeline drives each input video through the subtitle and dubbing
// stages and runs multi-video batches.
//
// Stages run strictly in order for one video:
//
//	extract_audio -> transcribe -> translate? -> write_subtitles ->
//	synthesize_tts? -> composite_audio? -> burn_subtitles
//
// Translation and dubbing failures degrade the result (original-language
// subtitles, no dubbed file) and are recorded on the Report. Failures that
// prevent the subtitled video from being produced end the video in
// StatePartialFailure. The batch always moves on to the next video.
//
// Batch holds an advisory file lock on the output directory for its whole
// run and records every outcome in the run ledger when one is configured.
package pipeline
