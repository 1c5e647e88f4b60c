// Package services defines shared utilities consumed by the pipeline stages
// and the external capability wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp the batch run ID, the video being processed,
//     the stage name, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     stage and operation that produced them.
//   - Classification of soft failures (degrade and continue) versus hard
//     failures (abort the current video).
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
