// Package dubbing assembles synthesized clips into a single audio track
// spanning the whole source video and muxes it back with the video stream.
//
// Clips are decoded in parallel with a bounded worker group, then placed
// sequentially in segment-index order so the mix is deterministic. The
// track length always equals the probed media duration; clip tails past the
// end are cut. Overlapping clips are summed by default.
package dubbing
