// Package pipeline converts one audio file: it picks the output file name,
// decodes the source to a temporary Wave file when the encoder cannot read it
// directly, runs the encoder, cleans up after failures, and records the job
// in the history store.
//
// A Pipeline holds no per-job state. Callers convert several files by calling
// Run once per file; each call gets its own job identifier.
package pipeline
