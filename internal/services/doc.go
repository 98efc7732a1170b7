// Package services defines shared utilities consumed by the codec adapters,
// the process runner and the conversion pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, codec names, and pipeline steps for
//     logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified with errors.Is regardless of where they were produced.
//
// Only ErrConfiguration is fatal; every other marker describes a single job
// that failed and can be reported without stopping the caller.
package services
