// Package history persists finished conversion jobs in SQLite.
//
// Each job row records the source and output paths, the codec, the step that
// ran last, its outcome and exit code, and timing. The lines a tool printed are
// stored alongside in job_messages so a failed conversion can be inspected
// after the fact with `tonearm history show`.
package history
