// Package process supervises external codec tools.
//
// A Runner launches one tool per call with stdout and stderr merged into a
// single pipe, parses its output line by line against a ProgressPattern, and
// forwards progress percentages and free-form lines to a Sink in emission
// order. It enforces a read timeout, honours an AbortFlag and context
// cancellation, and classifies the run into an Outcome. Codec adapters differ
// only in the Invocation they hand to the runner.
package process
