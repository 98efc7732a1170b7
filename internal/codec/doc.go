// Package codec defines the decoder and encoder adapters tonearm drives.
//
// Each adapter is a small value that pairs a resolved tool binary with an
// argument builder, a progress pattern and, for decoders, an output
// validator. Running the tool is delegated to process.Runner, so adapters
// never supervise processes themselves. Adapters hold mutable encoder
// settings and must not be shared between concurrent jobs.
package codec
