// Package main hosts the tonearm CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into codec adapter
// runs (decode, encode), full conversions through the pipeline (convert),
// tool and format listings, job history queries, and configuration
// scaffolding. It centralizes configuration resolution, tool registration,
// and logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
