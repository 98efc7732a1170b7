// Package config loads, normalizes, and validates tonearm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TONEARM_TEMP_DIR. The Config type centralizes every knob the CLI and the
// conversion pipeline need: where codec tools live, how long a silent tool is
// tolerated, encoder defaults, and how output files are named.
package config
