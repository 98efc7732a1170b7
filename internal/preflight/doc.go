// Package preflight provides readiness checks for the filesystem paths and
// codec tools that tonearm depends on.
//
// These checks run in two contexts:
//   - The conversion commands call RunAll before starting a job. If any
//     check fails, the command stops before launching a codec tool.
//   - The "tonearm tools" command uses CheckSystemDeps to display tool
//     availability.
//
// The output directory check only runs when an output directory is configured;
// otherwise files are written next to their source.
package preflight
