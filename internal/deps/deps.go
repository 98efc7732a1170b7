package deps

import (
	"fmt"
	"strings"

	"tonearm/internal/tools"
)

// Requirement defines an external tool tonearm relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CodecRequirements lists the codec tools. Every tool is optional on its own:
// a missing decoder only disables that input format.
func CodecRequirements() []Requirement {
	return []Requirement{
		{Name: "refalac", Command: tools.RefALAC, Description: "Apple Lossless decoder", Optional: true},
		{Name: "wvunpack", Command: tools.WVUnpack, Description: "WavPack decoder", Optional: true},
		{Name: "fdkaac", Command: tools.FDKAAC, Description: "AAC encoder", Optional: true},
		{Name: "opusenc", Command: tools.OpusEnc, Description: "Opus encoder", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements against resolver and
// reports availability.
func CheckBinaries(resolver tools.Resolver, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolver == nil {
			resolver = tools.SystemPath{}
		}
		path, ok := resolver.Lookup(cmd)
		if !ok {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional entries.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
