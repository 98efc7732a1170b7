package logging

import "strings"

// FormatSubject builds the job/stage subject string used in console output.
func FormatSubject(jobID, codec, stage string) string {
	jobID = strings.TrimSpace(jobID)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	detail := make([]string, 0, 2)
	for _, part := range []string{strings.TrimSpace(codec), strings.TrimSpace(stage)} {
		if part != "" {
			detail = append(detail, part)
		}
	}
	switch {
	case jobID != "" && len(detail) > 0:
		return "Job " + jobID + " (" + strings.Join(detail, " · ") + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return strings.Join(detail, " · ")
	}
}
