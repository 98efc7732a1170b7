package codec

import "strings"

// FormatInfo describes a media file as reported by the caller.
// Only ContainerType and FormatType take part in capability matching.
type FormatInfo struct {
	ContainerType    string
	ContainerProfile string
	FormatType       string
	FormatProfile    string
	FormatVersion    string
}

// SupportedType is a user-facing file type a decoder accepts.
type SupportedType struct {
	Name       string
	Extensions []string
}

// capability is one accepted container/format pair, compared
// case-insensitively without wildcards.
type capability struct {
	container string
	format    string
}

func (c capability) matches(info FormatInfo) bool {
	return strings.EqualFold(strings.TrimSpace(info.ContainerType), c.container) &&
		strings.EqualFold(strings.TrimSpace(info.FormatType), c.format)
}

func anyMatch(caps []capability, info FormatInfo) bool {
	for _, c := range caps {
		if c.matches(info) {
			return true
		}
	}
	return false
}

var pcmWave = []capability{{container: "Wave", format: "PCM"}}

// WaveFormat describes the intermediate files decoders produce.
var WaveFormat = FormatInfo{ContainerType: "Wave", FormatType: "PCM"}
