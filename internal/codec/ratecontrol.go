package codec

import (
	"fmt"
	"strings"
)

// RCMode is an encoder rate-control mode.
type RCMode int

const (
	VBR RCMode = iota
	ABR
	CBR
)

func (m RCMode) String() string {
	switch m {
	case VBR:
		return "vbr"
	case ABR:
		return "abr"
	case CBR:
		return "cbr"
	default:
		return fmt.Sprintf("rcmode(%d)", int(m))
	}
}

// ParseRCMode accepts vbr, abr, or cbr in any case.
func ParseRCMode(value string) (RCMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "vbr":
		return VBR, nil
	case "abr":
		return ABR, nil
	case "cbr":
		return CBR, nil
	default:
		return VBR, fmt.Errorf("unknown rate-control mode %q", value)
	}
}

// ValueType tells how a rate-control value is interpreted.
type ValueType int

const (
	QualityLevel ValueType = iota
	Bitrate
)

func (t ValueType) String() string {
	if t == Bitrate {
		return "bitrate"
	}
	return "quality"
}

type valueTable struct {
	count int
	kind  ValueType
	at    func(index int) int
}

// EncoderInfo describes an encoder's user-facing settings.
type EncoderInfo struct {
	Description string
	Extension   string
	// NeedsTimingInfo marks encoders that report progress as elapsed time
	// and need MetaInfo.Duration to compute a percentage.
	NeedsTimingInfo bool
	tables          map[RCMode]valueTable
}

// IsModeSupported reports whether the encoder accepts mode.
func (i EncoderInfo) IsModeSupported(mode RCMode) bool {
	_, ok := i.tables[mode]
	return ok
}

// ValueCount is the number of selectable indices for mode, 0 when unsupported.
func (i EncoderInfo) ValueCount(mode RCMode) int {
	return i.tables[mode].count
}

// ValueAt maps a setting index to the value passed to the tool.
func (i EncoderInfo) ValueAt(mode RCMode, index int) (int, bool) {
	t, ok := i.tables[mode]
	if !ok {
		return 0, false
	}
	return t.at(index), true
}

// ValueType reports whether values of mode are bitrates or quality levels.
func (i EncoderInfo) ValueType(mode RCMode) (ValueType, bool) {
	t, ok := i.tables[mode]
	return t.kind, ok
}

// Modes lists the supported rate-control modes in VBR, ABR, CBR order.
func (i EncoderInfo) Modes() []RCMode {
	var out []RCMode
	for _, m := range []RCMode{VBR, ABR, CBR} {
		if i.IsModeSupported(m) {
			out = append(out, m)
		}
	}
	return out
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}

// fdkIndexToBitrate spaces the first 32 steps 8 kbit/s apart and the rest 16.
func fdkIndexToBitrate(index int) int {
	if index < 32 {
		return (index + 1) * 8
	}
	return (index - 15) * 16
}

// FDKBitrate maps a CBR index to kbit/s for fdkaac.
func FDKBitrate(index int) int {
	return clamp(fdkIndexToBitrate(index), 8, 576)
}

// FDKQuality maps a VBR index to an fdkaac -m level.
func FDKQuality(index int) int {
	return clamp(index+1, 1, 5)
}

// OpusBitrate maps an index to kbit/s for opusenc in every mode.
func OpusBitrate(index int) int {
	return clamp((index+1)*8, 8, 256)
}
