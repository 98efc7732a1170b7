package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFDKBitrateMapping(t *testing.T) {
	tests := []struct {
		index int
		want  int
	}{
		{-3, 8},
		{0, 8},
		{1, 16},
		{31, 256},
		{32, 272},
		{33, 288},
		{51, 576},
		{60, 576},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FDKBitrate(tc.index), "index %d", tc.index)
	}
}

func TestFDKQualityMapping(t *testing.T) {
	assert.Equal(t, 1, FDKQuality(-1))
	assert.Equal(t, 1, FDKQuality(0))
	assert.Equal(t, 3, FDKQuality(2))
	assert.Equal(t, 5, FDKQuality(4))
	assert.Equal(t, 5, FDKQuality(10))
}

func TestOpusBitrateMapping(t *testing.T) {
	assert.Equal(t, 8, OpusBitrate(-1))
	assert.Equal(t, 8, OpusBitrate(0))
	assert.Equal(t, 128, OpusBitrate(15))
	assert.Equal(t, 256, OpusBitrate(31))
	assert.Equal(t, 256, OpusBitrate(40))
}

func TestEncoderInfoTables(t *testing.T) {
	assert.True(t, fdkInfo.IsModeSupported(VBR))
	assert.True(t, fdkInfo.IsModeSupported(CBR))
	assert.False(t, fdkInfo.IsModeSupported(ABR))
	assert.Equal(t, 5, fdkInfo.ValueCount(VBR))
	assert.Equal(t, 52, fdkInfo.ValueCount(CBR))
	assert.Equal(t, 0, fdkInfo.ValueCount(ABR))
	assert.Equal(t, []RCMode{VBR, CBR}, fdkInfo.Modes())

	v, ok := fdkInfo.ValueAt(CBR, 51)
	assert.True(t, ok)
	assert.Equal(t, 576, v)
	_, ok = fdkInfo.ValueAt(ABR, 0)
	assert.False(t, ok)

	kind, ok := fdkInfo.ValueType(VBR)
	assert.True(t, ok)
	assert.Equal(t, QualityLevel, kind)

	for _, mode := range []RCMode{VBR, ABR, CBR} {
		assert.Equal(t, 32, opusInfo.ValueCount(mode))
		kind, ok := opusInfo.ValueType(mode)
		assert.True(t, ok)
		assert.Equal(t, Bitrate, kind)
	}
}

func TestParseRCMode(t *testing.T) {
	mode, err := ParseRCMode(" CBR ")
	assert.NoError(t, err)
	assert.Equal(t, CBR, mode)

	_, err = ParseRCMode("crf")
	assert.Error(t, err)
}
