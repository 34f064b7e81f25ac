package tmv71

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMemoryEncode(t *testing.T) {
	m := Memory{
		Channel:     12,
		RXFreq:      446118750,
		Step:        1,
		Shift:       ShiftMinus,
		Reverse:     true,
		ToneEnabled: true,
		ToneIndex:   11,
		DCSIndex:    5,
		Offset:      600000,
		Mode:        ModeNFM,
		TXFreq:      446100000,
		Lockout:     true,
	}

	assert.Equal(t, "ME 012,0446118750,1,2,1,1,0,0,11,00,005,00600000,1,0446100000,0,1", m.encode())
}

func TestParseMemory(t *testing.T) {
	m, err := parseMemory("ME 005,0146520000,0,1,0,0,1,0,00,11,000,00600000,2,0146520000,0,0")
	require.NoError(t, err)

	assert.Equal(t, Memory{
		Channel:      5,
		RXFreq:       146520000,
		Shift:        ShiftPlus,
		CTCSSEnabled: true,
		CTCSSIndex:   11,
		Offset:       600000,
		Mode:         ModeAM,
		TXFreq:       146520000,
	}, m)
}

func TestParseMemoryInvalid(t *testing.T) {
	tt := []struct {
		desc     string
		line     string
		expected error
	}{
		{"wrong prefix", "MR 005,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0", ErrRejected},
		{"wrong field count", "ME 005,0146520000,0,0", ErrRejected},
		{"channel out of range", "ME 1000,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0", ErrRejected},
		{"non-decimal frequency", "ME 005,01465200ff,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0", ErrRejected},
		{"flag out of domain", "ME 005,0146520000,0,0,9,0,0,0,00,00,000,00000000,0,0000000000,0,0", ErrRejected},
		{"tone index out of range", "ME 005,0146520000,0,0,0,0,0,0,42,00,000,00000000,0,0000000000,0,0", ErrRejected},
		{"shift out of domain", "ME 005,0146520000,0,5,0,0,0,0,00,00,000,00000000,0,0000000000,0,0", ErrProtocol},
		{"mode out of domain", "ME 005,0146520000,0,0,0,0,0,0,00,00,000,00000000,7,0000000000,0,0", ErrProtocol},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := parseMemory(tc.line)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := Memory{
			Channel:      rapid.IntRange(0, 999).Draw(t, "channel"),
			RXFreq:       rapid.Int64Range(0, 9_999_999_999).Draw(t, "rxFreq"),
			Step:         rapid.IntRange(0, len(TuningSteps)-1).Draw(t, "step"),
			Shift:        Shift(rapid.IntRange(0, 2).Draw(t, "shift")),
			Reverse:      rapid.Bool().Draw(t, "reverse"),
			ToneEnabled:  rapid.Bool().Draw(t, "tone"),
			CTCSSEnabled: rapid.Bool().Draw(t, "ctcss"),
			DCSEnabled:   rapid.Bool().Draw(t, "dcs"),
			ToneIndex:    rapid.IntRange(0, len(CTCSSTones)-1).Draw(t, "toneIndex"),
			CTCSSIndex:   rapid.IntRange(0, len(CTCSSTones)-1).Draw(t, "ctcssIndex"),
			DCSIndex:     rapid.IntRange(0, len(DCSCodes)-1).Draw(t, "dcsIndex"),
			Offset:       rapid.Int64Range(0, 99_999_999).Draw(t, "offset"),
			Mode:         Mode(rapid.IntRange(0, 2).Draw(t, "mode")),
			TXFreq:       rapid.Int64Range(0, 9_999_999_999).Draw(t, "txFreq"),
			TXStep:       rapid.IntRange(0, 9).Draw(t, "txStep"),
			Lockout:      rapid.Bool().Draw(t, "lockout"),
		}

		parsed, err := parseMemory(m.encode())
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if parsed != m {
			t.Fatalf("round trip mismatch: %v != %v", parsed, m)
		}
	})
}

func TestMemoryUpdateDisjointFieldsCommute(t *testing.T) {
	freq := int64(145675000)
	step := 1
	mode := ModeAM
	on := true

	x := MemoryUpdate{RXFreq: &freq, Step: &step}
	y := MemoryUpdate{Mode: &mode, ToneEnabled: &on}

	base, err := parseMemory("ME 001,0146520000,0,1,0,0,0,0,03,04,005,00600000,1,0446100000,0,0")
	require.NoError(t, err)

	xy := base
	x.applyTo(&xy)
	y.applyTo(&xy)

	yx := base
	y.applyTo(&yx)
	x.applyTo(&yx)

	assert.Equal(t, xy, yx)
	assert.Equal(t, freq, xy.RXFreq)
	assert.Equal(t, mode, xy.Mode)
	// untouched fields keep their pulled values
	assert.Equal(t, base.Offset, xy.Offset)
	assert.Equal(t, base.TXFreq, xy.TXFreq)
}

func TestParseControlPTT(t *testing.T) {
	bc, err := parseControlPTT("BC 0,1")
	require.NoError(t, err)
	assert.Equal(t, ControlPTT{Control: VFOA, PTT: VFOB}, bc)

	_, err = parseControlPTT("BC 0,2")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestControlPTTEncode(t *testing.T) {
	cmd, err := ControlPTT{Control: VFOB, PTT: VFOB}.encode()
	require.NoError(t, err)
	assert.Equal(t, "BC 1,1", cmd)

	_, err = ControlPTT{Control: VFOMem, PTT: VFOA}.encode()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseBandMode(t *testing.T) {
	vm, err := parseBandMode("VM 1,1")
	require.NoError(t, err)
	assert.Equal(t, BandMode{Band: 1, Mode: bandModeMemory}, vm)

	_, err = parseBandMode("VM 1,7")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestParseChannelSelection(t *testing.T) {
	mr, err := parseChannelSelection("MR 0,998")
	require.NoError(t, err)
	assert.Equal(t, ChannelSelection{Band: 0, Channel: 998}, mr)
}

func TestParseChannelName(t *testing.T) {
	mn, err := parseChannelName("MN 005,CALLING")
	require.NoError(t, err)
	assert.Equal(t, ChannelName{Channel: 5, Name: "CALLING"}, mn)
}

func TestParseChannelNameEmpty(t *testing.T) {
	// a reply without a name field means the channel has no name
	mn, err := parseChannelName("MN 005")
	require.NoError(t, err)
	assert.Equal(t, ChannelName{Channel: 5, Name: ""}, mn)
}

func TestParseSquelchState(t *testing.T) {
	by, err := parseSquelchState("BY 0,1")
	require.NoError(t, err)
	assert.Equal(t, SquelchState{Band: 0, Open: true}, by)

	_, err = parseSquelchState("BY 0,9")
	assert.ErrorIs(t, err, ErrRejected)
}
