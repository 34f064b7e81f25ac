package tmv71

import "fmt"

// VFO identifies a tuning context of the radio as seen by the host
// framework. The radio itself has no full-range VFOs, only bands; the
// backend emulates VFO A and B with the memory channels 998 and 999.
type VFO int

const (
	VFOCurrent VFO = iota
	VFOA
	VFOB
	VFOMem
)

func (v VFO) String() string {
	switch v {
	case VFOA:
		return "VFOA"
	case VFOB:
		return "VFOB"
	case VFOMem:
		return "MEM"
	default:
		return "currVFO"
	}
}

// opposite returns the other emulated VFO. It is only meaningful for
// VFOA and VFOB.
func (v VFO) opposite() VFO {
	if v == VFOA {
		return VFOB
	}
	return VFOA
}

const (
	bandA = 0
	bandB = 1

	channelVFOA = 998
	channelVFOB = 999
)

// the radio's band operating modes, as used in the VM record
const (
	bandModeVFO    = 0
	bandModeMemory = 1
	bandModeCall   = 2
	bandModeWX     = 3
)

// Mode is an operating mode in the radio's own encoding.
type Mode int

const (
	ModeFM  Mode = 0 // wide FM
	ModeNFM Mode = 1
	ModeAM  Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeFM:
		return "FM"
	case ModeNFM:
		return "NFM"
	case ModeAM:
		return "AM"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Passband returns the receiver passband width in Hz for the given mode.
func (m Mode) Passband() int {
	switch m {
	case ModeFM:
		return 15000
	case ModeNFM:
		return 5000
	case ModeAM:
		return 4000
	default:
		return 0
	}
}

func modeValid(m Mode) bool {
	return m == ModeFM || m == ModeNFM || m == ModeAM
}

// Shift is a repeater shift direction in the radio's own encoding.
type Shift int

const (
	ShiftNone  Shift = 0
	ShiftPlus  Shift = 1
	ShiftMinus Shift = 2
)

func shiftValid(s Shift) bool {
	return s == ShiftNone || s == ShiftPlus || s == ShiftMinus
}

// TuningSteps lists the radio's tuning steps in Hz. The index into this
// table is what goes into the ME record's step fields.
var TuningSteps = []int{
	5000,
	6250,
	8330,
	10000,
	12500,
	15000,
	20000,
	25000,
	30000,
	50000,
	100000,
}

const (
	step5k   = 0
	step6k25 = 1
	step10k  = 4
)

// CTCSSTones lists the radio's 42 CTCSS tones in tenths of Hz. The index
// into this table is the tone code used in the ME record.
var CTCSSTones = []int{
	670, 719, 744, 770, 797, 825, 854, 885,
	915, 948, 974, 1000, 1035, 1072, 1109, 1148,
	1188, 1230, 1273, 1318, 1365, 1413, 1462, 1514,
	1567, 1622, 1679, 1738, 1799, 1862, 1928, 2035,
	2065, 2107, 2181, 2257, 2291, 2336, 2418, 2503,
	2541, 17500,
}

// DCSCodes lists the radio's 104 DCS codes. The index into this table is
// the DCS code index used in the ME record.
var DCSCodes = []int{
	23, 25, 26, 31, 32, 36, 43, 47,
	51, 53, 54, 65, 71, 72, 73, 74,
	114, 115, 116, 122, 125, 131, 132, 134,
	143, 145, 152, 155, 156, 162, 165, 172,
	174, 205, 212, 223, 225, 226, 243, 244,
	245, 246, 251, 252, 255, 261, 263, 265,
	266, 271, 274, 306, 311, 315, 325, 331,
	332, 343, 346, 351, 356, 364, 365, 371,
	411, 412, 413, 423, 431, 432, 445, 446,
	452, 454, 455, 462, 464, 465, 466, 503,
	506, 516, 523, 526, 532, 546, 565, 606,
	612, 624, 627, 631, 632, 654, 662, 664,
	703, 712, 723, 731, 732, 734, 743, 754,
}

func tuningStepIndex(hz int) (int, error) {
	for i, ts := range TuningSteps {
		if ts == hz {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unsupported tuning step %d Hz: %w", hz, ErrInvalidArgument)
}

func ctcssToneIndex(tone int) (int, error) {
	for i, t := range CTCSSTones {
		if t == tone {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unsupported CTCSS tone %d: %w", tone, ErrInvalidArgument)
}

func dcsCodeIndex(code int) (int, error) {
	for i, c := range DCSCodes {
		if c == code {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unsupported DCS code %d: %w", code, ErrInvalidArgument)
}

// ChannelRange describes a contiguous range of memory channels with the
// same role.
type ChannelRange struct {
	From int
	To   int
	Kind string
}

// FreqRange describes a receive or transmit frequency range in Hz.
type FreqRange struct {
	From int64
	To   int64
}

// Caps is the static capability surface of the TM-V71, handed to the
// host framework.
type Caps struct {
	ModelName     string
	MfgName       string
	SerialRateMin int
	SerialRateMax int
	TimeoutMs     int
	Retry         int
	Modes         []Mode
	TuningSteps   []int
	CTCSSTones    []int
	DCSCodes      []int
	ChannelRanges []ChannelRange
	ChanDescSize  int
	RXRanges      []FreqRange
	TXRanges      []FreqRange
}

// RigCaps returns the capability surface of the TM-V71(A).
func RigCaps() Caps {
	return Caps{
		ModelName:     "TM-V71(A)",
		MfgName:       "Kenwood",
		SerialRateMin: 9600,
		SerialRateMax: 57600,
		TimeoutMs:     1000,
		Retry:         3,
		Modes:         []Mode{ModeFM, ModeNFM, ModeAM},
		TuningSteps:   TuningSteps,
		CTCSSTones:    CTCSSTones,
		DCSCodes:      DCSCodes,
		ChannelRanges: []ChannelRange{
			{From: 0, To: 199, Kind: "MEM"},
			{From: 200, To: 219, Kind: "EDGE"},
			{From: 221, To: 222, Kind: "CALL"},
		},
		ChanDescSize: 8,
		RXRanges: []FreqRange{
			{From: 118_000_000, To: 470_000_000},
			{From: 136_000_000, To: 174_000_000},
			{From: 300_000_000, To: 524_000_000},
			{From: 800_000_000, To: 1_300_000_000},
		},
		TXRanges: []FreqRange{
			{From: 144_000_000, To: 148_000_000},
			{From: 430_000_000, To: 450_000_000},
		},
	}
}
