package tmv71

import (
	"fmt"
	"strconv"
	"strings"
)

// Memory is the radio's ME record: one memory channel with all sixteen
// positional fields. Frequencies are in Hz. The index fields refer to
// the TuningSteps, CTCSSTones and DCSCodes tables. TXStep has no known
// semantic; it is carried verbatim.
type Memory struct {
	Channel      int   // P1
	RXFreq       int64 // P2
	Step         int   // P3
	Shift        Shift // P4
	Reverse      bool  // P5
	ToneEnabled  bool  // P6
	CTCSSEnabled bool  // P7
	DCSEnabled   bool  // P8
	ToneIndex    int   // P9
	CTCSSIndex   int   // P10
	DCSIndex     int   // P11
	Offset       int64 // P12
	Mode         Mode  // P13
	TXFreq       int64 // P14
	TXStep       int   // P15
	Lockout      bool  // P16
}

func (m Memory) encode() string {
	return fmt.Sprintf("ME %03d,%010d,%d,%d,%d,%d,%d,%d,%02d,%02d,%03d,%08d,%d,%010d,%d,%d",
		m.Channel, m.RXFreq,
		m.Step, m.Shift,
		flag(m.Reverse), flag(m.ToneEnabled),
		flag(m.CTCSSEnabled), flag(m.DCSEnabled),
		m.ToneIndex, m.CTCSSIndex,
		m.DCSIndex, m.Offset,
		m.Mode, m.TXFreq,
		m.TXStep, flag(m.Lockout))
}

func parseMemory(line string) (Memory, error) {
	fields, err := splitRecord(line, "ME", 16)
	if err != nil {
		return Memory{}, err
	}

	var m Memory
	m.Channel, err = parseIntRange(fields[0], 0, 999)
	if err == nil {
		m.RXFreq, err = parseFreq(fields[1])
	}
	if err == nil {
		m.Step, err = parseIntRange(fields[2], 0, len(TuningSteps)-1)
	}
	if err == nil {
		m.Shift, err = parseShift(fields[3])
	}
	if err == nil {
		m.Reverse, err = parseFlag(fields[4])
	}
	if err == nil {
		m.ToneEnabled, err = parseFlag(fields[5])
	}
	if err == nil {
		m.CTCSSEnabled, err = parseFlag(fields[6])
	}
	if err == nil {
		m.DCSEnabled, err = parseFlag(fields[7])
	}
	if err == nil {
		m.ToneIndex, err = parseIntRange(fields[8], 0, len(CTCSSTones)-1)
	}
	if err == nil {
		m.CTCSSIndex, err = parseIntRange(fields[9], 0, len(CTCSSTones)-1)
	}
	if err == nil {
		m.DCSIndex, err = parseIntRange(fields[10], 0, len(DCSCodes)-1)
	}
	if err == nil {
		m.Offset, err = parseFreq(fields[11])
	}
	if err == nil {
		m.Mode, err = parseMode(fields[12])
	}
	if err == nil {
		m.TXFreq, err = parseFreq(fields[13])
	}
	if err == nil {
		m.TXStep, err = parseInt(fields[14])
	}
	if err == nil {
		m.Lockout, err = parseFlag(fields[15])
	}
	if err != nil {
		return Memory{}, fmt.Errorf("ME record %q: %w", line, err)
	}
	return m, nil
}

// MemoryUpdate is a partial ME record: only fields with a non-nil
// pointer are written, everything else keeps the value currently stored
// on the radio.
type MemoryUpdate struct {
	RXFreq       *int64
	Step         *int
	Shift        *Shift
	Reverse      *bool
	ToneEnabled  *bool
	CTCSSEnabled *bool
	DCSEnabled   *bool
	ToneIndex    *int
	CTCSSIndex   *int
	DCSIndex     *int
	Offset       *int64
	Mode         *Mode
	TXFreq       *int64
	TXStep       *int
	Lockout      *bool
}

func (u MemoryUpdate) applyTo(m *Memory) {
	if u.RXFreq != nil {
		m.RXFreq = *u.RXFreq
	}
	if u.Step != nil {
		m.Step = *u.Step
	}
	if u.Shift != nil {
		m.Shift = *u.Shift
	}
	if u.Reverse != nil {
		m.Reverse = *u.Reverse
	}
	if u.ToneEnabled != nil {
		m.ToneEnabled = *u.ToneEnabled
	}
	if u.CTCSSEnabled != nil {
		m.CTCSSEnabled = *u.CTCSSEnabled
	}
	if u.DCSEnabled != nil {
		m.DCSEnabled = *u.DCSEnabled
	}
	if u.ToneIndex != nil {
		m.ToneIndex = *u.ToneIndex
	}
	if u.CTCSSIndex != nil {
		m.CTCSSIndex = *u.CTCSSIndex
	}
	if u.DCSIndex != nil {
		m.DCSIndex = *u.DCSIndex
	}
	if u.Offset != nil {
		m.Offset = *u.Offset
	}
	if u.Mode != nil {
		m.Mode = *u.Mode
	}
	if u.TXFreq != nil {
		m.TXFreq = *u.TXFreq
	}
	if u.TXStep != nil {
		m.TXStep = *u.TXStep
	}
	if u.Lockout != nil {
		m.Lockout = *u.Lockout
	}
}

// ControlPTT is the radio's BC record: which band has control focus and
// which band transmits when keyed.
type ControlPTT struct {
	Control VFO
	PTT     VFO
}

func (c ControlPTT) encode() (string, error) {
	ctrl, err := vfoToBand(c.Control)
	if err != nil {
		return "", err
	}
	ptt, err := vfoToBand(c.PTT)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BC %d,%d", ctrl, ptt), nil
}

func parseControlPTT(line string) (ControlPTT, error) {
	fields, err := splitRecord(line, "BC", 2)
	if err != nil {
		return ControlPTT{}, err
	}
	ctrl, err := parseBand(fields[0])
	if err != nil {
		return ControlPTT{}, fmt.Errorf("BC record %q: %w", line, err)
	}
	ptt, err := parseBand(fields[1])
	if err != nil {
		return ControlPTT{}, fmt.Errorf("BC record %q: %w", line, err)
	}
	return ControlPTT{Control: ctrl, PTT: ptt}, nil
}

// BandMode is the radio's VM record: the operating mode of one band.
type BandMode struct {
	Band int
	Mode int
}

func parseBandMode(line string) (BandMode, error) {
	fields, err := splitRecord(line, "VM", 2)
	if err != nil {
		return BandMode{}, err
	}
	var m BandMode
	m.Band, err = parseIntRange(fields[0], bandA, bandB)
	if err != nil {
		return BandMode{}, fmt.Errorf("VM record %q: %w", line, err)
	}
	m.Mode, err = parseIntRange(fields[1], bandModeVFO, bandModeWX)
	if err != nil {
		return BandMode{}, fmt.Errorf("VM record %q: %w", line, err)
	}
	return m, nil
}

// ChannelSelection is the radio's MR record: the memory channel selected
// on one band.
type ChannelSelection struct {
	Band    int
	Channel int
}

func parseChannelSelection(line string) (ChannelSelection, error) {
	fields, err := splitRecord(line, "MR", 2)
	if err != nil {
		return ChannelSelection{}, err
	}
	var s ChannelSelection
	s.Band, err = parseIntRange(fields[0], bandA, bandB)
	if err != nil {
		return ChannelSelection{}, fmt.Errorf("MR record %q: %w", line, err)
	}
	s.Channel, err = parseIntRange(fields[1], 0, 999)
	if err != nil {
		return ChannelSelection{}, fmt.Errorf("MR record %q: %w", line, err)
	}
	return s, nil
}

// ChannelName is the radio's MN record: the up-to-eight-character name
// of a memory channel. A reply without a name field means the channel
// has no name.
type ChannelName struct {
	Channel int
	Name    string
}

func parseChannelName(line string) (ChannelName, error) {
	if !strings.HasPrefix(line, "MN ") {
		return ChannelName{}, fmt.Errorf("unexpected reply %q: %w", line, ErrRejected)
	}
	fields := strings.SplitN(line[3:], ",", 2)

	var n ChannelName
	var err error
	n.Channel, err = parseIntRange(fields[0], 0, 999)
	if err != nil {
		return ChannelName{}, fmt.Errorf("MN record %q: %w", line, err)
	}
	if len(fields) == 2 {
		n.Name = fields[1]
	}
	return n, nil
}

// SquelchState is the radio's BY record: whether the squelch of one band
// is currently open.
type SquelchState struct {
	Band int
	Open bool
}

func parseSquelchState(line string) (SquelchState, error) {
	fields, err := splitRecord(line, "BY", 2)
	if err != nil {
		return SquelchState{}, err
	}
	var s SquelchState
	s.Band, err = parseIntRange(fields[0], bandA, bandB)
	if err != nil {
		return SquelchState{}, fmt.Errorf("BY record %q: %w", line, err)
	}
	s.Open, err = parseFlag(fields[1])
	if err != nil {
		return SquelchState{}, fmt.Errorf("BY record %q: %w", line, err)
	}
	return s, nil
}

func splitRecord(line string, prefix string, count int) ([]string, error) {
	if !strings.HasPrefix(line, prefix+" ") {
		return nil, fmt.Errorf("unexpected reply %q to %s: %w", line, prefix, ErrRejected)
	}
	fields := strings.Split(line[len(prefix)+1:], ",")
	if len(fields) != count {
		return nil, fmt.Errorf("expected %d fields in %q: %w", count, line, ErrRejected)
	}
	return fields, nil
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// All integer fields are decimal on the wire, zero-padded to their
// width. The radio never sends signs or fractions.
func parseInt(field string) (int, error) {
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("not a decimal field %q: %w", field, ErrRejected)
	}
	return value, nil
}

func parseIntRange(field string, min, max int) (int, error) {
	value, err := parseInt(field)
	if err != nil {
		return 0, err
	}
	if value < min || value > max {
		return 0, fmt.Errorf("field %q out of range %d..%d: %w", field, min, max, ErrRejected)
	}
	return value, nil
}

func parseFreq(field string) (int64, error) {
	value, err := strconv.ParseInt(field, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("not a frequency field %q: %w", field, ErrRejected)
	}
	return value, nil
}

func parseFlag(field string) (bool, error) {
	switch field {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("flag field %q out of domain: %w", field, ErrRejected)
	}
}

func parseShift(field string) (Shift, error) {
	value, err := parseInt(field)
	if err != nil {
		return 0, err
	}
	shift := Shift(value)
	if !shiftValid(shift) {
		return 0, fmt.Errorf("shift value %d out of domain: %w", value, ErrProtocol)
	}
	return shift, nil
}

func parseMode(field string) (Mode, error) {
	value, err := parseInt(field)
	if err != nil {
		return 0, err
	}
	mode := Mode(value)
	if !modeValid(mode) {
		return 0, fmt.Errorf("mode value %d out of domain: %w", value, ErrProtocol)
	}
	return mode, nil
}

func parseBand(field string) (VFO, error) {
	value, err := parseIntRange(field, bandA, bandB)
	if err != nil {
		return 0, err
	}
	return bandToVFO(value), nil
}

func bandToVFO(band int) VFO {
	if band == bandA {
		return VFOA
	}
	return VFOB
}

func vfoToBand(vfo VFO) (int, error) {
	switch vfo {
	case VFOA:
		return bandA, nil
	case VFOB:
		return bandB, nil
	default:
		return 0, fmt.Errorf("%v does not identify a band: %w", vfo, ErrInvalidArgument)
	}
}
