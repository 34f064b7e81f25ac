package tmv71

import "fmt"

// Channel is the host framework's view of one memory channel. Tones and
// codes are given as values (tenths of Hz for CTCSS, the code itself for
// DCS), 0 meaning disabled. The radio backs no banks, antennas, RIT/XIT,
// TX mode or scan groups; those simply do not appear here.
type Channel struct {
	Number       int
	Name         string
	RXFreq       int64
	Mode         Mode
	TuningStep   int // Hz
	Shift        Shift
	Offset       int64
	Reverse      bool
	CTCSSTone    int
	CTCSSSquelch int
	DCSSquelch   int
	TXFreq       int64
	Skip         bool
}

// GetChannel reads a memory channel including its name.
func (r *Rig) GetChannel(number int) (Channel, error) {
	me, err := r.pullME(number)
	if err != nil {
		return Channel{}, err
	}
	name, err := r.pullMN(number)
	if err != nil {
		return Channel{}, err
	}

	channel := Channel{
		Number:     me.Channel,
		Name:       name,
		RXFreq:     me.RXFreq,
		Mode:       me.Mode,
		TuningStep: TuningSteps[me.Step],
		Shift:      me.Shift,
		Offset:     me.Offset,
		Reverse:    me.Reverse,
		TXFreq:     me.TXFreq,
		Skip:       me.Lockout,
	}
	if me.ToneEnabled {
		channel.CTCSSTone = CTCSSTones[me.ToneIndex]
	}
	if me.CTCSSEnabled {
		channel.CTCSSSquelch = CTCSSTones[me.CTCSSIndex]
	}
	if me.DCSEnabled {
		channel.DCSSquelch = DCSCodes[me.DCSIndex]
	}
	return channel, nil
}

// SetChannel writes a memory channel including its name. At most one of
// the three tone settings ends up enabled: the first non-zero one of
// CTCSS tone, CTCSS squelch, DCS squelch. The repeater offset is snapped
// to the supported grid. The channels 998 and 999 back the virtual VFOs
// and cannot be written through this operation.
func (r *Rig) SetChannel(channel Channel) error {
	if channel.Number < 0 || channel.Number > 999 {
		return fmt.Errorf("memory channel %d out of range: %w", channel.Number, ErrInvalidArgument)
	}
	if channel.Number == channelVFOA || channel.Number == channelVFOB {
		return fmt.Errorf("memory channel %d is reserved for the virtual VFOs: %w", channel.Number, ErrInvalidArgument)
	}
	if !modeValid(channel.Mode) {
		return fmt.Errorf("unsupported mode %v: %w", channel.Mode, ErrInvalidArgument)
	}
	if !shiftValid(channel.Shift) {
		return fmt.Errorf("unsupported repeater shift %d: %w", channel.Shift, ErrInvalidArgument)
	}
	if len(channel.Name) > RigCaps().ChanDescSize {
		return fmt.Errorf("channel name %q is too long: %w", channel.Name, ErrInvalidArgument)
	}

	step, err := tuningStepIndex(channel.TuningStep)
	if err != nil {
		return err
	}
	offset, _ := snapFrequency(channel.Offset)

	me := Memory{
		Channel: channel.Number,
		RXFreq:  channel.RXFreq,
		Step:    step,
		Shift:   channel.Shift,
		Reverse: channel.Reverse,
		Offset:  offset,
		Mode:    channel.Mode,
		TXFreq:  channel.TXFreq,
		Lockout: channel.Skip,
	}

	switch {
	case channel.CTCSSTone != 0:
		me.ToneIndex, err = ctcssToneIndex(channel.CTCSSTone)
		me.ToneEnabled = true
	case channel.CTCSSSquelch != 0:
		me.CTCSSIndex, err = ctcssToneIndex(channel.CTCSSSquelch)
		me.CTCSSEnabled = true
	case channel.DCSSquelch != 0:
		me.DCSIndex, err = dcsCodeIndex(channel.DCSSquelch)
		me.DCSEnabled = true
	}
	if err != nil {
		return err
	}

	err = r.pushME(me)
	if err != nil {
		return err
	}
	return r.pushMN(channel.Number, channel.Name)
}
