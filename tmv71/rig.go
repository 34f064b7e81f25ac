package tmv71

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ReconcilePolicy decides what GetSplitVFO does when the radio's PTT
// band disagrees with the TX VFO of this session, e.g. after the
// operator changed bands on the front panel.
type ReconcilePolicy int

const (
	// ReconcileWarn keeps the session's TX VFO and logs a warning. This
	// preserves the host's intent and avoids oscillation between host
	// and front panel.
	ReconcileWarn ReconcilePolicy = iota
	// ReconcileTrustRadio adopts the radio's PTT band as the TX VFO.
	ReconcileTrustRadio
)

// Rig is a handle to one TM-V71(A).
//
// The radio forbids setting a frequency outside the selected band of a
// VFO. Rig therefore never uses the radio's VFO mode at all: it emulates
// VFO A and B with the memory channels 998 and 999, keeps both bands in
// memory mode, and routes every operation to the backing channel.
//
// A Rig is not safe for concurrent use; the caller serializes.
type Rig struct {
	trx Transport

	// ReconcileSplit selects the GetSplitVFO reconciliation behavior.
	ReconcileSplit ReconcilePolicy

	txVFO VFO
	rxVFO VFO
	split bool
}

// New returns a handle talking to the radio over the given transport.
// The radio is not reconfigured; that happens on the first SetVFO or
// SetSplitVFO.
func New(trx Transport) *Rig {
	return &Rig{
		trx:   trx,
		txVFO: VFOA,
		rxVFO: VFOA,
	}
}

// vfoToChannel resolves a VFO to its backing memory channel. An
// unspecified VFO is resolved through the radio's control band, falling
// back to VFO A if that read fails.
func (r *Rig) vfoToChannel(vfo VFO) int {
	switch vfo {
	case VFOA:
		return channelVFOA
	case VFOB:
		return channelVFOB
	default:
		bc, err := r.pullBC()
		if err != nil {
			log.Warn().Err(err).Msg("cannot resolve the current VFO, falling back to VFO A")
			return channelVFOA
		}
		return r.vfoToChannel(bc.Control)
	}
}

// vfoToBandResolved resolves a VFO to a band index, reading the control
// band for an unspecified VFO.
func (r *Rig) vfoToBandResolved(vfo VFO) (int, error) {
	switch vfo {
	case VFOA:
		return bandA, nil
	case VFOB:
		return bandB, nil
	case VFOCurrent:
		bc, err := r.pullBC()
		if err != nil {
			log.Warn().Err(err).Msg("cannot resolve the current band, falling back to band A")
			return bandA, nil
		}
		return vfoToBand(bc.Control)
	default:
		return 0, fmt.Errorf("%v does not identify a band: %w", vfo, ErrInvalidArgument)
	}
}

// resolveRX returns the VFO a receive-side operation applies to: the
// session's RX VFO while split is on, the requested VFO otherwise.
func (r *Rig) resolveRX(requested VFO) VFO {
	if r.split {
		return r.rxVFO
	}
	return requested
}

// resolveTX returns the VFO a transmit-side operation applies to: the
// session's TX VFO while split is on, the requested VFO otherwise.
func (r *Rig) resolveTX(requested VFO) VFO {
	if r.split {
		return r.txVFO
	}
	return requested
}

// updateMemory overlays the given partial record onto the channel's
// current state and writes it back. The channel is read first so that
// unspecified fields are never disturbed; if the read fails, nothing is
// written.
func (r *Rig) updateMemory(channel int, update MemoryUpdate) error {
	current, err := r.pullME(channel)
	if err != nil {
		return err
	}
	update.applyTo(&current)
	return r.pushME(current)
}

// provisionChannel writes a fresh record into a reserved virtual-VFO
// channel: 146.5 MHz FM, everything else zero.
func (r *Rig) provisionChannel(channel int) error {
	return r.pushME(Memory{
		Channel: channel,
		RXFreq:  146_500_000,
	})
}

// SetVFO selects the given VFO: it forces the controlling band into
// memory mode, makes sure the backing channel exists (creating it if the
// radio reports the slot empty), selects the channel on the band, and
// gives the band both control and PTT focus. SetVFO(VFOMem) only forces
// memory mode on the currently controlled band.
func (r *Rig) SetVFO(vfo VFO) error {
	var channel int
	ctrl := vfo

	switch vfo {
	case VFOA:
		channel = channelVFOA
	case VFOB:
		channel = channelVFOB
	case VFOMem:
		bc, err := r.pullBC()
		if err != nil {
			return err
		}
		ctrl = bc.Control
	default:
		return fmt.Errorf("unsupported VFO %v: %w", vfo, ErrInvalidArgument)
	}

	band, err := vfoToBand(ctrl)
	if err != nil {
		return err
	}

	// The virtual VFOs only work in memory mode.
	err = r.pushVM(band, bandModeMemory)
	if err != nil {
		return err
	}

	if channel > 0 {
		_, err = r.pullME(channel)
		switch {
		case errors.Is(err, ErrRejected):
			// empty slot
			log.Debug().Int("channel", channel).Msg("creating the backing channel for the virtual VFO")
			err = r.provisionChannel(channel)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		err = r.pushMR(band, channel)
		if err != nil {
			return err
		}
	}

	return r.pushBC(ControlPTT{Control: ctrl, PTT: ctrl})
}

// GetVFO reports which VFO the radio currently operates: VFOA or VFOB if
// the controlled band sits on the corresponding virtual channel, VFOMem
// for any other memory channel.
func (r *Rig) GetVFO() (VFO, error) {
	bc, err := r.pullBC()
	if err != nil {
		return 0, err
	}
	band, err := vfoToBand(bc.Control)
	if err != nil {
		return 0, err
	}
	selection, err := r.pullMR(band)
	if err != nil {
		return 0, err
	}

	switch selection.Channel {
	case channelVFOA:
		return VFOA, nil
	case channelVFOB:
		return VFOB, nil
	default:
		return VFOMem, nil
	}
}

// SetSplitVFO gives the TX VFO's band both control and PTT focus. With
// split enabled it additionally records the TX/RX VFO assignment for
// this session, which the frequency and mode operations route through.
func (r *Rig) SetSplitVFO(split bool, txVFO VFO) error {
	err := r.pushBC(ControlPTT{Control: txVFO, PTT: txVFO})
	if err != nil {
		return err
	}

	if split {
		r.txVFO = txVFO
		r.rxVFO = txVFO.opposite()
		r.split = true
		log.Debug().Stringer("tx", r.txVFO).Stringer("rx", r.rxVFO).Msg("split enabled")
	} else {
		r.split = false
	}
	return nil
}

// GetSplitVFO reports the split state and TX VFO of this session. The
// radio's PTT band is read as a cross-check; on disagreement the
// configured reconciliation policy applies. The session's value stands
// unless the policy says otherwise: the operator may have changed bands
// on the front panel, and silently following would surprise the host.
func (r *Rig) GetSplitVFO() (bool, VFO, error) {
	bc, err := r.pullBC()
	if err != nil {
		return false, 0, err
	}

	if bc.PTT != r.txVFO {
		switch r.ReconcileSplit {
		case ReconcileTrustRadio:
			log.Warn().
				Stringer("session", r.txVFO).
				Stringer("radio", bc.PTT).
				Msg("the PTT band was changed on the front panel, adopting it as the TX VFO")
			r.txVFO = bc.PTT
			r.rxVFO = bc.PTT.opposite()
		default:
			log.Warn().
				Stringer("session", r.txVFO).
				Stringer("radio", bc.PTT).
				Msg("the PTT band was changed on the front panel, still addressing the session's TX VFO")
		}
	}

	return r.split, r.txVFO, nil
}

// snapFrequency snaps a frequency in Hz to the radio's tuning grid and
// returns it together with the matching step index. Below 470 MHz the
// grid is the closer of 5 kHz and 6.25 kHz, ties going to 5 kHz; from
// 470 MHz on the grid coarsens to 10 kHz.
func snapFrequency(freq int64) (int64, int) {
	freq5 := roundToGrid(freq, 5000)
	freq625 := roundToGrid(freq, 6250)

	snapped, step := freq5, step5k
	if abs64(freq625-freq) < abs64(freq5-freq) {
		snapped, step = freq625, step6k25
	}

	if snapped >= 470_000_000 {
		return roundToGrid(snapped, 10000), step10k
	}
	return snapped, step
}

func roundToGrid(freq int64, grid int64) int64 {
	return (freq + grid/2) / grid * grid
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// SetFrequency tunes the given VFO's receive frequency, snapped to the
// supported grid. While split is on the operation goes to the session's
// RX VFO regardless of the requested one.
func (r *Rig) SetFrequency(vfo VFO, freq int64) error {
	channel := r.vfoToChannel(r.resolveRX(vfo))
	snapped, step := snapFrequency(freq)
	return r.updateMemory(channel, MemoryUpdate{
		RXFreq: &snapped,
		Step:   &step,
	})
}

// GetFrequency reads the given VFO's receive frequency. While split is
// on it reads the session's RX VFO.
func (r *Rig) GetFrequency(vfo VFO) (int64, error) {
	me, err := r.pullME(r.vfoToChannel(r.resolveRX(vfo)))
	if err != nil {
		return 0, err
	}
	return me.RXFreq, nil
}

// SetSplitFrequency tunes the transmit side: the session's TX VFO while
// split is on, the requested VFO otherwise.
func (r *Rig) SetSplitFrequency(vfo VFO, freq int64) error {
	channel := r.vfoToChannel(r.resolveTX(vfo))
	snapped, step := snapFrequency(freq)
	return r.updateMemory(channel, MemoryUpdate{
		RXFreq: &snapped,
		Step:   &step,
	})
}

// GetSplitFrequency reads the transmit-side frequency, routed like
// SetSplitFrequency.
func (r *Rig) GetSplitFrequency(vfo VFO) (int64, error) {
	me, err := r.pullME(r.vfoToChannel(r.resolveTX(vfo)))
	if err != nil {
		return 0, err
	}
	return me.RXFreq, nil
}

// SetMode sets the operating mode of the given VFO, routed like
// SetFrequency.
func (r *Rig) SetMode(vfo VFO, mode Mode) error {
	if !modeValid(mode) {
		return fmt.Errorf("unsupported mode %v: %w", mode, ErrInvalidArgument)
	}
	channel := r.vfoToChannel(r.resolveRX(vfo))
	return r.updateMemory(channel, MemoryUpdate{Mode: &mode})
}

// GetMode reads the operating mode and its passband width in Hz, routed
// like GetFrequency.
func (r *Rig) GetMode(vfo VFO) (Mode, int, error) {
	me, err := r.pullME(r.vfoToChannel(r.resolveRX(vfo)))
	if err != nil {
		return 0, 0, err
	}
	return me.Mode, me.Mode.Passband(), nil
}

// SetTuningStep sets the tuning step of the given VFO in Hz.
func (r *Rig) SetTuningStep(vfo VFO, step int) error {
	index, err := tuningStepIndex(step)
	if err != nil {
		return err
	}
	return r.updateMemory(r.vfoToChannel(vfo), MemoryUpdate{Step: &index})
}

// GetTuningStep reads the tuning step of the given VFO in Hz.
func (r *Rig) GetTuningStep(vfo VFO) (int, error) {
	me, err := r.pullME(r.vfoToChannel(vfo))
	if err != nil {
		return 0, err
	}
	return TuningSteps[me.Step], nil
}

type toneKind int

const (
	toneTX toneKind = iota
	toneCTCSS
	toneDCS
)

// setTone stores one of the three tone settings. The radio accepts only
// one of {TX tone, CTCSS squelch, DCS squelch} per channel, so the other
// two are cleared in the same write. A zero value disables all three.
func (r *Rig) setTone(vfo VFO, kind toneKind, value int) error {
	off := false
	update := MemoryUpdate{
		ToneEnabled:  &off,
		CTCSSEnabled: &off,
		DCSEnabled:   &off,
	}

	if value != 0 {
		on := true
		switch kind {
		case toneTX:
			index, err := ctcssToneIndex(value)
			if err != nil {
				return err
			}
			update.ToneEnabled = &on
			update.ToneIndex = &index
		case toneCTCSS:
			index, err := ctcssToneIndex(value)
			if err != nil {
				return err
			}
			update.CTCSSEnabled = &on
			update.CTCSSIndex = &index
		case toneDCS:
			index, err := dcsCodeIndex(value)
			if err != nil {
				return err
			}
			update.DCSEnabled = &on
			update.DCSIndex = &index
		}
	}

	return r.updateMemory(r.vfoToChannel(vfo), update)
}

// getTone reads one of the three tone settings. A disabled setting reads
// as 0 no matter what index the radio stores.
func (r *Rig) getTone(vfo VFO, kind toneKind) (int, error) {
	me, err := r.pullME(r.vfoToChannel(vfo))
	if err != nil {
		return 0, err
	}

	switch kind {
	case toneTX:
		if !me.ToneEnabled {
			return 0, nil
		}
		return CTCSSTones[me.ToneIndex], nil
	case toneCTCSS:
		if !me.CTCSSEnabled {
			return 0, nil
		}
		return CTCSSTones[me.CTCSSIndex], nil
	default:
		if !me.DCSEnabled {
			return 0, nil
		}
		return DCSCodes[me.DCSIndex], nil
	}
}

// SetCTCSSTone sets the transmit CTCSS tone in tenths of Hz, 0 disables.
func (r *Rig) SetCTCSSTone(vfo VFO, tone int) error {
	return r.setTone(vfo, toneTX, tone)
}

// GetCTCSSTone reads the transmit CTCSS tone in tenths of Hz.
func (r *Rig) GetCTCSSTone(vfo VFO) (int, error) {
	return r.getTone(vfo, toneTX)
}

// SetCTCSSSquelch sets the CTCSS tone squelch in tenths of Hz, 0 disables.
func (r *Rig) SetCTCSSSquelch(vfo VFO, tone int) error {
	return r.setTone(vfo, toneCTCSS, tone)
}

// GetCTCSSSquelch reads the CTCSS tone squelch in tenths of Hz.
func (r *Rig) GetCTCSSSquelch(vfo VFO) (int, error) {
	return r.getTone(vfo, toneCTCSS)
}

// SetDCSSquelch sets the DCS squelch code, 0 disables.
func (r *Rig) SetDCSSquelch(vfo VFO, code int) error {
	return r.setTone(vfo, toneDCS, code)
}

// GetDCSSquelch reads the DCS squelch code.
func (r *Rig) GetDCSSquelch(vfo VFO) (int, error) {
	return r.getTone(vfo, toneDCS)
}

// SetMemory selects a memory channel on the given VFO's band. The
// channels 998 and 999 back the virtual VFOs and cannot be selected
// directly.
func (r *Rig) SetMemory(vfo VFO, channel int) error {
	if channel < 0 || channel > 999 {
		return fmt.Errorf("memory channel %d out of range: %w", channel, ErrInvalidArgument)
	}
	if channel == channelVFOA || channel == channelVFOB {
		return fmt.Errorf("memory channel %d is reserved for the virtual VFOs: %w", channel, ErrInvalidArgument)
	}
	band, err := r.vfoToBandResolved(vfo)
	if err != nil {
		return err
	}
	return r.pushMR(band, channel)
}

// GetMemory reads the memory channel selected on the given VFO's band.
func (r *Rig) GetMemory(vfo VFO) (int, error) {
	band, err := r.vfoToBandResolved(vfo)
	if err != nil {
		return 0, err
	}
	selection, err := r.pullMR(band)
	if err != nil {
		return 0, err
	}
	return selection.Channel, nil
}

// SetPTT keys or unkeys the transmitter.
func (r *Rig) SetPTT(on bool) error {
	if on {
		return r.pushTX()
	}
	return r.pushRX()
}

// GetDCD reports whether the squelch of the given VFO's band is open.
func (r *Rig) GetDCD(vfo VFO) (bool, error) {
	band, err := r.vfoToBandResolved(vfo)
	if err != nil {
		return false, err
	}
	state, err := r.pullBY(band)
	if err != nil {
		return false, err
	}
	return state.Open, nil
}
