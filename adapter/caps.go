package adapter

import (
	"fmt"
	"strings"

	"github.com/ftl/rigproxy/pkg/protocol"

	"github.com/ftl/tmv71adapter/tmv71"
)

// dumpCapsResponse renders the backend's capability surface in the
// format rigctld clients expect from dump_caps.
func dumpCapsResponse(version string) protocol.Response {
	caps := tmv71.RigCaps()

	var b strings.Builder
	fmt.Fprintf(&b, "Caps dump for model: 2\n")
	fmt.Fprintf(&b, "Model name:\t%s\n", caps.ModelName)
	fmt.Fprintf(&b, "Mfg name:\t%s\n", caps.MfgName)
	fmt.Fprintf(&b, "Backend version:\t%s\n", version)
	fmt.Fprintf(&b, "Backend copyright:\tMIT\n")
	fmt.Fprintf(&b, "Backend status:\tStable\n")
	fmt.Fprintf(&b, "Rig type:\tMobile\n")
	fmt.Fprintf(&b, "PTT type:\tRig capable\n")
	fmt.Fprintf(&b, "DCD type:\tRig capable\n")
	fmt.Fprintf(&b, "Port type:\tRS-232\n")
	fmt.Fprintf(&b, "Serial speed: %d..%d baud, 8N1, timeout %dms, %d retry\n",
		caps.SerialRateMin, caps.SerialRateMax, caps.TimeoutMs, caps.Retry)

	fmt.Fprintf(&b, "CTCSS:")
	for _, tone := range caps.CTCSSTones {
		fmt.Fprintf(&b, " %.1f", float64(tone)/10)
	}
	fmt.Fprintf(&b, " Hz, %d tones\n", len(caps.CTCSSTones))

	fmt.Fprintf(&b, "DCS:")
	for _, code := range caps.DCSCodes {
		fmt.Fprintf(&b, " %d", code)
	}
	fmt.Fprintf(&b, ", %d codes\n", len(caps.DCSCodes))

	fmt.Fprintf(&b, "Mode list:")
	for _, mode := range caps.Modes {
		fmt.Fprintf(&b, " %s", mode)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "VFO list: VFOA VFOB MEM currVFO\n")

	fmt.Fprintf(&b, "Tuning steps:\n")
	for _, step := range caps.TuningSteps {
		fmt.Fprintf(&b, "\t%.2f kHz\n", float64(step)/1000)
	}

	fmt.Fprintf(&b, "Memory name desc size:\t%d\n", caps.ChanDescSize)
	fmt.Fprintf(&b, "Memories:\n")
	for _, r := range caps.ChannelRanges {
		fmt.Fprintf(&b, "\t%d..%d:\t%s\n", r.From, r.To, r.Kind)
	}

	fmt.Fprintf(&b, "RX ranges:\n")
	for _, r := range caps.RXRanges {
		fmt.Fprintf(&b, "\t%d Hz - %d Hz\n", r.From, r.To)
	}
	fmt.Fprintf(&b, "TX ranges:\n")
	for _, r := range caps.TXRanges {
		fmt.Fprintf(&b, "\t%d Hz - %d Hz\n", r.From, r.To)
	}

	fmt.Fprintf(&b, "Can set Frequency:\tY\n")
	fmt.Fprintf(&b, "Can get Frequency:\tY\n")
	fmt.Fprintf(&b, "Can set Mode:\tY\n")
	fmt.Fprintf(&b, "Can get Mode:\tY\n")
	fmt.Fprintf(&b, "Can set VFO:\tY\n")
	fmt.Fprintf(&b, "Can get VFO:\tY\n")
	fmt.Fprintf(&b, "Can set PTT:\tY\n")
	fmt.Fprintf(&b, "Can get PTT:\tY\n")
	fmt.Fprintf(&b, "Can get DCD:\tY\n")
	fmt.Fprintf(&b, "Can set Split Freq:\tY\n")
	fmt.Fprintf(&b, "Can get Split Freq:\tY\n")
	fmt.Fprintf(&b, "Can set Split VFO:\tY\n")
	fmt.Fprintf(&b, "Can get Split VFO:\tY\n")
	fmt.Fprintf(&b, "Can set Tuning Step:\tY\n")
	fmt.Fprintf(&b, "Can get Tuning Step:\tY\n")
	fmt.Fprintf(&b, "Can set CTCSS:\tY\n")
	fmt.Fprintf(&b, "Can get CTCSS:\tY\n")
	fmt.Fprintf(&b, "Can set CTCSS Squelch:\tY\n")
	fmt.Fprintf(&b, "Can get CTCSS Squelch:\tY\n")
	fmt.Fprintf(&b, "Can set DCS Squelch:\tY\n")
	fmt.Fprintf(&b, "Can get DCS Squelch:\tY\n")
	fmt.Fprintf(&b, "Can set Mem:\tY\n")
	fmt.Fprintf(&b, "Can get Mem:\tY\n")
	fmt.Fprintf(&b, "Can get Channel:\tY\n")

	return protocol.Response{
		Command: "dump_caps",
		Data:    []string{b.String()},
		Keys:    []string{""},
		Result:  "0",
	}
}
