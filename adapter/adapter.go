package adapter

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	hamlib "github.com/ftl/rigproxy/pkg/client"
	"github.com/ftl/rigproxy/pkg/protocol"
	"github.com/rs/zerolog/log"

	"github.com/ftl/tmv71adapter/tmv71"
)

// Listen starts a rigctld-compatible server on the given local address
// and dispatches incoming requests to the TM-V71 backend. The server
// shuts down when done is closed.
func Listen(localAddress string, rig *tmv71.Rig, done <-chan struct{}, traceHamlib bool, version string) (*Adapter, error) {
	listener, err := net.Listen("tcp", localAddress)
	if err != nil {
		return nil, fmt.Errorf("cannot open local port %s: %w", localAddress, err)
	}

	result := &Adapter{
		listener:    listener,
		rig:         rig,
		closed:      make(chan struct{}),
		traceHamlib: traceHamlib,
		version:     version,
	}

	go result.run()
	go func() {
		select {
		case <-done:
			result.Close()
			return
		case <-result.closed:
			listener.Close()
			result.Close()
			return
		}
	}()

	return result, nil
}

// Adapter accepts hamlib network clients and serializes their requests
// onto one radio handle.
type Adapter struct {
	listener    net.Listener
	rig         *tmv71.Rig
	rigLock     sync.Mutex
	closed      chan struct{}
	traceHamlib bool
	version     string
}

func (a *Adapter) run() {
	for {
		select {
		case <-a.closed:
			return
		default:
		}

		c, err := a.listener.Accept()
		if err != nil {
			log.Error().Err(err).Msg("accept failed")
			a.Close()
			return
		}

		conn := inboundConnection{
			conn:          c,
			rig:           a.rig,
			rigLock:       &a.rigLock,
			adapterClosed: a.closed,
			closed:        make(chan struct{}),
			trace:         a.traceHamlib,
			version:       a.version,
		}
		go conn.run()
		go func() {
			select {
			case <-conn.adapterClosed:
				c.Close()
				conn.Close()
			case <-conn.closed:
				c.Close()
			default:
			}
		}()
	}
}

func (a *Adapter) Close() {
	select {
	case <-a.closed:
	default:
		close(a.closed)
	}
}

func (a *Adapter) Wait() {
	<-a.closed
}

type inboundConnection struct {
	conn          io.ReadWriteCloser
	rig           *tmv71.Rig
	rigLock       *sync.Mutex
	adapterClosed <-chan struct{}
	closed        chan struct{}
	trace         bool
	version       string
	ptt           bool
}

func (c *inboundConnection) run() {
	defer c.conn.Close()
	r := protocol.NewRequestReader(c.conn)
	for {
		req, err := r.ReadRequest()
		if err == io.EOF {
			log.Debug().Msg("connection EOF")
			c.Close()
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("connection failed")
			c.Close()
			return
		}

		c.rigLock.Lock()
		resp, err := c.handleRequest(req)
		c.rigLock.Unlock()
		if err != nil {
			log.Error().Err(err).Str("request", req.LongFormat()).Msg("request failed")
			resp = protocol.Response{
				Command: req.Key(),
				Result:  resultForError(err),
			}
		}

		var response string
		if req.ExtendedSeparator != "" {
			response = resp.ExtendedFormat(req.ExtendedSeparator)
		} else {
			response = resp.Format()
		}
		if c.trace {
			log.Debug().Str("response", response).Msg("hamlib")
		}
		fmt.Fprintln(c.conn, response)
	}
}

func (c *inboundConnection) handleRequest(req protocol.Request) (protocol.Response, error) {
	key := strings.ToLower(string(req.Key()))
	if c.trace {
		log.Debug().Str("request", req.LongFormat()).Str("key", key).Msg("hamlib")
	}
	switch key {
	case "chk_vfo":
		return protocol.ChkVFOResponse, nil
	case "dump_state":
		return protocol.DumpStateResponse, nil
	case "dump_caps":
		return dumpCapsResponse(c.version), nil
	case "get_freq":
		freq, err := c.rig.GetFrequency(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_freq: %w", err)
		}
		return protocol.GetFreqResponse(int(freq)), nil
	case "set_freq":
		freq, err := frequencyArg(req, "set_freq")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetFrequency(tmv71.VFOCurrent, freq)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_freq: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_split_freq":
		freq, err := c.rig.GetSplitFrequency(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_split_freq: %w", err)
		}
		return protocol.GetSplitFreqResponse(int(freq)), nil
	case "set_split_freq":
		freq, err := frequencyArg(req, "set_split_freq")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetSplitFrequency(tmv71.VFOCurrent, freq)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_split_freq: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_vfo":
		vfo, err := c.rig.GetVFO()
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_vfo: %w", err)
		}
		return protocol.GetVFOResponse(string(toHamlibVFO[vfo])), nil
	case "set_vfo":
		if len(req.Args) < 1 {
			return protocol.NoResponse, fmt.Errorf("set_vfo: no arguments: %w", tmv71.ErrInvalidArgument)
		}
		vfo, ok := toTMV71VFO[hamlib.VFO(req.Args[0])]
		if !ok {
			return protocol.NoResponse, fmt.Errorf("set_vfo: unknown VFO %s: %w", req.Args[0], tmv71.ErrInvalidArgument)
		}
		err := c.rig.SetVFO(vfo)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_vfo: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_mode":
		mode, passband, err := c.rig.GetMode(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_mode: %w", err)
		}
		return protocol.GetModeResponse(string(toHamlibMode[mode]), passband), nil
	case "set_mode":
		if len(req.Args) < 1 {
			return protocol.NoResponse, fmt.Errorf("set_mode: no arguments: %w", tmv71.ErrInvalidArgument)
		}
		mode, ok := toTMV71Mode[hamlib.Mode(req.Args[0])]
		if !ok {
			return protocol.NoResponse, fmt.Errorf("set_mode: unsupported mode %s: %w", req.Args[0], tmv71.ErrInvalidArgument)
		}
		err := c.rig.SetMode(tmv71.VFOCurrent, mode)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_mode: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_split_vfo":
		split, txVFO, err := c.rig.GetSplitVFO()
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_split_vfo: %w", err)
		}
		return protocol.GetSplitVFOResponse(split, string(toHamlibVFO[txVFO])), nil
	case "set_split_vfo":
		if len(req.Args) < 2 {
			return protocol.NoResponse, fmt.Errorf("set_split_vfo: no arguments: %w", tmv71.ErrInvalidArgument)
		}
		enabled := (req.Args[0] != "0")
		txVFO, ok := toTMV71VFO[hamlib.VFO(req.Args[1])]
		if !ok {
			return protocol.NoResponse, fmt.Errorf("set_split_vfo: unknown VFO %s: %w", req.Args[1], tmv71.ErrInvalidArgument)
		}
		err := c.rig.SetSplitVFO(enabled, txVFO)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_split_vfo: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_ts":
		step, err := c.rig.GetTuningStep(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_ts: %w", err)
		}
		return dataResponse(req.Key(), "Tuning Step", strconv.Itoa(step)), nil
	case "set_ts":
		step, err := intArg(req, 0, "set_ts")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetTuningStep(tmv71.VFOCurrent, step)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_ts: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_ctcss_tone":
		tone, err := c.rig.GetCTCSSTone(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_ctcss_tone: %w", err)
		}
		return dataResponse(req.Key(), "CTCSS Tone", strconv.Itoa(tone)), nil
	case "set_ctcss_tone":
		tone, err := intArg(req, 0, "set_ctcss_tone")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetCTCSSTone(tmv71.VFOCurrent, tone)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_ctcss_tone: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_ctcss_sql":
		tone, err := c.rig.GetCTCSSSquelch(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_ctcss_sql: %w", err)
		}
		return dataResponse(req.Key(), "CTCSS Sql", strconv.Itoa(tone)), nil
	case "set_ctcss_sql":
		tone, err := intArg(req, 0, "set_ctcss_sql")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetCTCSSSquelch(tmv71.VFOCurrent, tone)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_ctcss_sql: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_dcs_sql":
		code, err := c.rig.GetDCSSquelch(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_dcs_sql: %w", err)
		}
		return dataResponse(req.Key(), "DCS Sql", strconv.Itoa(code)), nil
	case "set_dcs_sql":
		code, err := intArg(req, 0, "set_dcs_sql")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetDCSSquelch(tmv71.VFOCurrent, code)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_dcs_sql: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_mem":
		channel, err := c.rig.GetMemory(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_mem: %w", err)
		}
		return dataResponse(req.Key(), "Memory#", strconv.Itoa(channel)), nil
	case "set_mem":
		channel, err := intArg(req, 0, "set_mem")
		if err != nil {
			return protocol.NoResponse, err
		}
		err = c.rig.SetMemory(tmv71.VFOCurrent, channel)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_mem: %w", err)
		}
		return protocol.OKResponse(req.Key()), nil
	case "get_channel":
		number, err := intArg(req, 0, "get_channel")
		if err != nil {
			return protocol.NoResponse, err
		}
		channel, err := c.rig.GetChannel(number)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_channel: %w", err)
		}
		return channelResponse(req.Key(), channel), nil
	case "set_ptt":
		if len(req.Args) < 1 {
			return protocol.NoResponse, fmt.Errorf("set_ptt: no arguments: %w", tmv71.ErrInvalidArgument)
		}
		on := (req.Args[0] != "0")
		err := c.rig.SetPTT(on)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("set_ptt: %w", err)
		}
		c.ptt = on
		return protocol.OKResponse(req.Key()), nil
	case "get_ptt":
		// The radio has no PTT query, report the last state we set.
		return protocol.GetPTTResponse(c.ptt), nil
	case "get_dcd":
		dcd, err := c.rig.GetDCD(tmv71.VFOCurrent)
		if err != nil {
			return protocol.NoResponse, fmt.Errorf("get_dcd: %w", err)
		}
		value := "0"
		if dcd {
			value = "1"
		}
		return dataResponse(req.Key(), "DCD", value), nil
	default:
		log.Debug().Str("request", req.LongFormat()).Msg("unsupported request")
		return notImplementedResponse(req.Key()), nil
	}
}

func (c *inboundConnection) Close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func frequencyArg(req protocol.Request, operation string) (int64, error) {
	if len(req.Args) < 1 {
		return 0, fmt.Errorf("%s: no arguments: %w", operation, tmv71.ErrInvalidArgument)
	}
	frequency, err := strconv.ParseFloat(req.Args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid frequency: %w", operation, tmv71.ErrInvalidArgument)
	}
	return int64(frequency), nil
}

func intArg(req protocol.Request, index int, operation string) (int, error) {
	if len(req.Args) <= index {
		return 0, fmt.Errorf("%s: no arguments: %w", operation, tmv71.ErrInvalidArgument)
	}
	value, err := strconv.Atoi(req.Args[index])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid argument %s: %w", operation, req.Args[index], tmv71.ErrInvalidArgument)
	}
	return value, nil
}

func dataResponse(cmd protocol.CommandKey, key string, value string) protocol.Response {
	return protocol.Response{
		Command: cmd,
		Data:    []string{value},
		Keys:    []string{key},
		Result:  "0",
	}
}

func channelResponse(cmd protocol.CommandKey, channel tmv71.Channel) protocol.Response {
	return protocol.Response{
		Command: cmd,
		Keys: []string{
			"Channel", "Name", "Freq", "Mode", "Tuning Step", "Rptr Shift",
			"Rptr Offset", "Reverse", "CTCSS Tone", "CTCSS Sql", "DCS Sql",
			"TX Freq", "Skip",
		},
		Data: []string{
			strconv.Itoa(channel.Number),
			channel.Name,
			strconv.FormatInt(channel.RXFreq, 10),
			channel.Mode.String(),
			strconv.Itoa(channel.TuningStep),
			strconv.Itoa(int(channel.Shift)),
			strconv.FormatInt(channel.Offset, 10),
			strconv.Itoa(boolToInt(channel.Reverse)),
			strconv.Itoa(channel.CTCSSTone),
			strconv.Itoa(channel.CTCSSSquelch),
			strconv.Itoa(channel.DCSSquelch),
			strconv.FormatInt(channel.TXFreq, 10),
			strconv.Itoa(boolToInt(channel.Skip)),
		},
		Result: "0",
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var toTMV71VFO = map[hamlib.VFO]tmv71.VFO{
	hamlib.VFOA:           tmv71.VFOA,
	hamlib.VFOB:           tmv71.VFOB,
	hamlib.MainVFO:        tmv71.VFOA,
	hamlib.SubVFO:         tmv71.VFOB,
	hamlib.VFO("MEM"):     tmv71.VFOMem,
	hamlib.VFO("currVFO"): tmv71.VFOCurrent,
}

var toHamlibVFO = map[tmv71.VFO]hamlib.VFO{
	tmv71.VFOA:   hamlib.VFOA,
	tmv71.VFOB:   hamlib.VFOB,
	tmv71.VFOMem: hamlib.VFO("MEM"),
}

var toTMV71Mode = map[hamlib.Mode]tmv71.Mode{
	hamlib.ModeWFM: tmv71.ModeFM,
	hamlib.ModeFM:  tmv71.ModeNFM,
	hamlib.ModeAM:  tmv71.ModeAM,
}

var toHamlibMode = map[tmv71.Mode]hamlib.Mode{
	tmv71.ModeFM:  hamlib.ModeWFM,
	tmv71.ModeNFM: hamlib.ModeFM,
	tmv71.ModeAM:  hamlib.ModeAM,
}

func notImplementedResponse(cmd protocol.CommandKey) protocol.Response {
	return protocol.Response{Command: cmd, Result: "-4"}
}

func resultForError(err error) string {
	switch {
	case errors.Is(err, tmv71.ErrInvalidArgument):
		return "-1" // RIG_EINVAL
	case errors.Is(err, tmv71.ErrTimeout):
		return "-5" // RIG_ETIMEOUT
	case errors.Is(err, tmv71.ErrProtocol):
		return "-8" // RIG_EPROTO
	case errors.Is(err, tmv71.ErrRejected):
		return "-9" // RIG_ERJCTED
	default:
		return "-6" // RIG_EIO
	}
}
