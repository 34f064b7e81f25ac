package adapter

import (
	"strings"
	"sync"
	"testing"

	"github.com/ftl/rigproxy/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/tmv71adapter/tmv71"
)

// scriptedTransport replays a fixed command/reply script and fails the
// test on any deviation from it.
type scriptedTransport struct {
	t      *testing.T
	script []exchange
	next   int
}

type exchange struct {
	cmd   string
	reply string
	err   error
}

func (s *scriptedTransport) Exchange(cmd string) (string, error) {
	s.t.Helper()
	if s.next >= len(s.script) {
		s.t.Fatalf("unexpected command %q after the end of the script", cmd)
	}
	step := s.script[s.next]
	s.next++
	if cmd != step.cmd {
		s.t.Fatalf("expected command %q, got %q", step.cmd, cmd)
	}
	return step.reply, step.err
}

func (s *scriptedTransport) verify() {
	s.t.Helper()
	if s.next != len(s.script) {
		s.t.Fatalf("%d scripted exchanges left over", len(s.script)-s.next)
	}
}

func testConnection(t *testing.T, script ...exchange) (*inboundConnection, *scriptedTransport) {
	trx := &scriptedTransport{t: t, script: script}
	conn := &inboundConnection{
		rig:     tmv71.New(trx),
		rigLock: &sync.Mutex{},
		closed:  make(chan struct{}),
		version: "test",
	}
	return conn, trx
}

func request(t *testing.T, line string) protocol.Request {
	t.Helper()
	r := protocol.NewRequestReader(strings.NewReader(line + "\n"))
	req, err := r.ReadRequest()
	require.NoError(t, err)
	return req
}

func TestHandleSetFreq(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "ME 998", reply: "ME 998,0146500000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0"},
		exchange{
			cmd:   "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0",
			reply: "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0",
		},
	)

	resp, err := conn.handleRequest(request(t, "\\set_freq 146520000"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	trx.verify()
}

func TestHandleGetFreq(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "ME 998", reply: "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0"},
	)

	resp, err := conn.handleRequest(request(t, "\\get_freq"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "146520000")
	trx.verify()
}

func TestHandleSetVFO(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "VM 1,1", reply: "VM 1,1"},
		exchange{cmd: "ME 999", reply: "ME 999,0446000000,0,0,0,0,0,0,00,00,000,00000000,0,0446000000,0,0"},
		exchange{cmd: "MR 1,999", reply: "MR 1,999"},
		exchange{cmd: "BC 1,1", reply: "BC 1,1"},
	)

	resp, err := conn.handleRequest(request(t, "\\set_vfo VFOB"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	trx.verify()
}

func TestHandleSetVFOUnknown(t *testing.T) {
	conn, trx := testConnection(t)

	_, err := conn.handleRequest(request(t, "\\set_vfo VFOC"))
	assert.ErrorIs(t, err, tmv71.ErrInvalidArgument)
	trx.verify()
}

func TestHandleGetVFO(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "MR 0", reply: "MR 0,998"},
	)

	resp, err := conn.handleRequest(request(t, "\\get_vfo"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "VFOA")
	trx.verify()
}

func TestHandleSetMode(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "ME 998", reply: "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0"},
		// hamlib's FM is the radio's narrow FM
		exchange{
			cmd:   "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,1,0000000000,0,0",
			reply: "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,1,0000000000,0,0",
		},
	)

	resp, err := conn.handleRequest(request(t, "\\set_mode FM 0"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	trx.verify()
}

func TestHandleGetMode(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "ME 998", reply: "ME 998,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0000000000,0,0"},
	)

	resp, err := conn.handleRequest(request(t, "\\get_mode"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "WFM")
	trx.verify()
}

func TestHandleSetSplitVFO(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC 1,1", reply: "BC 1,1"},
	)

	resp, err := conn.handleRequest(request(t, "\\set_split_vfo 1 VFOB"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	trx.verify()
}

func TestHandleSetPTTAndGetPTT(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "TX", reply: "TX 0"},
	)

	resp, err := conn.handleRequest(request(t, "\\set_ptt 1"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)

	resp, err = conn.handleRequest(request(t, "\\get_ptt"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "1")
	trx.verify()
}

func TestHandleGetDCD(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "BC", reply: "BC 0,0"},
		exchange{cmd: "BY 0", reply: "BY 0,1"},
	)

	resp, err := conn.handleRequest(request(t, "\\get_dcd"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "1")
	trx.verify()
}

func TestHandleGetChannel(t *testing.T) {
	conn, trx := testConnection(t,
		exchange{cmd: "ME 005", reply: "ME 005,0146520000,0,1,0,0,1,0,00,11,000,00600000,1,0146520000,0,0"},
		exchange{cmd: "MN 005", reply: "MN 005,CALLING"},
	)

	resp, err := conn.handleRequest(request(t, "\\get_channel 5"))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Result)
	assert.Contains(t, resp.Data, "CALLING")
	assert.Contains(t, resp.Data, "146520000")
	trx.verify()
}

func TestHandleUnsupportedRequest(t *testing.T) {
	conn, trx := testConnection(t)

	resp, err := conn.handleRequest(request(t, "\\set_rptr_shift +"))
	require.NoError(t, err)
	assert.Equal(t, "-4", resp.Result)
	trx.verify()
}

func TestResultForError(t *testing.T) {
	assert.Equal(t, "-1", resultForError(tmv71.ErrInvalidArgument))
	assert.Equal(t, "-5", resultForError(tmv71.ErrTimeout))
	assert.Equal(t, "-8", resultForError(tmv71.ErrProtocol))
	assert.Equal(t, "-9", resultForError(tmv71.ErrRejected))
	assert.Equal(t, "-6", resultForError(assert.AnError))
}
