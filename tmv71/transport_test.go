package tmv71

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort queues one reply per written command. An empty reply makes
// every read report zero bytes, which the transport treats as a timeout.
type fakePort struct {
	serial.Port
	written []string
	replies []string
	pending []byte
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written = append(p.written, string(b))
	if len(p.replies) > 0 {
		p.pending = []byte(p.replies[0])
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, nil
	}
	b[0] = p.pending[0]
	p.pending = p.pending[1:]
	return 1, nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error {
	return nil
}

func testTransport(retry int, replies ...string) (*SerialTransport, *fakePort) {
	port := &fakePort{replies: replies}
	return &SerialTransport{
		port:    port,
		timeout: 100 * time.Millisecond,
		retry:   retry,
	}, port
}

func TestExchange(t *testing.T) {
	trx, port := testTransport(0, "ME 005,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0146520000,0,0\r")

	reply, err := trx.Exchange("ME 005")
	require.NoError(t, err)
	assert.Equal(t, "ME 005,0146520000,0,0,0,0,0,0,00,00,000,00000000,0,0146520000,0,0", reply)
	assert.Equal(t, []string{"ME 005\r"}, port.written)
}

func TestExchangeRejected(t *testing.T) {
	for _, reply := range []string{"?\r", "N\r"} {
		trx, _ := testTransport(3, reply)

		_, err := trx.Exchange("ME 220")
		assert.ErrorIs(t, err, ErrRejected)
	}
}

func TestExchangeRetriesOnTimeout(t *testing.T) {
	trx, port := testTransport(2, "", "", "BC 0,0\r")

	reply, err := trx.Exchange("BC")
	require.NoError(t, err)
	assert.Equal(t, "BC 0,0", reply)
	assert.Len(t, port.written, 3)
}

func TestExchangeGivesUpAfterRetries(t *testing.T) {
	trx, port := testTransport(2, "", "", "")

	_, err := trx.Exchange("BC")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Len(t, port.written, 3)
}
