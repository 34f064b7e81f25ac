package tmv71

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Transport is the single request/response primitive the backend needs
// from the serial link: send one command, receive one reply line. The
// command is given without the trailing carriage return, the reply is
// returned with its terminator stripped.
type Transport interface {
	Exchange(cmd string) (string, error)
}

// SerialConfig describes how to open the radio's serial port.
type SerialConfig struct {
	Device   string
	BaudRate int
	Timeout  time.Duration
	Retry    int
}

// DefaultSerialConfig returns the serial settings of the TM-V71(A):
// 8N1, 1s timeout, 3 retries. The baud rate is the radio's factory
// default.
func DefaultSerialConfig(device string) SerialConfig {
	return SerialConfig{
		Device:   device,
		BaudRate: 9600,
		Timeout:  1 * time.Second,
		Retry:    3,
	}
}

// OpenSerial opens the given serial port and returns a Transport that
// speaks the Kenwood text protocol over it.
func OpenSerial(config SerialConfig) (*SerialTransport, error) {
	port, err := serial.Open(config.Device, &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %w", config.Device, err)
	}
	return &SerialTransport{
		port:    port,
		timeout: config.Timeout,
		retry:   config.Retry,
	}, nil
}

// SerialTransport exchanges Kenwood text commands over a serial port.
// Commands are terminated with a carriage return, replies are read up to
// the radio's carriage return. A timed-out exchange is retried up to the
// configured number of times; every attempt is atomic from the caller's
// point of view.
type SerialTransport struct {
	port    serial.Port
	timeout time.Duration
	retry   int
}

func (t *SerialTransport) Close() error {
	return t.port.Close()
}

func (t *SerialTransport) Exchange(cmd string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= t.retry; attempt++ {
		reply, err := t.exchange(cmd)
		if err == nil {
			return reply, nil
		}
		if !errors.Is(err, ErrTimeout) {
			return "", err
		}
		lastErr = err
		log.Debug().Str("cmd", cmd).Int("attempt", attempt+1).Msg("serial exchange timed out")
	}
	return "", lastErr
}

func (t *SerialTransport) exchange(cmd string) (string, error) {
	_, err := t.port.Write([]byte(cmd + "\r"))
	if err != nil {
		return "", fmt.Errorf("serial write: %w", err)
	}
	log.Debug().Str("send", cmd).Msg("serial")

	deadline := time.Now().Add(t.timeout)
	buf := make([]byte, 0, 80)
	one := make([]byte, 1)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("no reply to %q within %v: %w", cmd, t.timeout, ErrTimeout)
		}
		t.port.SetReadTimeout(remaining)
		n, err := t.port.Read(one)
		if err != nil {
			return "", fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("no reply to %q within %v: %w", cmd, t.timeout, ErrTimeout)
		}
		if one[0] == '\r' {
			break
		}
		buf = append(buf, one[0])
	}

	reply := string(buf)
	log.Debug().Str("recv", reply).Msg("serial")
	if reply == "?" || reply == "N" {
		return "", fmt.Errorf("radio did not accept %q: %w", cmd, ErrRejected)
	}
	return reply, nil
}
