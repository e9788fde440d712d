package instrument

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/sweep"
)

// readPoll bounds a single blocking read so the cancellation token is observed
// within roughly one interval.
const readPoll = 100 * time.Millisecond

// UARTConfig describes the serial link carrying DUT handshake tokens.
type UARTConfig struct {
	Port     string // e.g. /dev/ttyUSB0 or COM3
	BaudRate int
}

// UART reads handshake tokens from the DUT one read at a time. It implements
// sweep.SignalPort.
type UART struct {
	cfg  UARTConfig
	lg   *logger.Logger
	port serial.Port
}

func NewUART(cfg UARTConfig, lg *logger.Logger) *UART {
	return &UART{cfg: cfg, lg: lg}
}

// Connect opens the serial port with a short read timeout so WaitForSignal can
// poll the cancellation token between reads.
func (u *UART) Connect() error {
	mode := &serial.Mode{BaudRate: u.cfg.BaudRate}
	port, err := serial.Open(u.cfg.Port, mode)
	if err != nil {
		return transportErr("open "+u.cfg.Port, err)
	}
	if err := port.SetReadTimeout(readPoll); err != nil {
		_ = port.Close()
		return transportErr("set read timeout", err)
	}
	u.port = port
	u.lg.Infow("connected to UART", "port", u.cfg.Port, "baud", u.cfg.BaudRate)
	return nil
}

// WaitForSignal blocks until a token arrives, returning the whitespace-trimmed
// token string. Returns ("", nil) once the cancel token is set.
func (u *UART) WaitForSignal(cancel *sweep.Token) (string, error) {
	if u.port == nil {
		return "", transportErr("read", fmt.Errorf("not connected"))
	}
	buf := make([]byte, 64)
	for !cancel.IsSet() {
		n, err := u.port.Read(buf)
		if err != nil {
			return "", transportErr("read "+u.cfg.Port, err)
		}
		if n == 0 {
			// read timeout tick, re-check cancellation
			continue
		}
		msg := strings.TrimSpace(string(buf[:n]))
		if msg == "" {
			continue
		}
		u.lg.Debugw("received UART message", "msg", msg)
		return msg, nil
	}
	return "", nil
}

// Close releases the serial port.
func (u *UART) Close() error {
	if u.port == nil {
		return nil
	}
	err := u.port.Close()
	u.port = nil
	if err != nil {
		return transportErr("close "+u.cfg.Port, err)
	}
	u.lg.Infow("UART connection closed", "port", u.cfg.Port)
	return nil
}

// ListPorts enumerates the serial ports available on this machine. Used by the
// operator surface when building a configuration, never by the engine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, transportErr("list ports", err)
	}
	return ports, nil
}
