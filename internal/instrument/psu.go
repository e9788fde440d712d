package instrument

import (
	"fmt"
	"net"
	"sync"
	"time"

	"voltage_sweeper/internal/logger"
)

// PSU command timing.
const (
	defaultDialTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// PSUConfig describes the network-attached programmable power supply.
type PSUConfig struct {
	Addr        string  // host:port of the instrument's SCPI socket
	MaxVoltage  float64 // ceiling enforced on every set-point
	MaxCurrent  float64 // current limit sent with every APPL command
	DialTimeout time.Duration
}

// PSU is a three-channel programmable power supply driven over a raw SCPI
// socket. Commands are newline-terminated ASCII; the instrument does not
// acknowledge set operations, so writes are fire-and-forget with a deadline.
type PSU struct {
	cfg PSUConfig
	lg  *logger.Logger

	mu   sync.Mutex
	conn net.Conn
}

func NewPSU(cfg PSUConfig, lg *logger.Logger) *PSU {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &PSU{cfg: cfg, lg: lg}
}

// Connect dials the instrument. Must be called before any command.
func (p *PSU) Connect() error {
	conn, err := net.DialTimeout("tcp", p.cfg.Addr, p.cfg.DialTimeout)
	if err != nil {
		return transportErr("dial "+p.cfg.Addr, err)
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	p.lg.Infow("connected to power supply", "addr", p.cfg.Addr)
	return nil
}

// Close terminates the instrument connection.
func (p *PSU) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	if err != nil {
		return transportErr("close", err)
	}
	p.lg.Infow("power supply connection closed")
	return nil
}

// SetVoltage applies volts to the given channel with the configured current
// limit. Set-points outside [0, MaxVoltage] are rejected before any I/O.
func (p *PSU) SetVoltage(channel int, volts float64) error {
	if volts < 0 || volts > p.cfg.MaxVoltage {
		return fmt.Errorf("%w: %g V not in [0, %g]", ErrVoltageRange, volts, p.cfg.MaxVoltage)
	}
	return p.write(fmt.Sprintf("APPL CH%d, %g, %g", channel, volts, p.cfg.MaxCurrent))
}

// OutputOn energizes the channel output.
func (p *PSU) OutputOn(channel int) error {
	if err := p.write(fmt.Sprintf("OUTP ON, (@%d)", channel)); err != nil {
		return err
	}
	p.lg.Infow("channel output on", "channel", channel)
	return nil
}

// OutputOff de-energizes the channel output.
func (p *PSU) OutputOff(channel int) error {
	if err := p.write(fmt.Sprintf("OUTP OFF, (@%d)", channel)); err != nil {
		return err
	}
	p.lg.Infow("channel output off", "channel", channel)
	return nil
}

func (p *PSU) write(cmd string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return transportErr("write", fmt.Errorf("not connected"))
	}
	if err := p.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return transportErr("set deadline", err)
	}
	if _, err := p.conn.Write([]byte(cmd + "\n")); err != nil {
		return transportErr("write "+cmd, err)
	}
	return nil
}
