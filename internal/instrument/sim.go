package instrument

import (
	"fmt"
	"sync"
	"time"

	"voltage_sweeper/internal/sweep"
)

// SimPSU is an in-memory power supply for running the full stack without bench
// hardware. It enforces the same voltage ceiling as the real driver and keeps
// a command trace for inspection.
type SimPSU struct {
	MaxVoltage float64

	mu       sync.Mutex
	voltages map[int]float64
	outputs  map[int]bool
	commands []string
}

func NewSimPSU(maxVoltage float64) *SimPSU {
	return &SimPSU{
		MaxVoltage: maxVoltage,
		voltages:   make(map[int]float64),
		outputs:    make(map[int]bool),
	}
}

func (p *SimPSU) Connect() error { return nil }
func (p *SimPSU) Close() error   { return nil }

func (p *SimPSU) SetVoltage(channel int, volts float64) error {
	if volts < 0 || volts > p.MaxVoltage {
		return fmt.Errorf("%w: %g V not in [0, %g]", ErrVoltageRange, volts, p.MaxVoltage)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voltages[channel] = volts
	p.commands = append(p.commands, fmt.Sprintf("APPL CH%d, %g", channel, volts))
	return nil
}

func (p *SimPSU) OutputOn(channel int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputs[channel] = true
	p.commands = append(p.commands, fmt.Sprintf("OUTP ON, (@%d)", channel))
	return nil
}

func (p *SimPSU) OutputOff(channel int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputs[channel] = false
	p.commands = append(p.commands, fmt.Sprintf("OUTP OFF, (@%d)", channel))
	return nil
}

// Voltage returns the last set-point applied to the channel.
func (p *SimPSU) Voltage(channel int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voltages[channel]
}

// Output reports whether the channel is energized.
func (p *SimPSU) Output(channel int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outputs[channel]
}

// Commands returns the command trace in emission order.
func (p *SimPSU) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.commands))
	copy(out, p.commands)
	return out
}

// SimUART replays handshake tokens after a fixed per-token delay, emulating a
// DUT that signals readiness over the serial link. When the queue is empty it
// keeps emitting Default.
type SimUART struct {
	Delay   time.Duration // latency before each token is delivered
	Default string        // token emitted once the queue is drained

	mu    sync.Mutex
	queue []string
}

func NewSimUART(delay time.Duration, tokens ...string) *SimUART {
	return &SimUART{Delay: delay, Default: sweep.TokenReady, queue: tokens}
}

func (u *SimUART) Connect() error { return nil }
func (u *SimUART) Close() error   { return nil }

// Push appends tokens to the replay queue.
func (u *SimUART) Push(tokens ...string) {
	u.mu.Lock()
	u.queue = append(u.queue, tokens...)
	u.mu.Unlock()
}

// WaitForSignal waits Delay (honoring cancellation at the same granularity as
// the real driver), then pops the next queued token.
func (u *SimUART) WaitForSignal(cancel *sweep.Token) (string, error) {
	deadline := time.Now().Add(u.Delay)
	for time.Now().Before(deadline) {
		if cancel.IsSet() {
			return "", nil
		}
		remaining := time.Until(deadline)
		if remaining > readPoll {
			remaining = readPoll
		}
		time.Sleep(remaining)
	}
	if cancel.IsSet() {
		return "", nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.queue) == 0 {
		return u.Default, nil
	}
	tok := u.queue[0]
	u.queue = u.queue[1:]
	return tok, nil
}
