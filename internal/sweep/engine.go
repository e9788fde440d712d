package sweep

import (
	"errors"
	"fmt"
	"math"
	"time"

	"voltage_sweeper/internal/logger"
)

// CommandPort is the narrow contract the engine needs from the power supply.
// Transport-level failures surface as errors distinguishable from
// configuration errors (see instrument.TransportError).
type CommandPort interface {
	SetVoltage(channel int, volts float64) error
	OutputOn(channel int) error
	OutputOff(channel int) error
}

// SignalPort delivers handshake tokens from the DUT over the serial link.
// WaitForSignal blocks until a token arrives, the cancel token fires (then it
// returns ""), or the underlying transport fails.
type SignalPort interface {
	WaitForSignal(cancel *Token) (string, error)
}

// Tokens the DUT sends over UART.
const (
	// TokenPowerOn acknowledges that the channel may be re-energized.
	TokenPowerOn = "ON"
	// TokenReady signals that the DUT finished its work for the current step.
	TokenReady = "I"
)

const (
	// stopPollInterval bounds how long a dwell sleep can outlive a stop request.
	stopPollInterval = 100 * time.Millisecond
	// defaultUARTTimeout bounds every single token wait.
	defaultUARTTimeout = 30 * time.Second
)

// ErrUARTTimeout is returned when an expected token does not arrive in time.
// It aborts the remainder of the sweep but still runs the de-energize cleanup.
var ErrUARTTimeout = errors.New("timed out waiting for UART signal")

// Engine drives one voltage sweep. Construct a fresh Engine per run; it owns
// its DataLog exclusively for the duration of PerformSweep.
type Engine struct {
	psu    CommandPort
	uart   SignalPort // may be nil when no UART mode is configured
	events *Queue
	stop   *Token
	log    *DataLog
	lg     *logger.Logger

	// overridable in tests
	pollInterval time.Duration
	uartTimeout  time.Duration
}

func NewEngine(psu CommandPort, uart SignalPort, events *Queue, stop *Token, lg *logger.Logger) *Engine {
	return &Engine{
		psu:          psu,
		uart:         uart,
		events:       events,
		stop:         stop,
		log:          NewDataLog(),
		lg:           lg,
		pollInterval: stopPollInterval,
		uartTimeout:  defaultUARTTimeout,
	}
}

// DataLog exposes the run's sample log. It is safe to snapshot concurrently
// with PerformSweep; it is frozen once PerformSweep returns.
func (e *Engine) DataLog() *DataLog { return e.log }

// PerformSweep runs the sweep synchronously on the caller's goroutine. All
// failures are converted to emitted error events; it never panics past its
// boundary. Whenever the main loop was entered, the three channel outputs are
// de-energized before returning, including after cancellation, a transport
// failure, or a UART timeout.
func (e *Engine) PerformSweep(cfg Config) {
	if err := e.preflight(cfg); err != nil {
		e.lg.Errorw("sweep rejected", "err", err)
		e.emitError(err)
		return
	}
	cfg = cfg.normalized()
	totalSteps := cfg.TotalSteps()

	if err := e.applyBaseline(cfg); err != nil {
		e.lg.Errorw("baseline setup failed", "err", err)
		e.emitError(err)
		e.shutdownOutputs()
		e.finish()
		return
	}

	singleShot := cfg.StartVoltage == cfg.EndVoltage
	keepGoing := func(v float64, step int) bool {
		if singleShot {
			return step == 0
		}
		// Raw float comparison against the endpoint, no epsilon. Accumulated
		// step error may run the loop one iteration more or fewer than
		// totalSteps predicts; totalSteps is a display estimate only.
		if cfg.StepSize > 0 {
			return v <= cfg.EndVoltage
		}
		return v >= cfg.EndVoltage
	}

	voltage := cfg.StartVoltage
	currentStep := 0

	for keepGoing(voltage, currentStep) && !e.stop.IsSet() {
		if err := e.psu.SetVoltage(cfg.SweptChannel, voltage); err != nil {
			e.lg.Errorw("set voltage failed", "channel", cfg.SweptChannel, "volts", voltage, "err", err)
			e.emitError(err)
			break
		}
		e.lg.Infow("set channel voltage", "channel", cfg.SweptChannel, "volts", voltage)

		sample := Sample{Timestamp: unixSeconds(time.Now()), Voltage: voltage}
		e.log.Append(sample)
		e.events.TrySend(Event{Kind: EventDataPoint, Sample: sample})

		currentStep++
		e.events.TrySend(Event{Kind: EventProgress, Progress: progressPercent(currentStep, totalSteps)})

		if err := e.completeStep(cfg); err != nil {
			e.lg.Errorw("sweep step aborted", "step", currentStep, "err", err)
			e.emitError(err)
			break
		}

		voltage += cfg.StepSize
	}

	e.shutdownOutputs()
	e.lg.Infow("voltage sweep finished", "channel", cfg.SweptChannel, "samples", e.log.Len())
	e.finish()
}

// preflight validates the configuration and the port wiring. No instrument is
// touched on failure.
func (e *Engine) preflight(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Mode.UsesUART() && e.uart == nil {
		return fmt.Errorf("%w: mode %s requires a signal port", ErrConfig, cfg.Mode)
	}
	return nil
}

// applyBaseline presets all three channels and energizes their outputs,
// establishing a known state before the swept channel is touched.
func (e *Engine) applyBaseline(cfg Config) error {
	for ch := 1; ch <= 3; ch++ {
		if err := e.psu.SetVoltage(ch, cfg.ChannelVoltages[ch-1]); err != nil {
			return err
		}
	}
	for ch := 1; ch <= 3; ch++ {
		if err := e.psu.OutputOn(ch); err != nil {
			return err
		}
	}
	return nil
}

// completeStep runs the configured step-completion strategy.
func (e *Engine) completeStep(cfg Config) error {
	switch cfg.Mode {
	case PowerCycle, PowerCycleUartGated:
		return e.powerCycleStep(cfg)
	case UartGated:
		_, err := e.waitForUARTSignal(e.uartTimeout, TokenReady)
		return err
	default:
		e.sleepWithStopCheck(seconds(cfg.DwellSeconds))
		return nil
	}
}

// powerCycleStep de-energizes the swept channel, waits, re-energizes, waits.
// The waits are fixed durations or UART token waits depending on the mode.
func (e *Engine) powerCycleStep(cfg Config) error {
	if err := e.psu.OutputOff(cfg.SweptChannel); err != nil {
		return err
	}
	if cfg.Mode == PowerCycleUartGated {
		if _, err := e.waitForUARTSignal(e.uartTimeout, TokenPowerOn); err != nil {
			return err
		}
	} else {
		e.sleepWithStopCheck(seconds(cfg.OffSeconds))
	}
	if err := e.psu.OutputOn(cfg.SweptChannel); err != nil {
		return err
	}
	if cfg.Mode == PowerCycleUartGated {
		if _, err := e.waitForUARTSignal(e.uartTimeout, TokenReady); err != nil {
			return err
		}
	} else {
		e.sleepWithStopCheck(seconds(cfg.OnSeconds))
	}
	return nil
}

// waitForUARTSignal blocks until one of the expected tokens arrives. Tokens
// outside the expected set are discarded. Timeout and cancellation are checked
// independently at each iteration; on cancellation it returns ("", nil) and
// the main loop exits via its own stop check.
func (e *Engine) waitForUARTSignal(timeout time.Duration, expected ...string) (string, error) {
	deadline := time.Now().Add(timeout)
	for !e.stop.IsSet() {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: expected %v within %s", ErrUARTTimeout, expected, timeout)
		}
		tok, err := e.uart.WaitForSignal(e.stop)
		if err != nil {
			return "", err
		}
		for _, want := range expected {
			if tok == want {
				return tok, nil
			}
		}
	}
	return "", nil
}

// sleepWithStopCheck sleeps for d, waking at pollInterval granularity to honor
// a stop request within roughly one interval.
func (e *Engine) sleepWithStopCheck(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		if e.stop.IsSet() {
			return
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining > e.pollInterval {
			remaining = e.pollInterval
		}
		time.Sleep(remaining)
	}
}

// shutdownOutputs de-energizes all three channels, best-effort. It is the sole
// cleanup action; no partial rollback of applied voltages is attempted.
func (e *Engine) shutdownOutputs() {
	for ch := 1; ch <= 3; ch++ {
		if err := e.psu.OutputOff(ch); err != nil {
			e.lg.Errorw("output off failed during cleanup", "channel", ch, "err", err)
		}
	}
}

func (e *Engine) finish() {
	e.events.TrySend(Event{Kind: EventProgress, Progress: 100})
	e.events.TrySend(Event{Kind: EventDone})
}

func (e *Engine) emitError(err error) {
	e.events.TrySend(Event{Kind: EventError, Message: err.Error()})
}

func progressPercent(step, total int) int {
	if total < 1 {
		total = 1
	}
	p := int(math.Round(100 * float64(step) / float64(total)))
	if p > 100 {
		p = 100
	}
	return p
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
