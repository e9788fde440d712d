package sweep

import (
	"errors"
	"fmt"
	"math"
)

// Mode selects the step-completion strategy. Resolved once at configuration
// build time; the engine never re-inspects the raw flags.
type Mode int

const (
	// FixedDwell sleeps a fixed duration between steps.
	FixedDwell Mode = iota
	// PowerCycle de-energizes then re-energizes the swept channel between
	// steps, with fixed off/on durations.
	PowerCycle
	// UartGated advances only after the DUT sends its ready token.
	UartGated
	// PowerCycleUartGated power-cycles, but the off/on phases are gated by
	// UART tokens instead of fixed durations.
	PowerCycleUartGated
)

func (m Mode) String() string {
	switch m {
	case FixedDwell:
		return "FIXED_DWELL"
	case PowerCycle:
		return "POWER_CYCLE"
	case UartGated:
		return "UART_GATED"
	case PowerCycleUartGated:
		return "POWER_CYCLE_UART_GATED"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// UsesUART reports whether the mode waits on the signal port.
func (m Mode) UsesUART() bool {
	return m == UartGated || m == PowerCycleUartGated
}

// ModeFromFlags maps the two operator-facing flags to a Mode. UART gating
// overrides the fixed off/on durations whenever both flags are set.
func ModeFromFlags(powerCycle, uartControl bool) Mode {
	switch {
	case powerCycle && uartControl:
		return PowerCycleUartGated
	case powerCycle:
		return PowerCycle
	case uartControl:
		return UartGated
	default:
		return FixedDwell
	}
}

// ErrConfig marks pre-flight configuration failures. The engine makes no port
// calls once Validate returns an error wrapping it.
var ErrConfig = errors.New("invalid sweep config")

// Config is the validated, immutable input of one sweep. Voltages are volts,
// durations are seconds.
type Config struct {
	ChannelVoltages [3]float64 // presets for channels 1..3, applied before the sweep
	SweptChannel    int        // 1..3
	StartVoltage    float64
	EndVoltage      float64
	StepSize        float64
	Mode            Mode
	DwellSeconds    float64 // FixedDwell only
	OffSeconds      float64 // PowerCycle (non-gated) only
	OnSeconds       float64 // PowerCycle (non-gated) only
}

// Validate checks the configuration before any instrument is touched.
// Mode-specific timings must be positive for the mode that consumes them.
func (c Config) Validate() error {
	if c.SweptChannel < 1 || c.SweptChannel > 3 {
		return fmt.Errorf("%w: swept channel must be 1..3, got %d", ErrConfig, c.SweptChannel)
	}
	if c.StepSize == 0 && c.StartVoltage != c.EndVoltage {
		return fmt.Errorf("%w: step size must be non-zero when start != end", ErrConfig)
	}
	switch c.Mode {
	case FixedDwell:
		if c.DwellSeconds <= 0 {
			return fmt.Errorf("%w: dwell seconds required for fixed-dwell mode", ErrConfig)
		}
	case PowerCycle:
		if c.OffSeconds <= 0 || c.OnSeconds <= 0 {
			return fmt.Errorf("%w: off/on seconds required for power-cycle mode", ErrConfig)
		}
	case UartGated, PowerCycleUartGated:
		// token waits replace all fixed durations
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrConfig, int(c.Mode))
	}
	return nil
}

// normalized forces the step sign to match the sweep direction. The magnitude
// is never changed.
func (c Config) normalized() Config {
	switch {
	case c.StartVoltage < c.EndVoltage && c.StepSize < 0:
		c.StepSize = -c.StepSize
	case c.StartVoltage > c.EndVoltage && c.StepSize > 0:
		c.StepSize = -c.StepSize
	}
	return c
}

// TotalSteps estimates the iteration count for progress display. It is not a
// loop bound: the loop compares raw floats against the endpoint, so
// accumulated step error can run one iteration more or fewer.
func (c Config) TotalSteps() int {
	if c.StepSize == 0 {
		return 1
	}
	n := int(math.Floor(math.Abs((c.EndVoltage-c.StartVoltage)/c.StepSize))) + 1
	if n < 1 {
		n = 1
	}
	return n
}
