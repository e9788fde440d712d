package sweep

import (
	"errors"
	"testing"
)

func TestModeFromFlags(t *testing.T) {
	cases := []struct {
		powerCycle, uartControl bool
		want                    Mode
	}{
		{false, false, FixedDwell},
		{true, false, PowerCycle},
		{false, true, UartGated},
		{true, true, PowerCycleUartGated},
	}
	for _, tc := range cases {
		if got := ModeFromFlags(tc.powerCycle, tc.uartControl); got != tc.want {
			t.Errorf("ModeFromFlags(%v, %v) = %s, want %s", tc.powerCycle, tc.uartControl, got, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		SweptChannel: 1,
		StartVoltage: 0,
		EndVoltage:   5,
		StepSize:     0.5,
		Mode:         FixedDwell,
		DwellSeconds: 1,
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid fixed dwell", func(c *Config) {}, false},
		{"channel too low", func(c *Config) { c.SweptChannel = 0 }, true},
		{"channel too high", func(c *Config) { c.SweptChannel = 4 }, true},
		{"zero step with distinct endpoints", func(c *Config) { c.StepSize = 0 }, true},
		{"zero step with equal endpoints", func(c *Config) {
			c.StepSize = 0
			c.EndVoltage = c.StartVoltage
		}, false},
		{"missing dwell", func(c *Config) { c.DwellSeconds = 0 }, true},
		{"power cycle needs off seconds", func(c *Config) {
			c.Mode = PowerCycle
			c.OnSeconds = 1
		}, true},
		{"power cycle complete", func(c *Config) {
			c.Mode = PowerCycle
			c.OffSeconds = 1
			c.OnSeconds = 1
		}, false},
		{"uart gated needs no durations", func(c *Config) {
			c.Mode = UartGated
			c.DwellSeconds = 0
		}, false},
		{"unknown mode", func(c *Config) { c.Mode = Mode(42) }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Fatalf("expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigNormalized(t *testing.T) {
	cases := []struct {
		name             string
		start, end, step float64
		wantStep         float64
	}{
		{"ascending positive step unchanged", 0, 5, 1, 1},
		{"ascending negative step flipped", 0, 5, -1, 1},
		{"descending positive step flipped", 5, 0, 1, -1},
		{"descending negative step unchanged", 5, 0, -1, -1},
		{"equal endpoints untouched", 3, 3, -2, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{StartVoltage: tc.start, EndVoltage: tc.end, StepSize: tc.step}
			if got := cfg.normalized().StepSize; got != tc.wantStep {
				t.Fatalf("normalized step = %g, want %g", got, tc.wantStep)
			}
		})
	}
}

func TestConfigTotalSteps(t *testing.T) {
	cases := []struct {
		name             string
		start, end, step float64
		want             int
	}{
		{"six integer steps", 0, 5, 1, 6},
		{"direction ignored", 5, 0, 1, 6},
		{"zero step is single shot", 3.3, 3.3, 0, 1},
		{"fractional remainder floors", 0, 1, 0.3, 4},
		{"step larger than span", 0, 1, 5, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{StartVoltage: tc.start, EndVoltage: tc.end, StepSize: tc.step}
			if got := cfg.TotalSteps(); got != tc.want {
				t.Fatalf("TotalSteps() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if got := PowerCycleUartGated.String(); got != "POWER_CYCLE_UART_GATED" {
		t.Fatalf("unexpected mode string %q", got)
	}
	if !UartGated.UsesUART() || PowerCycle.UsesUART() {
		t.Fatal("UsesUART mapping wrong")
	}
}
