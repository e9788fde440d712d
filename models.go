package voltage_sweeper

import "time"

// Sweep outcomes recorded on a finished run.
const (
	OutcomeCompleted = "COMPLETED"
	OutcomeStopped   = "STOPPED"
	OutcomeError     = "ERROR"
)

// Event types stored in the sweep event log.
const (
	EventStart = "START"
	EventStop  = "STOP"
	EventError = "ERROR"
	EventDone  = "DONE"
	EventInfo  = "INFO"
)

// SweepSettings is the full declarative description of one sweep, as collected
// from the operator (or loaded from a saved profile). Field names match the
// profile file keys.
type SweepSettings struct {
	Ch1Voltage   float64 `json:"ch1_voltage"`
	Ch2Voltage   float64 `json:"ch2_voltage"`
	Ch3Voltage   float64 `json:"ch3_voltage"`
	Channel      int     `json:"channel"`       // swept channel, 1..3
	StartVoltage float64 `json:"start_voltage"` // V
	EndVoltage   float64 `json:"end_voltage"`   // V
	StepSize     float64 `json:"step_size"`     // V per step
	DwellSeconds float64 `json:"dwell_seconds,omitempty"`
	PowerCycle   bool    `json:"power_cycle"`
	UARTControl  bool    `json:"uart_control"`
	OffSeconds   float64 `json:"off_seconds,omitempty"`
	OnSeconds    float64 `json:"on_seconds,omitempty"`
}

// SamplePoint is one logged (timestamp, voltage) pair. Timestamp is wall-clock
// Unix seconds; the first sample of a run is the time origin for relative plots.
type SamplePoint struct {
	Timestamp float64 `json:"timestamp"`
	Voltage   float64 `json:"voltage"`
}

// SweepRun is the persisted record of one sweep execution.
type SweepRun struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at,omitempty"`
	Settings     SweepSettings `json:"settings"`
	Outcome      string        `json:"outcome,omitempty"` // COMPLETED | STOPPED | ERROR, empty while running
	SampleCount  int           `json:"sample_count"`
	CSVPath      string        `json:"csv_path,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// SweepEvent is a single log entry.
type SweepEvent struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | ERROR | DONE | INFO
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// SweepStatus is the live snapshot served to the operator surface.
type SweepStatus struct {
	Running    bool         `json:"running"`
	RunID      string       `json:"run_id,omitempty"`
	Progress   int          `json:"progress"` // 0..100
	LastSample *SamplePoint `json:"last_sample,omitempty"`
	Error      string       `json:"error,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Profile is a named, saved sweep configuration.
type Profile struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Settings  SweepSettings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
