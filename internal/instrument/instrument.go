// Package instrument holds the two port drivers the sweep engine consumes: a
// SCPI-over-TCP power supply command port and a serial-link signal port, plus
// in-process simulators for running without bench hardware.
package instrument

import (
	"errors"
	"fmt"
)

// ErrVoltageRange rejects set-points outside [0, MaxVoltage]. It is a command
// validation failure, not a transport failure.
var ErrVoltageRange = errors.New("voltage out of range")

// TransportError wraps connection and I/O failures on either port so callers
// can tell them apart from configuration errors with errors.As.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("instrument transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
