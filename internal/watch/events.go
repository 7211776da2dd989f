package watch

import (
	"errors"
	"fmt"
)

// Reason names what ended a watch session.
type Reason string

const (
	ReasonExit      Reason = "exit"
	ReasonInterrupt Reason = "interrupt"
	ReasonTerminate Reason = "terminate"
	ReasonQuit      Reason = "quit"
	ReasonFault     Reason = "fault"
)

// ErrAlreadyRunning is returned when Run is called on a running controller.
var ErrAlreadyRunning = errors.New("watch loop already running")

// Termination reports how Run ended.
type Termination struct {
	Reason   Reason
	ExitCode int
	Err      error
}

// FaultError wraps a panic recovered inside the watch loop.
type FaultError struct {
	Value any
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("uncaught fault: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type event struct {
	reason Reason
	err    error
}

func (e event) termination() Termination {
	code := 0
	if e.reason == ReasonFault {
		code = 1
	}
	return Termination{Reason: e.reason, ExitCode: code, Err: e.err}
}
