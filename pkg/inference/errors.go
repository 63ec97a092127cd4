package inference

import "fmt"

// The pipeline reports failures as three distinct, machine-distinguishable
// error kinds. Callers map them to transport outcomes (400/404/500); none of
// them ever terminates the serving process.

// ValidationError marks a malformed or mismatched-shape request. Client
// fault; never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError marks an absent artifact triple for the requested key.
type NotFoundError struct {
	Symbol       string
	WindowSize   int
	ForecastSize int
	Cause        error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no trained artifacts for symbol %q with window_size=%d and forecast_size=%d",
		e.Symbol, e.WindowSize, e.ForecastSize)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// InferenceError marks an internal transform or model failure. Server
// fault; logged with full context and surfaced, never silently swallowed.
type InferenceError struct {
	Stage string
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed during %s: %v", e.Stage, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }
