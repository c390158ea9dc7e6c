package platform

import (
	"fmt"
	"strings"
)

// RequestError is a transport-level failure: no connection, timeout, non-2xx
// status, undecodable body or an open circuit breaker.
type RequestError struct {
	Op         string
	StatusCode int // 0 when the server did not answer
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("platform %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("platform %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// AuthError reports a failed credential exchange or profile fetch. Cached
// holds the reason the cached session was rejected first, if one was tried.
type AuthError struct {
	Step   string // "login" or "profile"
	Err    error
	Cached error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "authentication failed at %s: %v", e.Step, e.Err)
	if e.Cached != nil {
		fmt.Fprintf(&b, " (cached session rejected: %v)", e.Cached)
	}
	return b.String()
}

func (e *AuthError) Unwrap() []error {
	if e.Cached == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cached}
}

// NotFoundError means no device matched the serial-number fragment.
type NotFoundError struct {
	Fragment string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("device SN %s not found", e.Fragment)
}

// TelemetryError means the requested key is missing or not numeric.
type TelemetryError struct {
	DeviceID string
	Key      string
	Err      error
}

func (e *TelemetryError) Error() string {
	return fmt.Sprintf("telemetry %q of device %s: %v", e.Key, e.DeviceID, e.Err)
}

func (e *TelemetryError) Unwrap() error { return e.Err }

// CommandError means a remote output write was rejected or never delivered.
type CommandError struct {
	DeviceID string
	Output   string
	Value    bool
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("set %s=%t on device %s: %v", e.Output, e.Value, e.DeviceID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
