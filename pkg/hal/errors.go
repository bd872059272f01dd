package hal

import (
	"errors"
	"fmt"
)

// Errors transports may wrap to report common bus failures.
var (
	ErrNoAck           = errors.New("no acknowledge from device")
	ErrArbitrationLost = errors.New("bus arbitration lost")
	ErrBusTimeout      = errors.New("bus timeout")
)

var (
	ErrInvalidWidth = errors.New("invalid register width")
	ErrReleased     = errors.New("device transport released")
)

// AccessError reports a failed register access. Err is the transport error,
// passed through unchanged.
type AccessError struct {
	Op       string // "read" or "write"
	Bus      BusAddress
	Register RegAddress
	Err      error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("failed to %s register %s on device %s: %v", e.Op, e.Register, e.Bus, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// GetAccessError extracts an AccessError from an error chain, if present.
func GetAccessError(err error) (*AccessError, bool) {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr, true
	}
	return nil, false
}
