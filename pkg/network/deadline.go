package network

import (
	"errors"
	"fmt"
	"time"
)

// Deadline bounds a single request/response exchange. A zero field leaves
// that direction unbounded.
type Deadline struct {
	Read  time.Duration
	Write time.Duration
}

type DeadlineSetter interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Apply arms both directions relative to the same instant.
func (d Deadline) Apply(conn DeadlineSetter) error {
	now := time.Now()

	var errs []error
	if d.Read > 0 {
		if err := conn.SetReadDeadline(now.Add(d.Read)); err != nil {
			errs = append(errs, fmt.Errorf("set read deadline: %w", err))
		}
	}
	if d.Write > 0 {
		if err := conn.SetWriteDeadline(now.Add(d.Write)); err != nil {
			errs = append(errs, fmt.Errorf("set write deadline: %w", err))
		}
	}
	return errors.Join(errs...)
}
