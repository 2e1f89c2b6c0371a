package util

import (
	"context"
	"errors"
	"fmt"
)

// Fault is the structured failure a collaborator call returns instead of a
// bare error. Callers decide per call site what default to apply; the fault
// itself only describes what failed.
type Fault struct {
	Service string
	Op      string
	Err     error
	Timeout bool
}

func (f *Fault) Error() string {
	if f.Timeout {
		return fmt.Sprintf("%s.%s timed out: %v", f.Service, f.Op, f.Err)
	}
	return fmt.Sprintf("%s.%s failed: %v", f.Service, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault wraps a collaborator failure, flagging deadline expiry so callers
// can distinguish slow services from broken ones.
func NewFault(service, op string, err error) *Fault {
	return &Fault{
		Service: service,
		Op:      op,
		Err:     err,
		Timeout: errors.Is(err, context.DeadlineExceeded),
	}
}

// IsFault reports whether err is (or wraps) a collaborator fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
