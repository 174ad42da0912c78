package lock

import (
	"errors"
	"fmt"
)

// Typed error kinds for the lock capability. Callers match on these
// instead of inspecting vendor error strings.
var (
	// ErrDuplicateCode reports that an identical access code already
	// exists on the device.
	ErrDuplicateCode = errors.New("lock: access code already exists")

	// ErrCodeNotFound reports that no code on the device matched the lookup.
	ErrCodeNotFound = errors.New("lock: access code not found")
)

// ControlPlaneError reports that the lock's control plane could not be
// reached or refused authentication. Unlike a per-code failure, it aborts
// the apply phase of the run: nothing else will succeed either.
type ControlPlaneError struct {
	Op  string
	Err error
}

func (e *ControlPlaneError) Error() string {
	return fmt.Sprintf("lock control plane: %s: %v", e.Op, e.Err)
}

func (e *ControlPlaneError) Unwrap() error {
	return e.Err
}

// IsControlPlane reports whether err is a control-plane failure.
func IsControlPlane(err error) bool {
	var cpe *ControlPlaneError
	return errors.As(err, &cpe)
}
