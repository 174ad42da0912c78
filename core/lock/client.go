package lock

import (
	"context"
	"time"
)

// CodeRecord is an access code as reported by the device. Records are
// observed, not owned: codes without our name tag may have been created
// manually and are never touched.
type CodeRecord struct {
	// ID is the device-assigned identifier of the code.
	ID string `json:"id"`
	// Name is the name tag the code was created with.
	Name string `json:"name"`
	// Code is the digit sequence a guest types on the keypad.
	Code string `json:"code"`
	// Begin is the start of the code's validity window.
	Begin time.Time `json:"begin"`
	// End is the end of the code's validity window.
	End time.Time `json:"end"`
}

// Client defines the interface for the lock vendor's control plane.
type Client interface {
	// Connect authenticates against the control plane. It must be called
	// once per run before any other operation. Failures are
	// ControlPlaneError.
	Connect(ctx context.Context) error
	// AddCode creates a time-bounded access code. Returns
	// ErrDuplicateCode when an identical code already exists.
	AddCode(ctx context.Context, code, name string, begin, end time.Time) error
	// ListCodesByOwnerTag returns all codes whose name carries the given
	// prefix.
	ListCodesByOwnerTag(ctx context.Context, tag string) ([]CodeRecord, error)
	// FindCodeByValue returns the record matching the exact code value,
	// or ErrCodeNotFound.
	FindCodeByValue(ctx context.Context, code string) (*CodeRecord, error)
	// DeleteCode removes a code by its device-assigned ID. Returns
	// ErrCodeNotFound when the code no longer exists.
	DeleteCode(ctx context.Context, id string) error
}
