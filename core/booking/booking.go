package booking

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// CodeLength is the number of digits in a guest access code. Most lock
// vendors accept 4-8 digit codes; we use the shortest accepted length so
// codes can double as the last four digits of a guest's phone number.
const CodeLength = 4

// CodeValidationRule is the validator rule behind the access_code tag
// alias, derived from CodeLength so the two cannot drift apart.
var CodeValidationRule = fmt.Sprintf("numeric,len=%d", CodeLength)

// Booking represents a single reservation from the calendar feed.
type Booking struct {
	// ID is the stable identifier of the reservation (iCal UID).
	ID string `json:"id" validate:"required"`

	// Guest is the display name of the guest.
	Guest string `json:"guest_name" validate:"required"`

	// Start is the check-in calendar date.
	Start time.Time `json:"start" validate:"required"`

	// End is the check-out calendar date.
	End time.Time `json:"end" validate:"required"`

	// Code is the access code derived for this booking. It is always
	// CodeLength digits and deterministic for the same source data.
	Code string `json:"code" validate:"required,access_code"`

	// PhoneLast4 holds the verified phone fragment the code was derived
	// from, when the feed provided one.
	PhoneLast4 string `json:"phone_last4,omitempty"`

	// ReservationID is the upstream reservation reference, if present.
	ReservationID string `json:"reservation_id,omitempty"`

	// CreatedAt records when this booking record was first parsed.
	CreatedAt time.Time `json:"created_at"`
}

// PhoneVerified reports whether the access code came from a verified
// contact fragment rather than being synthesized.
func (b Booking) PhoneVerified() bool {
	return b.PhoneLast4 != ""
}

// Snapshot is a point-in-time mapping of booking ID to booking record.
// Snapshots are compared, never mutated.
type Snapshot map[string]Booking

// DeriveCode returns the access code for a booking. A verified phone
// fragment is used as-is; otherwise the code is synthesized from
// (id, start date, guest) so repeated processing of the same source
// data always yields the same code.
func DeriveCode(id string, start time.Time, guest, phoneLast4 string) string {
	if phoneLast4 != "" {
		return phoneLast4
	}
	seed := fmt.Sprintf("%s|%s|%s", id, start.Format("2006-01-02"), guest)
	sum := sha256.Sum256([]byte(seed))
	n := binary.BigEndian.Uint32(sum[:4]) % 10000
	return fmt.Sprintf("%04d", n)
}
