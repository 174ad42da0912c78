package feed

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"locksync/core/booking"

	ics "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Source produces a point-in-time snapshot of bookings.
type Source interface {
	// Fetch returns the current snapshot. A fetch or parse failure is an
	// explicit error; it is never reported as an empty snapshot, because
	// an empty snapshot would read as "all bookings cancelled".
	Fetch(ctx context.Context) (booking.Snapshot, error)
}

// Patterns for the structured fields rental platforms embed in the
// event DESCRIPTION.
var (
	phoneLast4Pattern    = regexp.MustCompile(`Phone Number \(Last 4 Digits\):\s*(\d{4})`)
	reservationIDPattern = regexp.MustCompile(`/details/([A-Z0-9]+)`)
)

// ICalSource fetches and parses an iCal reservation feed.
type ICalSource struct {
	cfg      Config
	http     *http.Client
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewICalSource creates a source for the configured feed URL.
func NewICalSource(cfg Config, log *zap.Logger) (*ICalSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed: url is required")
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	v := validator.New()
	v.RegisterAlias("access_code", booking.CodeValidationRule)

	return &ICalSource{
		cfg:      cfg,
		http:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:      log,
		validate: v,
		now:      time.Now,
	}, nil
}

// Fetch downloads and parses the feed into a snapshot. Individual
// malformed events are skipped with a log line; only a whole-feed
// failure surfaces as an error.
func (s *ICalSource) Fetch(ctx context.Context) (booking.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar: unexpected status %d", resp.StatusCode)
	}

	cal, err := ics.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	return s.parseEvents(cal), nil
}

func (s *ICalSource) parseEvents(cal *ics.Calendar) booking.Snapshot {
	snap := make(booking.Snapshot)
	for _, ev := range cal.Events() {
		b, ok := s.parseEvent(ev)
		if !ok {
			continue
		}
		snap[b.ID] = b
	}
	return snap
}

// parseEvent converts one VEVENT into a booking record. Blocked dates
// and other non-reservation events return ok=false silently; malformed
// reservations return ok=false with a log line.
func (s *ICalSource) parseEvent(ev *ics.VEvent) (booking.Booking, bool) {
	summary := propValue(ev, ics.ComponentPropertySummary)
	if !isReservation(summary) {
		return booking.Booking{}, false
	}

	uid := ev.Id()

	start, err := eventDate(ev.GetStartAt, ev.GetAllDayStartAt)
	if err != nil {
		s.log.Warn("skipping malformed booking", zap.String("uid", uid), zap.Error(err))
		return booking.Booking{}, false
	}
	end, err := eventDate(ev.GetEndAt, ev.GetAllDayEndAt)
	if err != nil {
		s.log.Warn("skipping malformed booking", zap.String("uid", uid), zap.Error(err))
		return booking.Booking{}, false
	}

	description := propValue(ev, ics.ComponentPropertyDescription)
	phoneLast4 := extractMatch(phoneLast4Pattern, description)
	guest := guestName(summary)

	b := booking.Booking{
		ID:            uid,
		Guest:         guest,
		Start:         start,
		End:           end,
		Code:          booking.DeriveCode(uid, start, guest, phoneLast4),
		PhoneLast4:    phoneLast4,
		ReservationID: extractMatch(reservationIDPattern, description),
		CreatedAt:     s.now(),
	}

	if err := s.validate.Struct(b); err != nil {
		s.log.Warn("skipping malformed booking", zap.String("uid", uid), zap.Error(err))
		return booking.Booking{}, false
	}
	if !b.End.After(b.Start) {
		s.log.Warn("skipping malformed booking: end not after start",
			zap.String("uid", uid),
			zap.Time("start", b.Start),
			zap.Time("end", b.End),
		)
		return booking.Booking{}, false
	}

	return b, true
}

// isReservation filters out blocked dates and platform placeholder
// events, which share the feed with real reservations.
func isReservation(summary string) bool {
	lower := strings.ToLower(strings.TrimSpace(summary))
	switch {
	case lower == "":
		return false
	case strings.Contains(lower, "not available"):
		return false
	case strings.Contains(lower, "blocked"):
		return false
	case lower == "airbnb":
		return false
	case strings.HasPrefix(lower, "airbnb ("):
		return false
	}
	return true
}

// guestName extracts the display name from a summary like
// "Reserved: Jane Doe (HMABC123)".
func guestName(summary string) string {
	name := summary
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "Guest"
	}
	return name
}

// eventDate reads a timed or all-day date from an event. Reservation
// feeds normally carry all-day DATE values.
func eventDate(timed, allDay func() (time.Time, error)) (time.Time, error) {
	if t, err := timed(); err == nil {
		return t, nil
	}
	return allDay()
}

func extractMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func propValue(ev *ics.VEvent, name ics.ComponentProperty) string {
	p := ev.GetProperty(name)
	if p == nil {
		return ""
	}
	return p.Value
}
