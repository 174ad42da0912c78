package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"locksync/core/booking"

	"go.uber.org/zap"
)

// OwnerTagPrefix marks access codes created and managed by this system.
// Only codes carrying it are ever candidates for cleanup.
const OwnerTagPrefix = "Guest_"

// CodeName returns the device name tag for a code value.
func CodeName(code string) string {
	return OwnerTagPrefix + code
}

// Controller translates bookings into time-windowed device codes and
// applies add/remove operations idempotently. It is constructed once per
// run and threaded through the call graph; there is no shared handle.
type Controller struct {
	client   Client
	cfg      Config
	log      *zap.Logger
	loc      *time.Location
	checkIn  clockTime
	checkOut clockTime
	dryRun   bool
}

type clockTime struct {
	hour, min int
}

// NewController creates a controller over the given client.
func NewController(client Client, cfg Config, log *zap.Logger, dryRun bool) (*Controller, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	checkIn, err := parseClock(cfg.CheckInTime)
	if err != nil {
		return nil, fmt.Errorf("parse check_in_time: %w", err)
	}
	checkOut, err := parseClock(cfg.CheckOutTime)
	if err != nil {
		return nil, fmt.Errorf("parse check_out_time: %w", err)
	}

	return &Controller{
		client:   client,
		cfg:      cfg,
		log:      log,
		loc:      loc,
		checkIn:  checkIn,
		checkOut: checkOut,
		dryRun:   dryRun,
	}, nil
}

// Connect authenticates against the control plane. Authentication is
// read-only and runs in dry-run mode too: the sweep preview still needs
// to list the device's codes, which requires a valid session.
func (c *Controller) Connect(ctx context.Context) error {
	return c.client.Connect(ctx)
}

// Window computes the active validity window for a booking: the default
// check-in and check-out clock times on the booking's calendar dates,
// localized to the lock's time zone, widened by the activation and
// expiration buffers. The snapshot carries calendar dates only, so the
// clock times always come from configuration.
func (c *Controller) Window(b booking.Booking) (begin, end time.Time) {
	begin = time.Date(b.Start.Year(), b.Start.Month(), b.Start.Day(),
		c.checkIn.hour, c.checkIn.min, 0, 0, c.loc).
		Add(-time.Duration(c.cfg.ActivationBufferMinutes) * time.Minute)
	end = time.Date(b.End.Year(), b.End.Month(), b.End.Day(),
		c.checkOut.hour, c.checkOut.min, 0, 0, c.loc).
		Add(time.Duration(c.cfg.ExpirationBufferMinutes) * time.Minute)
	return begin, end
}

// Provision creates the access code for a booking on the device. A
// duplicate on the device is treated as success: a partially applied
// previous run may already have created it, and the window is
// deterministic for the same source data.
func (c *Controller) Provision(ctx context.Context, b booking.Booking) error {
	begin, end := c.Window(b)

	if c.dryRun {
		c.log.Info("dry-run: would add code",
			zap.String("booking_id", b.ID),
			zap.String("guest", b.Guest),
			zap.String("code", b.Code),
			zap.Time("valid_from", begin),
			zap.Time("valid_to", end),
		)
		return nil
	}

	err := c.client.AddCode(ctx, b.Code, CodeName(b.Code), begin, end)
	if errors.Is(err, ErrDuplicateCode) {
		c.log.Info("code already exists on device, treating as applied",
			zap.String("booking_id", b.ID),
			zap.String("code", b.Code),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("provision booking %s: %w", b.ID, err)
	}

	c.log.Info("added code",
		zap.String("booking_id", b.ID),
		zap.String("guest", b.Guest),
		zap.String("code", b.Code),
		zap.Time("valid_from", begin),
		zap.Time("valid_to", end),
	)
	return nil
}

// Revoke deletes the device code matching the booking's exact code
// value. A missing code is a soft condition, not an error: the code may
// simply have expired or been removed manually.
func (c *Controller) Revoke(ctx context.Context, b booking.Booking) error {
	if c.dryRun {
		c.log.Info("dry-run: would remove code",
			zap.String("booking_id", b.ID),
			zap.String("guest", b.Guest),
			zap.String("code", b.Code),
		)
		return nil
	}

	rec, err := c.client.FindCodeByValue(ctx, b.Code)
	if errors.Is(err, ErrCodeNotFound) {
		c.log.Warn("code not found on device, may have already expired",
			zap.String("booking_id", b.ID),
			zap.String("code", b.Code),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke booking %s: %w", b.ID, err)
	}

	if err := c.client.DeleteCode(ctx, rec.ID); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			// Deleted out-of-band between lookup and delete.
			return nil
		}
		return fmt.Errorf("revoke booking %s: %w", b.ID, err)
	}

	c.log.Info("removed code",
		zap.String("booking_id", b.ID),
		zap.String("guest", b.Guest),
		zap.String("code", b.Code),
	)
	return nil
}

// parseClock parses an HH:MM clock time.
func parseClock(s string) (clockTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return clockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	min, err := strconv.Atoi(mm)
	if err != nil || min < 0 || min > 59 {
		return clockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	return clockTime{hour: hour, min: min}, nil
}
