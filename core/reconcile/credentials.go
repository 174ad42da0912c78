package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Warning levels, most urgent first. Each level fires at most once; the
// fired set lives in the persisted state so restarts do not repeat them.
const (
	warnExpired = "expired"
	warnOneDay  = "1day"
	warnOneWeek = "1week"
	warnOneMon  = "1month"
)

// Accepted layouts for the configured key expiration date.
var expiryLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-2006",
	"01-02-2006 15:04:05",
}

// checkCredentialExpiry warns the host as the vendor API key approaches
// its expiration. An expired key means codes silently stop syncing, so
// this check runs before anything else in the pass.
func (e *Engine) checkCredentialExpiry(ctx context.Context, log *zap.Logger) {
	if e.lockCfg.APIKeyExpires == "" {
		return
	}

	expiresAt, ok := e.parseExpiry(e.lockCfg.APIKeyExpires)
	if !ok {
		log.Warn("could not parse api key expiration date",
			zap.String("value", e.lockCfg.APIKeyExpires))
		return
	}

	now := e.now()
	daysUntil := int(expiresAt.Sub(now).Hours() / 24)

	var level, msg string
	switch {
	case now.After(expiresAt):
		level = warnExpired
		msg = fmt.Sprintf("URGENT: lock API key has EXPIRED!\nExpired: %s\nLock codes will NOT sync until renewed.",
			expiresAt.Format("2006-01-02"))
	case daysUntil <= 1:
		level = warnOneDay
		msg = fmt.Sprintf("WARNING: lock API key expires in %d day(s)!\nExpires: %s",
			daysUntil, expiresAt.Format("2006-01-02 15:04"))
	case daysUntil <= 7:
		level = warnOneWeek
		msg = fmt.Sprintf("Reminder: lock API key expires in %d days\nExpires: %s",
			daysUntil, expiresAt.Format("2006-01-02"))
	case daysUntil <= 30:
		level = warnOneMon
		msg = fmt.Sprintf("Lock API key expires in %d days\nExpires: %s\nMark your calendar to renew it.",
			daysUntil, expiresAt.Format("2006-01-02"))
	default:
		return
	}

	st := e.store.Load()
	if st.Warnings[level] {
		return
	}

	log.Warn("credential expiry warning",
		zap.String("level", level),
		zap.Int("days_until", daysUntil),
	)

	if e.dryRun {
		return
	}

	e.notifier.Notify(ctx, msg)
	st.Warnings[level] = true
	if err := e.store.Save(st); err != nil {
		log.Warn("failed to persist credential warning state", zap.Error(err))
	}
}

// parseExpiry parses the configured expiration date in the lock's time
// zone, trying each accepted layout in turn.
func (e *Engine) parseExpiry(value string) (time.Time, bool) {
	loc, err := time.LoadLocation(e.lockCfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
