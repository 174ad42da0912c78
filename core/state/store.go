package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"locksync/core/booking"

	"go.uber.org/zap"
)

// State is the durable reconciliation record carried between runs: the
// last-known booking snapshot, the last-sync instant, and which
// credential-expiry warnings have already fired.
type State struct {
	Bookings booking.Snapshot `json:"bookings"`
	LastSync *time.Time       `json:"last_sync"`
	Warnings map[string]bool  `json:"credential_warnings"`
}

// NewState returns a safe empty state.
func NewState() *State {
	return &State{
		Bookings: booking.Snapshot{},
		Warnings: map[string]bool{},
	}
}

// Store persists reconciliation state as a single JSON document.
type Store struct {
	path string
	log  *zap.Logger
	now  func() time.Time
}

// NewStore creates a store over the configured path.
func NewStore(cfg Config, log *zap.Logger) *Store {
	return &Store{
		path: cfg.Path,
		log:  log,
		now:  time.Now,
	}
}

// Load returns the persisted state. Missing or corrupt data degrades to
// an empty default so a damaged file can never abort a run; corruption
// is logged.
func (s *Store) Load() *State {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState()
	}
	if err != nil {
		s.log.Warn("state file unreadable, using empty state",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return NewState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn("state file corrupted, using empty state",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return NewState()
	}

	if st.Bookings == nil {
		st.Bookings = booking.Snapshot{}
	}
	if st.Warnings == nil {
		st.Warnings = map[string]bool{}
	}
	return &st
}

// Save persists the state, refreshing the last-sync timestamp. The write
// goes to a temp file first and is renamed into place, so a crash
// mid-write can never leave a truncated file readable as valid state.
func (s *Store) Save(st *State) error {
	now := s.now()
	st.LastSync = &now

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
