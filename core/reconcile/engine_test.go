package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"locksync/core/booking"
	"locksync/core/feed"
	"locksync/core/lock"
	"locksync/core/lock/mocks"
	"locksync/core/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

type sourceFunc func(ctx context.Context) (booking.Snapshot, error)

func (f sourceFunc) Fetch(ctx context.Context) (booking.Snapshot, error) { return f(ctx) }

func fixedSource(snap booking.Snapshot) sourceFunc {
	return func(context.Context) (booking.Snapshot, error) { return snap, nil }
}

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, text string) {
	n.messages = append(n.messages, text)
}

func engineLockConfig() lock.Config {
	return lock.Config{
		Timezone:                "America/Chicago",
		CheckInTime:             "16:00",
		CheckOutTime:            "11:00",
		ActivationBufferMinutes: 5,
		ExpirationBufferMinutes: 15,
		GracePeriodDays:         14,
	}
}

type harness struct {
	engine   *Engine
	client   *mocks.Client
	store    *state.Store
	notifier *captureNotifier
	path     string
}

func newHarness(t *testing.T, cfg lock.Config, source feed.Source, dryRun bool) *harness {
	t.Helper()
	log := zap.NewNop()
	client := &mocks.Client{}

	controller, err := lock.NewController(client, cfg, log, dryRun)
	require.NoError(t, err)
	sweeper := lock.NewSweeper(client, cfg, log, dryRun)

	path := filepath.Join(t.TempDir(), "state.json")
	store := state.NewStore(state.Config{Path: path}, log)
	notifier := &captureNotifier{}

	eng := New(source, store, controller, sweeper, notifier, log, cfg, dryRun)
	eng.now = func() time.Time { return fixedNow }

	return &harness{engine: eng, client: client, store: store, notifier: notifier, path: path}
}

func TestEngineRun_NewBookingProvisionsAndPersists(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"B1": b}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("AddCode", mock.Anything, b.Code, lock.CodeName(b.Code), mock.Anything, mock.Anything).Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.NewBookings)
	assert.Empty(t, summary.ItemErrors)
	h.client.AssertExpectations(t)

	st := h.store.Load()
	assert.Contains(t, st.Bookings, "B1")
	require.NotNil(t, st.LastSync)

	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], b.Code)
	assert.Contains(t, h.notifier.messages[0], b.Guest)
}

func TestEngineRun_FetchFailureKeepsStateUntouched(t *testing.T) {
	failing := sourceFunc(func(context.Context) (booking.Snapshot, error) {
		return nil, errors.New("calendar unreachable")
	})
	h := newHarness(t, engineLockConfig(), failing, false)

	seeded := state.NewState()
	seeded.Bookings["B1"] = mkBooking("B1", day(1), day(5))
	require.NoError(t, h.store.Save(seeded))
	before, err := os.ReadFile(h.path)
	require.NoError(t, err)

	_, err = h.engine.Run(context.Background())
	require.Error(t, err)

	after, readErr := os.ReadFile(h.path)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "state file must be byte-for-byte unchanged")

	h.client.AssertNotCalled(t, "Connect", mock.Anything)
	assert.Empty(t, h.notifier.messages)
}

func TestEngineRun_DuplicateCodeIsIdempotent(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"B1": b}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("AddCode", mock.Anything, b.Code, mock.Anything, mock.Anything, mock.Anything).
		Return(lock.ErrDuplicateCode)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, summary.ItemErrors)
	assert.Contains(t, h.store.Load().Bookings, "B1")
}

func TestEngineRun_ControlPlaneFailureAbortsWithoutPersist(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"B1": b}), false)

	h.client.On("Connect", mock.Anything).
		Return(&lock.ControlPlaneError{Op: "authenticate", Err: errors.New("status 401")})

	_, err := h.engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, lock.IsControlPlane(err))

	_, statErr := os.Stat(h.path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no state must be written")
	h.client.AssertNotCalled(t, "AddCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngineRun_ItemFailureAdjustsPersistedSnapshot(t *testing.T) {
	bad := mkBooking("BAD", day(1), day(5))
	bad.Code = "1111"
	good := mkBooking("GOOD", day(10), day(14))
	good.Code = "2222"
	h := newHarness(t, engineLockConfig(),
		fixedSource(booking.Snapshot{"BAD": bad, "GOOD": good}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("AddCode", mock.Anything, "1111", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("device busy"))
	h.client.On("AddCode", mock.Anything, "2222", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err, "one stuck booking must not abort the pass")

	require.Len(t, summary.ItemErrors, 1)
	assert.Equal(t, "BAD", summary.ItemErrors[0].BookingID)
	assert.Equal(t, "provision", summary.ItemErrors[0].Op)

	// The failed booking is dropped from the snapshot so the next run
	// detects it as new again and retries.
	st := h.store.Load()
	assert.NotContains(t, st.Bookings, "BAD")
	assert.Contains(t, st.Bookings, "GOOD")
}

func TestEngineRun_CancellationRevokesCode(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{}), false)

	seeded := state.NewState()
	seeded.Bookings["B1"] = b
	require.NoError(t, h.store.Save(seeded))

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("FindCodeByValue", mock.Anything, b.Code).
		Return(&lock.CodeRecord{ID: "code-9", Code: b.Code, Name: lock.CodeName(b.Code)}, nil)
	h.client.On("DeleteCode", mock.Anything, "code-9").Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Cancellations)
	assert.Empty(t, h.store.Load().Bookings)
	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "Cancelled")
}

func TestEngineRun_FailedRevokeRetainsBookingForRetry(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{}), false)

	seeded := state.NewState()
	seeded.Bookings["B1"] = b
	require.NoError(t, h.store.Save(seeded))

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("FindCodeByValue", mock.Anything, b.Code).
		Return(&lock.CodeRecord{ID: "code-9", Code: b.Code}, nil)
	h.client.On("DeleteCode", mock.Anything, "code-9").Return(errors.New("device busy"))
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.ItemErrors, 1)
	// The booking stays in the snapshot so the cancellation is
	// re-detected and retried next run.
	assert.Contains(t, h.store.Load().Bookings, "B1")
}

func TestEngineRun_ExtensionRevokesBeforeProvision(t *testing.T) {
	before := mkBooking("B1", day(1), day(5))
	after := mkBooking("B1", day(1), day(7))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"B1": after}), false)

	seeded := state.NewState()
	seeded.Bookings["B1"] = before
	require.NoError(t, h.store.Save(seeded))

	var order []string
	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("FindCodeByValue", mock.Anything, before.Code).
		Return(&lock.CodeRecord{ID: "code-9", Code: before.Code}, nil).
		Run(func(mock.Arguments) { order = append(order, "find") })
	h.client.On("DeleteCode", mock.Anything, "code-9").Return(nil).
		Run(func(mock.Arguments) { order = append(order, "delete") })
	h.client.On("AddCode", mock.Anything, after.Code, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(mock.Arguments) { order = append(order, "add") })
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Extensions)
	assert.Equal(t, []string{"find", "delete", "add"}, order,
		"old window must be revoked before the new one is added")

	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "Extended")
	assert.Equal(t, day(7), h.store.Load().Bookings["B1"].End)
}

func TestEngineRun_DryRunMutatesNothing(t *testing.T) {
	prev := mkBooking("OLD", day(1), day(5))
	next := mkBooking("NEW", day(10), day(14))
	next.Code = "2222"
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"NEW": next}), true)

	seeded := state.NewState()
	seeded.Bookings["OLD"] = prev
	require.NoError(t, h.store.Save(seeded))
	before, err := os.ReadFile(h.path)
	require.NoError(t, err)

	var order []string
	h.client.On("Connect", mock.Anything).Return(nil).
		Run(func(mock.Arguments) { order = append(order, "connect") })
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).
		Return([]lock.CodeRecord{}, nil).
		Run(func(mock.Arguments) { order = append(order, "list") })

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Cancellations)
	assert.Equal(t, 1, summary.NewBookings)

	// The sweep preview lists device codes, which only works after
	// authenticating; the listing must never go out session-less.
	assert.Equal(t, []string{"connect", "list"}, order)
	h.client.AssertNotCalled(t, "AddCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.client.AssertNotCalled(t, "DeleteCode", mock.Anything, mock.Anything)
	assert.Empty(t, h.notifier.messages)

	after, readErr := os.ReadFile(h.path)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "dry-run must not rewrite the state file")
}

func TestEngineRun_SweepRemovesExpiredCodes(t *testing.T) {
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{}), false)

	expired := lock.CodeRecord{
		ID:   "code-1",
		Name: lock.CodeName("9999"),
		Code: "9999",
		End:  fixedNow.AddDate(0, 0, -20),
	}
	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).
		Return([]lock.CodeRecord{expired}, nil)
	h.client.On("DeleteCode", mock.Anything, "code-1").Return(nil)

	summary, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SweptCodes)
	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "Cleaned up 1")
}

func TestEngineRun_SweepFailureDoesNotBlockPersist(t *testing.T) {
	b := mkBooking("B1", day(1), day(5))
	h := newHarness(t, engineLockConfig(), fixedSource(booking.Snapshot{"B1": b}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("AddCode", mock.Anything, b.Code, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).
		Return(nil, errors.New("listing unavailable"))

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, h.store.Load().Bookings, "B1")
}

func TestEngineRun_CredentialWarningFiresOncePerLevel(t *testing.T) {
	cfg := engineLockConfig()
	cfg.APIKeyExpires = fixedNow.AddDate(0, 0, 5).Format("2006-01-02")
	h := newHarness(t, cfg, fixedSource(booking.Snapshot{}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "expires in")

	// Second pass over the same state file must not repeat the warning.
	_, err = h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.notifier.messages, 1)
}

func TestEngineRun_ExpiredCredentialWarning(t *testing.T) {
	cfg := engineLockConfig()
	cfg.APIKeyExpires = fixedNow.AddDate(0, 0, -2).Format("2006-01-02")
	h := newHarness(t, cfg, fixedSource(booking.Snapshot{}), false)

	h.client.On("Connect", mock.Anything).Return(nil)
	h.client.On("ListCodesByOwnerTag", mock.Anything, lock.OwnerTagPrefix).Return([]lock.CodeRecord{}, nil)

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "EXPIRED")

	assert.True(t, h.store.Load().Warnings["expired"])
}
