package submission

import (
	"context"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, search *fakeSearch, create *fakeCreate) *Manager {
	t.Helper()
	cfg := &config.Config{
		Search: config.SearchConfig{FailurePolicy: config.SearchFailureAbort},
		Submission: config.SubmissionConfig{
			ConfirmTimeout: time.Minute,
			SessionTTL:     time.Hour,
			RunTimeout:     time.Minute,
		},
	}
	m := NewManager(cfg, search, create, formerror.NewTranslator("Could not recommend the product"))
	m.log = zap.NewNop().Sugar()
	t.Cleanup(m.Close)
	return m
}

func TestManager_StartWithoutDuplicates(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, &fakeSearch{rec: rec, result: &models.SearchResult{}}, &fakeCreate{rec: rec, id: "p1"})

	snap, err := m.Start(context.Background(), "user-1", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, OutcomeCreated, snap.Outcome)
	assert.Equal(t, "p1", snap.Result.ID)
	require.NotNil(t, snap.Route)
	assert.Equal(t, "/p1/editor?step=2", snap.Route.As)
	assert.Equal(t, []models.Notification{{Level: models.NotificationSuccess, Message: "WidgetX recommended"}}, snap.Notifications)
	assert.Equal(t, []string{"search", "create"}, rec.list())
}

func TestManager_ConfirmRoundTrip(t *testing.T) {
	rec := &recorder{}
	create := &fakeCreate{rec: rec, id: "p1"}
	m := newTestManager(t, &fakeSearch{rec: rec, result: duplicates("WidgetX", "WidgetX Pro")}, create)

	snap, err := m.Start(context.Background(), "user-1", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, snap.State)
	assert.Equal(t, 2, snap.Total)
	assert.Len(t, snap.Candidates, 2)
	assert.Empty(t, create.payloads)

	snap, err = m.Confirm(context.Background(), snap.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	require.Len(t, create.payloads, 1)
	assert.Equal(t, "user-1", create.payloads[0].CreatedBy)

	_, err = m.Resubmit(context.Background(), snap.ID, "user-1", models.ProductDraft{Name: "WidgetX"})
	assert.ErrorIs(t, err, ErrSubmissionCompleted)
}

func TestManager_DismissKeepsDraft(t *testing.T) {
	rec := &recorder{}
	create := &fakeCreate{rec: rec, id: "p1"}
	m := newTestManager(t, &fakeSearch{rec: rec, result: duplicates("WidgetX")}, create)

	draft := models.ProductDraft{Name: "WidgetX", Tagline: "Widgets"}
	snap, err := m.Start(context.Background(), "", draft)
	require.NoError(t, err)

	snap, err = m.Dismiss(context.Background(), snap.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, OutcomeDismissed, snap.Outcome)
	assert.Equal(t, draft, snap.Draft)
	assert.Empty(t, snap.Notifications)
	assert.Empty(t, create.payloads)

	_, err = m.Dismiss(context.Background(), snap.ID, "")
	assert.ErrorIs(t, err, ErrNotConfirming)
}

func TestManager_ResubmitWhileConfirmingIsRejected(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, &fakeSearch{rec: rec, result: duplicates("WidgetX")}, &fakeCreate{rec: rec, id: "p1"})

	snap, err := m.Start(context.Background(), "user-1", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)

	_, err = m.Resubmit(context.Background(), snap.ID, "user-1", models.ProductDraft{Name: "WidgetX 2"})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

func TestManager_ResubmitAfterDismiss(t *testing.T) {
	rec := &recorder{}
	search := &fakeSearch{rec: rec, result: duplicates("WidgetX")}
	create := &fakeCreate{rec: rec, id: "p2"}
	m := newTestManager(t, search, create)

	snap, err := m.Start(context.Background(), "user-1", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)
	_, err = m.Dismiss(context.Background(), snap.ID, "user-1")
	require.NoError(t, err)

	search.result = &models.SearchResult{}
	snap, err = m.Resubmit(context.Background(), snap.ID, "user-1", models.ProductDraft{Name: "Gizmo"})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "Gizmo", snap.Draft.Name)
	assert.Equal(t, "Gizmo", create.payloads[0].Name)
}

func TestManager_OwnerIsolation(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, &fakeSearch{rec: rec, result: duplicates("WidgetX")}, &fakeCreate{rec: rec, id: "p1"})

	snap, err := m.Start(context.Background(), "user-1", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)

	_, err = m.Get(context.Background(), snap.ID, "user-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Confirm(context.Background(), snap.ID, "user-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := m.Get(context.Background(), snap.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, got.State)
}

func TestManager_ConfirmTimeout(t *testing.T) {
	rec := &recorder{}
	create := &fakeCreate{rec: rec, id: "p1"}
	m := newTestManager(t, &fakeSearch{rec: rec, result: duplicates("WidgetX")}, create)
	m.confirmTimeout = 20 * time.Millisecond

	snap, err := m.Start(context.Background(), "", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := m.Get(context.Background(), snap.ID, "")
		return err == nil && got.Outcome == OutcomeConfirmationFailed
	}, time.Second, 5*time.Millisecond)

	got, err := m.Get(context.Background(), snap.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, got.State)
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, "Confirmation was interrupted, please submit again", got.Notifications[0].Message)
	assert.Empty(t, create.payloads)
}

func TestManager_SessionsExpire(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, &fakeSearch{rec: rec, result: &models.SearchResult{}}, &fakeCreate{rec: rec, id: "p1"})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	snap, err := m.Start(context.Background(), "", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Get(context.Background(), snap.ID, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Start(context.Background(), "", models.ProductDraft{Name: "Other"})
	require.NoError(t, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.NotContains(t, m.sessions, snap.ID)
}

func TestManager_CloseCancelsPendingConfirmation(t *testing.T) {
	rec := &recorder{}
	create := &fakeCreate{rec: rec, id: "p1"}
	cfg := &config.Config{Submission: config.SubmissionConfig{ConfirmTimeout: time.Hour, RunTimeout: time.Hour}}
	m := NewManager(cfg, &fakeSearch{rec: rec, result: duplicates("WidgetX")}, create, formerror.NewTranslator(""))
	m.log = zap.NewNop().Sugar()

	snap, err := m.Start(context.Background(), "", models.ProductDraft{Name: "WidgetX"})
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, snap.State)

	m.Close()
	got, err := m.Get(context.Background(), snap.ID, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmationFailed, got.Outcome)
	assert.Empty(t, create.payloads)
}
