package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseofpair/pairsync/internal/metrics"
)

type mockInvitationCleaner struct {
	mu    sync.Mutex
	count int64
	err   error
	calls int
	block chan struct{}
}

func (m *mockInvitationCleaner) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	return m.count, m.err
}

func (m *mockInvitationCleaner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockNotificationCleaner struct {
	mu     sync.Mutex
	count  int64
	cutoff time.Time
}

func (m *mockNotificationCleaner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoff = cutoff
	return m.count, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("rejects an invalid schedule", func(t *testing.T) {
		job := NewCleanupJob(&mockInvitationCleaner{}, nil, 0, "every five minutes")

		assert.Error(t, job.Start())
	})

	t.Run("runs on start and stops", func(t *testing.T) {
		invitations := &mockInvitationCleaner{}
		job := NewCleanupJob(invitations, &mockNotificationCleaner{}, time.Hour, "@every 1h")

		require.NoError(t, job.Start())
		assert.Eventually(t, func() bool { return invitations.Calls() == 1 }, time.Second, 5*time.Millisecond)
		job.Stop()
	})

	t.Run("a tick during the startup pass is skipped", func(t *testing.T) {
		release := make(chan struct{})
		invitations := &mockInvitationCleaner{block: release}
		job := NewCleanupJob(invitations, nil, 0, "@every 1h")

		require.NoError(t, job.Start())
		assert.Eventually(t, func() bool { return invitations.Calls() == 1 }, time.Second, 5*time.Millisecond)

		// Same entry point the scheduler uses; returns at once while the first pass holds the guard.
		job.pass.Run()
		assert.Equal(t, 1, invitations.Calls())

		close(release)
		job.Stop()

		job.pass.Run()
		assert.Equal(t, 2, invitations.Calls())
	})

	t.Run("deletes notifications past retention", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		notifications := &mockNotificationCleaner{count: 3}
		job := NewCleanupJob(&mockInvitationCleaner{count: 2}, notifications, 90*24*time.Hour, "@every 5m")
		job.now = func() time.Time { return now }

		before := testutil.ToFloat64(metrics.CleanupDeleted.WithLabelValues("notifications"))
		job.cleanup()

		assert.Equal(t, now.Add(-90*24*time.Hour), notifications.cutoff)
		assert.Equal(t, before+3, testutil.ToFloat64(metrics.CleanupDeleted.WithLabelValues("notifications")))
	})

	t.Run("an invitation failure does not stop notification cleanup", func(t *testing.T) {
		notifications := &mockNotificationCleaner{}
		job := NewCleanupJob(&mockInvitationCleaner{err: errors.New("db down")}, notifications, time.Hour, "@every 5m")

		job.cleanup()

		assert.False(t, notifications.cutoff.IsZero())
	})

	t.Run("zero retention keeps notifications", func(t *testing.T) {
		notifications := &mockNotificationCleaner{}
		job := NewCleanupJob(&mockInvitationCleaner{}, notifications, 0, "@every 5m")

		job.cleanup()

		assert.True(t, notifications.cutoff.IsZero())
	})
}
