package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/metrics"
)

const cleanupTimeout = 30 * time.Second

type InvitationCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type NotificationCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob removes expired unused invitations and reminder log rows past retention.
type CleanupJob struct {
	invitations   InvitationCleaner
	notifications NotificationCleaner
	retention     time.Duration
	schedule      string
	cron          *cron.Cron
	now           func() time.Time

	// pass is the only entry point for a cleanup run, so the startup run and
	// scheduled ticks share one SkipIfStillRunning guard.
	pass    cron.Job
	initial sync.WaitGroup
}

func NewCleanupJob(
	invitations InvitationCleaner,
	notifications NotificationCleaner,
	retention time.Duration,
	schedule string,
) *CleanupJob {
	j := &CleanupJob{
		invitations:   invitations,
		notifications: notifications,
		retention:     retention,
		schedule:      schedule,
		cron:          cron.New(),
		now:           time.Now,
	}
	j.pass = cron.SkipIfStillRunning(cron.DiscardLogger)(cron.FuncJob(j.cleanup))
	return j
}

// Start runs one pass immediately and then follows the cron schedule.
func (j *CleanupJob) Start() error {
	if _, err := j.cron.AddJob(j.schedule, j.pass); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}

	j.initial.Add(1)
	go func() {
		defer j.initial.Done()
		j.pass.Run()
	}()
	j.cron.Start()
	log.Info().Str("schedule", j.schedule).Msg("cleanup job started")
	return nil
}

// Stop waits for a running pass to finish.
func (j *CleanupJob) Stop() {
	<-j.cron.Stop().Done()
	j.initial.Wait()
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	j.runCleanup(ctx, "invitations", j.invitations.DeleteExpired)

	if j.notifications != nil && j.retention > 0 {
		cutoff := j.now().Add(-j.retention)
		j.runCleanup(ctx, "notifications", func(ctx context.Context) (int64, error) {
			return j.notifications.DeleteOlderThan(ctx, cutoff)
		})
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
		return
	}
	if count > 0 {
		metrics.CleanupDeleted.WithLabelValues(name).Add(float64(count))
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
