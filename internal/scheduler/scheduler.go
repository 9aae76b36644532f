package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

// StatsSource aggregates queue counts; an empty doctorID means every doctor.
type StatsSource interface {
	StatsByStatus(ctx context.Context, doctorID string) (models.QueueStats, error)
}

// PresenceSource reports how many participants are connected.
type PresenceSource interface {
	OnlineCount() int
}

// Scheduler refreshes gauges that are cheaper to sample than to track inline.
type Scheduler struct {
	cron     *cron.Cron
	stats    StatsSource
	presence PresenceSource
	schedule string
	timeout  time.Duration
}

// NewScheduler creates a scheduler running its jobs on schedule, for example "@every 30s".
func NewScheduler(stats StatsSource, presence PresenceSource, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		stats:    stats,
		presence: presence,
		schedule: schedule,
		timeout:  10 * time.Second,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.refreshGauges); err != nil {
		zap.S().Errorw("failed to register gauge refresh job", "schedule", s.schedule, "error", err)
		return err
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "schedule", s.schedule)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.presence != nil {
		observability.SetPresenceOnline(s.presence.OnlineCount())
	}

	stats, err := s.stats.StatsByStatus(ctx, "")
	if err != nil {
		zap.S().Errorw("failed to refresh queue gauges", "error", err)
		return
	}
	observability.SetQueueVisits(string(models.VisitWaiting), stats.Waiting)
	observability.SetQueueVisits(string(models.VisitInProgress), stats.InProgress)
	observability.SetQueueVisits(string(models.VisitCompleted), stats.Completed)
	observability.SetQueueVisits(string(models.VisitCancelled), stats.Cancelled)
	zap.S().Debugw("queue gauges refreshed", "total", stats.Total)
}
