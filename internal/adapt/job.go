package adapt

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
	"github.com/ykvlv/coach-bot/internal/worker"
)

// ProfileLister lists the users to adapt.
type ProfileLister interface {
	ListActive(ctx context.Context) ([]domain.UserProfile, error)
}

// Job runs the adaptation cycle for every active user once per interval.
type Job struct {
	svc      *Service
	profiles ProfileLister
	log      *zap.Logger
	interval time.Duration
	workers  int
}

func NewJob(svc *Service, profiles ProfileLister, log *zap.Logger, interval time.Duration, workers int) *Job {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Job{svc: svc, profiles: profiles, log: log, interval: interval, workers: workers}
}

// Run adapts all users every interval until ctx is canceled.
func (j *Job) Run(ctx context.Context) {
	worker.Every(ctx, j.interval, false, j.AdaptAll)
	j.log.Info("adaptation job stopping")
}

// AdaptAll runs one cycle per active user. A failing user does not affect
// the others and is retried on the next run.
func (j *Job) AdaptAll(ctx context.Context) {
	users, err := j.profiles.ListActive(ctx)
	if err != nil {
		j.log.Error("list active users failed", zap.Error(err))
		return
	}
	worker.ForEach(ctx, users, j.workers, func(ctx context.Context, p domain.UserProfile) error {
		_, err := j.svc.Adapt(ctx, p.UserID)
		return err
	}, func(p domain.UserProfile, err error) {
		j.svc.metrics.UserError("adapt")
		j.log.Error("adaptation failed", zap.Int64("userID", p.UserID), zap.Error(err))
	})
}
