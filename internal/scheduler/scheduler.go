// Package scheduler drives periodic background jobs, currently the seller
// update dispatch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openhaus/atrium/internal/clock"
	"github.com/openhaus/atrium/internal/observability/metrics"
	"github.com/openhaus/atrium/internal/ratelimit"
	sellerupdatedomain "github.com/openhaus/atrium/internal/sellerupdate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

const jobSellerUpdates = "seller_updates"

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SellerUpdateSvc sellerupdatedomain.Service
	Metrics         *metrics.SchedulerMetrics `optional:"true"`
	JobLock         *ratelimit.JobLocker      `optional:"true"`
	Config          Config                    `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	metrics         *metrics.SchedulerMetrics
	jobLock         *ratelimit.JobLocker
	sellerUpdateSvc sellerupdatedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SellerUpdateSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		metrics:         p.Metrics,
		jobLock:         p.JobLock,
		sellerUpdateSvc: p.SellerUpdateSvc,
	}, nil
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	if s.isJobEnabled(jobSellerUpdates) {
		err = errors.Join(err, s.runJob(parent, jobSellerUpdates, s.SellerUpdatesJob))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) SellerUpdatesJob(ctx context.Context) error {
	now := s.clock.Now()
	sent, err := s.sellerUpdateSvc.DispatchDue(ctx, now)
	if sent > 0 {
		s.log.Info("seller updates dispatched", zap.Int("sent", sent))
	}
	return err
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	if s.jobLock != nil {
		token, ok, err := s.jobLock.TryLock(ctx, name)
		if err != nil {
			s.log.Warn("job lock unavailable", zap.String("job", name), zap.Error(err))
		} else if !ok {
			s.log.Info("job held by another instance", zap.String("job", name))
			return nil
		} else {
			defer func() {
				if err := s.jobLock.Release(ctx, name, token); err != nil {
					s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
				}
			}()
		}
	}

	s.metrics.IncJobRun(name)
	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list enables everything.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
