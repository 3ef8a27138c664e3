// Package maintenance runs the daily housekeeping jobs: emptying the
// in-memory horoscope cache and purging history past its retention window.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/tbourn/go-horoscope-backend/internal/observability"
)

const (
	defaultRetentionDays = 30
	defaultSchedule      = "@midnight"

	taskClearCache   = "clear_cache"
	taskPurgeHistory = "purge_history"
)

// CacheClearer empties the daily reading cache.
type CacheClearer interface {
	ClearCache() int
}

// HistoryPurger deletes history entries created before cutoff.
type HistoryPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the cron runner and the two maintenance tasks. The tasks
// run independently: a failure in one is logged and never prevents the other.
type Scheduler struct {
	cache     CacheClearer
	history   HistoryPurger
	cron      *cron.Cron
	now       func() time.Time
	log       zerolog.Logger
	location  *time.Location
	retention int
	schedule  string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used to compute the retention cutoff.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetentionDays sets how many days of history are kept.
func WithRetentionDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.retention = days
		}
	}
}

// WithSchedule overrides the cron specification.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithLocation sets the time zone the schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler builds a Scheduler. A nil dependency disables its task.
func NewScheduler(c CacheClearer, h HistoryPurger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cache:     c,
		history:   h,
		now:       time.Now,
		log:       log.Logger.With().Str("component", "maintenance").Logger(),
		location:  time.Local,
		retention: defaultRetentionDays,
		schedule:  defaultSchedule,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(
			cron.WithLocation(s.location),
			cron.WithLogger(cron.DiscardLogger),
		)
	}
	return s
}

func (s *Scheduler) enabled() bool { return s.cache != nil || s.history != nil }

// Start registers the daily job and launches the cron runner.
func (s *Scheduler) Start() error {
	if !s.enabled() {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		_ = s.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info().
		Str("schedule", s.schedule).
		Str("tz", s.location.String()).
		Int("retention_days", s.retention).
		Msg("maintenance scheduled")
	return nil
}

// Stop halts the cron runner. The returned context is done once any running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes both tasks sequentially and returns their combined error.
// Each failure is also logged where it happens.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.cache != nil {
		errs = multierr.Append(errs, s.run(ctx, taskClearCache, s.clearCache))
	}
	if s.history != nil {
		errs = multierr.Append(errs, s.run(ctx, taskPurgeHistory, s.purgeHistory))
	}
	return errs
}

// Cutoff returns the instant before which history is purged.
func (s *Scheduler) Cutoff() time.Time {
	return s.now().AddDate(0, 0, -s.retention)
}

func (s *Scheduler) clearCache(context.Context) error {
	n := s.cache.ClearCache()
	s.log.Info().Int("entries", n).Msg("horoscope cache cleared")
	return nil
}

func (s *Scheduler) purgeHistory(ctx context.Context) error {
	cutoff := s.Cutoff()
	n, err := s.history.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	observability.HistoryPurged.Add(float64(n))
	s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("history purged")
	return nil
}

// run executes one task, converting a panic into an error so the other task
// still runs.
func (s *Scheduler) run(ctx context.Context, task string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		observability.MaintenanceRuns.WithLabelValues(task, observability.Outcome(err)).Inc()
		if err != nil {
			s.log.Error().Err(err).Str("task", task).Msg("maintenance task failed")
			err = fmt.Errorf("%s: %w", task, err)
		}
	}()
	return fn(ctx)
}
