// Package scheduler drives the weekly newsletter send. It computes
// the next configured send time (weekday + hour, UTC), sleeps until
// then and fires the send job, once or in a loop.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is the work fired at each scheduled send time.
type Job func(ctx context.Context) error

type Scheduler struct {
	job     Job
	weekday time.Weekday
	hour    int
	log     zerolog.Logger
	now     func() time.Time
}

func New(job Job, weekday time.Weekday, hour int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		job:     job,
		weekday: weekday,
		hour:    hour,
		log:     log.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// Next returns the first send time strictly after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	from = from.UTC()
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, 0, 0, 0, time.UTC)
	days := (int(s.weekday) - int(from.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// RunNow fires the job immediately, skipping the wait.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.log.Info().Msg("firing send immediately")
	return s.job(ctx)
}

// RunOnce sleeps until the next send time and fires the job once.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	next := s.Next(s.now())
	s.log.Info().Time("next_send", next).Msg("waiting for scheduled send")

	timer := time.NewTimer(next.Sub(s.now()))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	return s.job(ctx)
}

// RunLoop fires the job at every send time until the context is
// cancelled. A failed send is logged and the loop keeps going, so one
// bad week does not stop the following ones.
func (s *Scheduler) RunLoop(ctx context.Context) error {
	for {
		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error().Err(err).Msg("scheduled send failed")
			continue
		}
		s.log.Info().Msg("scheduled send completed")
	}
}
