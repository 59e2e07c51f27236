package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// HoursPerDay is used for weekly task scheduling calculations.
	HoursPerDay = 24
	// defaultWeeklyGracePeriod is 6 days - prevents duplicate runs within same week.
	defaultWeeklyGracePeriod = 6 * HoursPerDay * time.Hour
	daysPerWeek              = 7
)

var errTaskPanic = errors.New("weekly task panicked")

// WeeklyTask runs once per week at a weekday and hour in a time zone.
type WeeklyTask struct {
	// Name identifies the task for logging.
	Name string

	Day  time.Weekday
	Hour int

	// Location is the time zone Day and Hour refer to (default: UTC).
	Location *time.Location

	// GracePeriod prevents duplicate runs within this duration (default: 6 days).
	GracePeriod time.Duration

	// Run executes the task.
	Run func(ctx context.Context) error
}

func (t *WeeklyTask) location() *time.Location {
	if t.Location == nil {
		return time.UTC
	}

	return t.Location
}

// Next returns the first scheduled start strictly after now.
func (t *WeeklyTask) Next(now time.Time) time.Time {
	local := now.In(t.location())
	start := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, 0, 0, 0, t.location())

	offset := (int(t.Day) - int(local.Weekday()) + daysPerWeek) % daysPerWeek
	start = start.AddDate(0, 0, offset)

	if !start.After(now) {
		start = start.AddDate(0, 0, daysPerWeek)
	}

	return start
}

// Scheduler checks a weekly task on every tick and runs it when due.
type Scheduler struct {
	task     *WeeklyTask
	interval time.Duration
	logger   *zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// NewScheduler creates a scheduler that checks the task every interval.
func NewScheduler(task *WeeklyTask, interval time.Duration, logger *zerolog.Logger) *Scheduler {
	if task.GracePeriod == 0 {
		task.GracePeriod = defaultWeeklyGracePeriod
	}

	return &Scheduler{
		task:     task,
		interval: interval,
		logger:   getLogger(logger),
		now:      time.Now,
	}
}

// SetLastRun seeds the last successful run, e.g. from a stored shortlist.
func (s *Scheduler) SetLastRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = t
}

// LastRun returns the last successful run time.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun
}

// Tick runs the task if it is due and reports whether it ran successfully.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now()

	if !ShouldRunWeekly(now.In(s.task.location()), s.task.Day, s.task.Hour, s.LastRun(), s.task.GracePeriod) {
		return false
	}

	logger := s.logger.With().Str(logFieldTask, s.task.Name).Logger()
	logger.Info().Msgf("Starting weekly %s", s.task.Name)

	if err := s.runTask(ctx, &logger); err != nil {
		logger.Error().Err(err).Msgf("failed to run weekly %s", s.task.Name)

		return false
	}

	s.SetLastRun(now)
	logger.Info().Time("next_run", s.task.Next(now)).Msgf("finished weekly %s", s.task.Name)

	return true
}

func (s *Scheduler) runTask(ctx context.Context, logger *zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")

			err = fmt.Errorf("%w: %v", errTaskPanic, r)
		}
	}()

	return s.task.Run(ctx)
}

// Run checks the task immediately and then on every interval until ctx is
// canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().
		Str(logFieldTask, s.task.Name).
		Time("next_run", s.task.Next(s.now())).
		Msg("weekly scheduler started")

	return TickerLoop(ctx, TickerConfig{
		Name:       s.task.Name,
		Interval:   s.interval,
		RunOnStart: true,
		OnTick:     func(ctx context.Context) { s.Tick(ctx) },
		Logger:     s.logger,
	})
}

// ShouldRunWeekly reports whether a weekly task is due at now.
func ShouldRunWeekly(
	now time.Time,
	day time.Weekday,
	hour int,
	lastRun time.Time,
	gracePeriod time.Duration,
) bool {
	if now.Weekday() != day {
		return false
	}

	if now.Hour() != hour {
		return false
	}

	if gracePeriod == 0 {
		gracePeriod = defaultWeeklyGracePeriod
	}

	if !lastRun.IsZero() && now.Sub(lastRun) <= gracePeriod {
		return false
	}

	return true
}
