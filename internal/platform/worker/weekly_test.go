package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// 2026-10-12 is a Monday.
var mondayNine = time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC)

func TestShouldRunWeekly(t *testing.T) {
	tests := []struct {
		name        string
		now         time.Time
		lastRun     time.Time
		gracePeriod time.Duration
		want        bool
	}{
		{"due, never run", mondayNine, time.Time{}, defaultWeeklyGracePeriod, true},
		{"due, run last week", mondayNine, mondayNine.Add(-7 * 24 * time.Hour), defaultWeeklyGracePeriod, true},
		{"within grace", mondayNine, mondayNine.Add(-3 * 24 * time.Hour), defaultWeeklyGracePeriod, false},
		{"already ran this hour", mondayNine, mondayNine.Add(-10 * time.Minute), 0, false},
		{"wrong day", mondayNine.Add(24 * time.Hour), time.Time{}, defaultWeeklyGracePeriod, false},
		{"wrong hour", mondayNine.Add(2 * time.Hour), time.Time{}, defaultWeeklyGracePeriod, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldRunWeekly(tt.now, time.Monday, 9, tt.lastRun, tt.gracePeriod)
			if got != tt.want {
				t.Errorf("ShouldRunWeekly() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyTask_Next(t *testing.T) {
	task := &WeeklyTask{Day: time.Monday, Hour: 9}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"earlier same day", time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)},
		{"during run hour", mondayNine, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		{"midweek", time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		{"sunday night", time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := task.Next(tt.now); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestScheduler_TickRunsOncePerWeek(t *testing.T) {
	runs := 0
	task := &WeeklyTask{Name: "weekly", Day: time.Monday, Hour: 9, Run: func(context.Context) error {
		runs++
		return nil
	}}

	s := NewScheduler(task, time.Minute, nil)
	now := mondayNine
	s.now = func() time.Time { return now }

	if !s.Tick(context.Background()) {
		t.Fatal("first tick in the run hour should run the task")
	}

	now = now.Add(20 * time.Minute)
	if s.Tick(context.Background()) {
		t.Fatal("second tick in the same hour should not run the task")
	}

	now = now.Add(7 * 24 * time.Hour)
	if !s.Tick(context.Background()) {
		t.Fatal("tick a week later should run the task")
	}

	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
}

func TestScheduler_FailedRunIsRetried(t *testing.T) {
	calls := 0
	task := &WeeklyTask{Name: "weekly", Day: time.Monday, Hour: 9, Run: func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("store down")
		}

		return nil
	}}

	s := NewScheduler(task, time.Minute, nil)
	s.now = func() time.Time { return mondayNine }

	if s.Tick(context.Background()) {
		t.Fatal("failed run reported as success")
	}

	if !s.LastRun().IsZero() {
		t.Fatal("failed run should not record last run")
	}

	if !s.Tick(context.Background()) {
		t.Fatal("retry should run")
	}
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	task := &WeeklyTask{Name: "weekly", Day: time.Monday, Hour: 9, Run: func(context.Context) error {
		panic("boom")
	}}

	s := NewScheduler(task, time.Minute, nil)
	s.now = func() time.Time { return mondayNine }

	if s.Tick(context.Background()) {
		t.Fatal("panicking run reported as success")
	}
}

func TestScheduler_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	task := &WeeklyTask{Name: "weekly", Day: time.Monday, Hour: 9, Location: loc, Run: func(context.Context) error {
		return nil
	}}

	s := NewScheduler(task, time.Minute, nil)

	s.now = func() time.Time { return mondayNine }
	if s.Tick(context.Background()) {
		t.Fatal("09:30 UTC is 12:30 in UTC+3 and should not run")
	}

	s.now = func() time.Time { return time.Date(2026, 10, 12, 6, 15, 0, 0, time.UTC) }
	if !s.Tick(context.Background()) {
		t.Fatal("06:15 UTC is 09:15 in UTC+3 and should run")
	}
}

func TestScheduler_SeededLastRunSkipsWeek(t *testing.T) {
	task := &WeeklyTask{Name: "weekly", Day: time.Monday, Hour: 9, Run: func(context.Context) error {
		t.Fatal("task should not run")
		return nil
	}}

	s := NewScheduler(task, time.Minute, nil)
	s.now = func() time.Time { return mondayNine }
	s.SetLastRun(mondayNine.Add(-5 * time.Minute))

	if s.Tick(context.Background()) {
		t.Fatal("seeded run should suppress this week's run")
	}
}

func TestTickerLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ticks := 0
	stopped := false

	err := TickerLoop(ctx, TickerConfig{
		Name:       "test",
		Interval:   time.Millisecond,
		RunOnStart: true,
		OnTick: func(context.Context) {
			ticks++
			if ticks == 3 {
				cancel()
			}
		},
		OnStop: func() { stopped = true },
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("TickerLoop() error = %v, want context.Canceled", err)
	}

	if ticks < 3 || !stopped {
		t.Fatalf("ticks = %d, stopped = %v", ticks, stopped)
	}
}

func TestTickerLoop_RejectsZeroInterval(t *testing.T) {
	if err := TickerLoop(context.Background(), TickerConfig{Name: "bad"}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Fatalf("Wait(0) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait(canceled) = %v, want context.Canceled", err)
	}
}
