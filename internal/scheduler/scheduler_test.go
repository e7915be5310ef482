package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Polyglot/internal/telemetry"
)

// fakePurger считает вызовы PurgeExpired.
type fakePurger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, f.err
}

// everySchedule — расписание с фиксированным интервалом.
type everySchedule time.Duration

func (e everySchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// --- Cron Tests ---

func TestNextRun(t *testing.T) {
	from := time.Date(2025, 3, 10, 12, 7, 30, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"*/10 * * * *", time.Date(2025, 3, 10, 12, 10, 0, 0, time.UTC)},
		{"0 * * * *", time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
		{"30 2 * * *", time.Date(2025, 3, 11, 2, 30, 0, 0, time.UTC)},
		{"@hourly", time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		s, err := New(Config{Purger: &fakePurger{}, CronExpr: tt.expr})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.expr, err)
			continue
		}
		if got := s.NextRun(from); !got.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.expr, tt.want, got)
		}
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("*/5 * * * *"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	for _, expr := range []string{"", "not a cron", "* * *", "61 * * * *"} {
		if err := ValidateCronExpr(expr); !errors.Is(err, ErrInvalidCron) {
			t.Errorf("%q: expected ErrInvalidCron, got %v", expr, err)
		}
	}
}

// --- Scheduler Tests ---

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{Purger: &fakePurger{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cronExpr != defaultCronExpr {
		t.Errorf("expected default cron, got %s", s.cronExpr)
	}

	from := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	if next := s.NextRun(from); !next.Equal(from.Add(9 * time.Minute)) {
		t.Errorf("expected next run at 00:10, got %v", next)
	}
}

func TestNew_InvalidCron(t *testing.T) {
	if _, err := New(Config{Purger: &fakePurger{}, CronExpr: "bad"}); !errors.Is(err, ErrInvalidCron) {
		t.Errorf("expected ErrInvalidCron, got %v", err)
	}
}

func TestTick(t *testing.T) {
	purger := &fakePurger{}
	s, _ := New(Config{Purger: purger, Logger: telemetry.Discard()})

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purger.calls.Load() != 1 {
		t.Errorf("expected 1 purge, got %d", purger.calls.Load())
	}
}

func TestTick_Error(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	s, _ := New(Config{Purger: purger, Logger: telemetry.Discard()})

	if err := s.Tick(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	purger := &fakePurger{}
	s, _ := New(Config{Purger: purger, Logger: telemetry.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_TicksOnSchedule(t *testing.T) {
	purger := &fakePurger{}
	s, _ := New(Config{Purger: purger, Logger: telemetry.Discard()})

	// Следующая очистка всегда через 10ms
	s.schedule = everySchedule(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go s.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for purger.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 ticks, got %d", purger.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
