package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "valid daily schedule", schedule: "0 3 * * *", wantRunning: true},
		{name: "descriptor", schedule: "@every 6h", wantRunning: true},
		{name: "empty schedule", schedule: "", wantRunning: false},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(func(context.Context) {}, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Start(ctx, tt.schedule)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				var schedErr *ScheduleError
				if !errors.As(err, &schedErr) {
					t.Errorf("error type %T, want *ScheduleError", err)
				}
			}

			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning {
				next := s.NextRun()
				if next == nil || !next.After(time.Now().Add(-time.Second)) {
					t.Errorf("NextRun() = %v", next)
				}
			}

			s.Stop()
			if s.IsRunning() {
				t.Error("scheduler still running after Stop()")
			}
			if s.NextRun() != nil {
				t.Error("NextRun() should be nil after Stop()")
			}
		})
	}
}

func TestScheduler_RunsJob(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	s := NewScheduler(func(context.Context) {
		runs.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "@every 1s"); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	var running, maxRunning, runs atomic.Int32
	release := make(chan struct{})

	s := NewScheduler(func(context.Context) {
		n := running.Add(1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		runs.Add(1)
		<-release
		running.Add(-1)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "@every 1s"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(3500 * time.Millisecond)
	close(release)
	s.Stop()

	if maxRunning.Load() != 1 {
		t.Errorf("max concurrent runs = %d, want 1", maxRunning.Load())
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 (overlapping ticks skipped)", runs.Load())
	}
}

func TestScheduler_RecoversPanics(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func(context.Context) {
		runs.Add(1)
		panic("boom")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "@every 1s"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(4 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if runs.Load() < 2 {
		t.Errorf("runs = %d, scheduler did not survive a panicking job", runs.Load())
	}
}

func TestScheduler_Reschedule(t *testing.T) {
	s := NewScheduler(func(context.Context) {}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "0 3 * * *"); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.Reschedule("bad"); err == nil {
		t.Error("Reschedule() accepted an invalid expression")
	}
	if err := s.Reschedule("30 4 * * *"); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if s.Schedule() != "30 4 * * *" {
		t.Errorf("Schedule() = %q", s.Schedule())
	}

	next := s.NextRun()
	if next == nil || next.UTC().Hour() != 4 || next.UTC().Minute() != 30 {
		t.Errorf("NextRun() = %v, want 04:30 UTC", next)
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(func(context.Context) {}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx, "0 3 * * *"); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancellation")
	}
}
