package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{"00:00", ScheduleTime{0, 0}, false},
		{"06:30", ScheduleTime{6, 30}, false},
		{"23:59", ScheduleTime{23, 59}, false},
		{"24:00", ScheduleTime{}, true},
		{"12:60", ScheduleTime{}, true},
		{"noon", ScheduleTime{}, true},
		{"", ScheduleTime{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyJobFiresOncePerDay(t *testing.T) {
	s := New()
	runs := 0
	if err := s.DailyAt("discovery", "00:00", func(ctx context.Context, now time.Time) error {
		runs++
		return nil
	}); err != nil {
		t.Fatalf("DailyAt: %v", err)
	}

	midnight := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	s.runDue(context.Background(), midnight)
	s.runDue(context.Background(), midnight.Add(30*time.Second))
	s.runDue(context.Background(), midnight.Add(time.Minute))
	s.runDue(context.Background(), midnight.Add(12*time.Hour))
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}

	s.runDue(context.Background(), midnight.AddDate(0, 0, 1))
	if runs != 2 {
		t.Fatalf("runs = %d, want 2 after next midnight", runs)
	}
}

func TestMonthlyJobFiresOnFirstOfMonth(t *testing.T) {
	s := New()
	var fired []time.Time
	if err := s.MonthlyAt("reports", 1, "06:00", func(ctx context.Context, now time.Time) error {
		fired = append(fired, now)
		return nil
	}); err != nil {
		t.Fatalf("MonthlyAt: %v", err)
	}

	s.runDue(context.Background(), time.Date(2025, time.May, 20, 6, 0, 0, 0, time.UTC))
	s.runDue(context.Background(), time.Date(2025, time.June, 1, 5, 59, 0, 0, time.UTC))
	if len(fired) != 0 {
		t.Fatalf("fired = %v, want none before the slot", fired)
	}

	first := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)
	s.runDue(context.Background(), first)
	s.runDue(context.Background(), first.Add(20*time.Second))
	if len(fired) != 1 {
		t.Fatalf("fired %d times on the slot, want 1", len(fired))
	}

	s.runDue(context.Background(), time.Date(2025, time.July, 1, 6, 0, 0, 0, time.UTC))
	if len(fired) != 2 {
		t.Fatalf("fired = %d, want 2 after next month", len(fired))
	}
}

func TestMonthlyRejectsOutOfRangeDay(t *testing.T) {
	s := New()
	err := s.MonthlyAt("reports", 31, "06:00", func(ctx context.Context, now time.Time) error { return nil })
	if err == nil {
		t.Fatal("expected error for day 31")
	}
}

func TestIntervalJobRespectsSpacing(t *testing.T) {
	s := New()
	runs := 0
	if err := s.Every("alerts", 6*time.Hour, func(ctx context.Context, now time.Time) error {
		runs++
		return nil
	}); err != nil {
		t.Fatalf("Every: %v", err)
	}

	start := time.Date(2025, time.May, 20, 9, 13, 0, 0, time.UTC)
	s.runDue(context.Background(), start)
	if runs != 1 {
		t.Fatalf("runs = %d, interval job must fire on first tick", runs)
	}

	s.runDue(context.Background(), start.Add(5*time.Hour))
	if runs != 1 {
		t.Fatalf("runs = %d, fired before interval elapsed", runs)
	}

	s.runDue(context.Background(), start.Add(6*time.Hour))
	if runs != 2 {
		t.Fatalf("runs = %d, want 2 after interval", runs)
	}
}

func TestFailingJobDoesNotBlockOthers(t *testing.T) {
	s := New()
	ran := false
	if err := s.Every("failing", time.Hour, func(ctx context.Context, now time.Time) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("Every: %v", err)
	}
	if err := s.Every("healthy", time.Hour, func(ctx context.Context, now time.Time) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Every: %v", err)
	}

	s.runDue(context.Background(), time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC))
	if !ran {
		t.Fatal("healthy job did not run after failing job")
	}
}
