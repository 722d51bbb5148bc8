package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ScheduleTime is a time of day in the scheduler's location.
type ScheduleTime struct {
	Hour   int
	Minute int
}

func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return ScheduleTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// JobFunc runs a scheduled unit of work. now is the trigger time.
type JobFunc func(ctx context.Context, now time.Time) error

type trigger interface {
	// due reports whether the job should fire at now. Implementations
	// must not fire twice for the same occurrence.
	due(now time.Time) bool
}

type dailyTrigger struct {
	at      ScheduleTime
	lastKey string
}

func (t *dailyTrigger) due(now time.Time) bool {
	if now.Hour() != t.at.Hour || now.Minute() != t.at.Minute {
		return false
	}
	key := now.Format("2006-01-02")
	if key == t.lastKey {
		return false
	}
	t.lastKey = key
	return true
}

type monthlyTrigger struct {
	day     int
	at      ScheduleTime
	lastKey string
}

func (t *monthlyTrigger) due(now time.Time) bool {
	if now.Day() != t.day || now.Hour() != t.at.Hour || now.Minute() != t.at.Minute {
		return false
	}
	key := now.Format("2006-01")
	if key == t.lastKey {
		return false
	}
	t.lastKey = key
	return true
}

type intervalTrigger struct {
	every   time.Duration
	lastRun time.Time
}

func (t *intervalTrigger) due(now time.Time) bool {
	if !t.lastRun.IsZero() && now.Sub(t.lastRun) < t.every {
		return false
	}
	t.lastRun = now
	return true
}

type job struct {
	name    string
	trigger trigger
	run     JobFunc
}

// Scheduler fires registered jobs from a minute tick. Interval jobs also
// fire on the first tick after startup.
type Scheduler struct {
	mu   sync.Mutex
	jobs []*job

	now      func() time.Time
	interval time.Duration
}

func New() *Scheduler {
	return &Scheduler{
		now:      time.Now,
		interval: time.Minute,
	}
}

// DailyAt registers a job that fires once per day at the given HH:MM time.
func (s *Scheduler) DailyAt(name, at string, run JobFunc) error {
	st, err := ParseScheduleTime(at)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.add(&job{name: name, trigger: &dailyTrigger{at: st}, run: run})
	return nil
}

// MonthlyAt registers a job that fires once per month on the given day of
// month at the given HH:MM time.
func (s *Scheduler) MonthlyAt(name string, day int, at string, run JobFunc) error {
	if day < 1 || day > 28 {
		return fmt.Errorf("schedule %s: day %d out of range 1-28", name, day)
	}
	st, err := ParseScheduleTime(at)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.add(&job{name: name, trigger: &monthlyTrigger{day: day, at: st}, run: run})
	return nil
}

// Every registers a job that fires on startup and then at the given interval.
func (s *Scheduler) Every(name string, every time.Duration, run JobFunc) error {
	if every < time.Minute {
		return fmt.Errorf("schedule %s: interval %v below one minute", name, every)
	}
	s.add(&job{name: name, trigger: &intervalTrigger{every: every}, run: run})
	return nil
}

func (s *Scheduler) add(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
}

// Run ticks until the context is cancelled. Jobs run sequentially on the
// scheduler goroutine; a slow job delays the others, which is acceptable
// for the workloads scheduled here.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Scheduler started", "jobs", len(s.jobs))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runDue(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx, s.now())
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	jobs := make([]*job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, j := range jobs {
		if !j.trigger.due(now) {
			continue
		}
		slog.InfoContext(ctx, "Running scheduled job", "job", j.name, "at", now.Format(time.RFC3339))
		if err := j.run(ctx, now); err != nil {
			slog.ErrorContext(ctx, "Scheduled job failed", "job", j.name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Scheduled job completed", "job", j.name)
	}
}
