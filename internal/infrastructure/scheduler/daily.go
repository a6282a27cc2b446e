package scheduler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"PaperNotifier/internal/ports"
)

var runTimeExpr = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// DailyScheduler fires the job once per day at a fixed local time.
type DailyScheduler struct {
	hour     int
	minute   int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses an "HH:MM" run time. Malformed values fall
// back to 09:00, matching the original deployment default.
func NewDailyScheduler(runTime string, location *time.Location) *DailyScheduler {
	hour, minute := parseRunTime(runTime)
	if location == nil {
		location = time.UTC
	}
	return &DailyScheduler{hour: hour, minute: minute, location: location}
}

// NextRun computes the next occurrence of the configured time after
// now.
func (d *DailyScheduler) NextRun(now time.Time) time.Time {
	local := now.In(d.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start launches the timer goroutine. Runs are sequential; a job that
// overruns simply delays its successor.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("scheduler job is nil")
	}
	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			next := d.NextRun(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func parseRunTime(value string) (int, int) {
	m := runTimeExpr.FindStringSubmatch(value)
	if m == nil {
		return 9, 0
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 {
		hour = 23
	}
	if minute > 59 {
		minute = 59
	}
	return hour, minute
}
