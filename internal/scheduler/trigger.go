package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"newsbot/internal/config"
)

// Handler is the work a trigger fires. Handlers run off the tick goroutine;
// a returned error means this firing is abandoned and the work waits for the
// trigger's next occurrence.
type Handler func(ctx context.Context) error

// trigger pairs a schedule with its handler. next is the earliest occurrence
// that has not fired yet; it is advanced before the handler is spawned, so a
// delayed tick (or a slow handler) can never fire the same occurrence twice.
type trigger struct {
	name  string
	sched cron.Schedule
	run   Handler

	next      time.Time
	lastFired time.Time
}

// TriggerStatus is a read-only snapshot for introspection.
type TriggerStatus struct {
	Name      string
	Next      time.Time
	LastFired time.Time
}

// dailySchedule fires once per day at a fixed local time. It satisfies
// cron.Schedule so fixed times and raw cron specs share one trigger path.
type dailySchedule struct {
	at  config.Clock
	loc *time.Location
}

func (d dailySchedule) Next(t time.Time) time.Time {
	t = t.In(d.loc)
	n := time.Date(t.Year(), t.Month(), t.Day(), d.at.Hour, d.at.Minute, 0, 0, d.loc)
	if !n.After(t) {
		n = n.AddDate(0, 0, 1)
	}
	return n
}

// weeklySchedule fires once per week on a fixed weekday at a fixed local time.
type weeklySchedule struct {
	day time.Weekday
	at  config.Clock
	loc *time.Location
}

func (w weeklySchedule) Next(t time.Time) time.Time {
	t = t.In(w.loc)
	n := time.Date(t.Year(), t.Month(), t.Day(), w.at.Hour, w.at.Minute, 0, 0, w.loc)
	days := (int(w.day) - int(n.Weekday()) + 7) % 7
	n = n.AddDate(0, 0, days)
	if !n.After(t) {
		n = n.AddDate(0, 0, 7)
	}
	return n
}
