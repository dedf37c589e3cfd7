package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"newsbot/internal/config"
	"newsbot/internal/storage"
)

const cmdTimeout = 10 * time.Second

func (a *Adapter) registerCommands() {
	a.bot.Handle("/schedule", a.adminOnly(a.cmdSchedule))
	a.bot.Handle("/cancel", a.adminOnly(a.cmdCancel))
	a.bot.Handle("/queue", a.adminOnly(a.cmdQueue))
	a.bot.Handle("/quota", a.adminOnly(a.cmdQuota))
	a.bot.Handle("/stats", a.adminOnly(a.cmdStats))
}

func (a *Adapter) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || !a.isAdmin(sender.ID) {
			return c.Send("❌ You are not authorized to use this bot.")
		}
		return next(c)
	}
}

// cmdSchedule enqueues a post: "/schedule now <text>" or
// "/schedule HH:MM <text>" (next occurrence of that local time).
// The quota check consumes one request; on a storage failure the command
// fails open (allowed, logged).
func (a *Adapter) cmdSchedule(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	when, text, err := parseScheduleArgs(c.Message().Payload, time.Now())
	if err != nil {
		return c.Send("Usage: /schedule now <text> or /schedule HH:MM <text>")
	}

	hourly, daily := a.limits()
	st, qerr := a.store.CheckAndConsume(ctx, c.Sender().ID, time.Now(), hourly, daily)
	if qerr != nil {
		a.log.Warn().Int64("actor", c.Sender().ID).Err(qerr).Msg("quota check unavailable, failing open")
	} else if !st.Allowed {
		return c.Send(fmt.Sprintf("⏰ Rate limit exceeded. Hourly resets in %s, daily in %s.",
			st.HourResetIn.Round(time.Minute), st.DayResetIn.Round(time.Minute)))
	}

	id, err := a.store.Enqueue(ctx, text, when)
	if errors.Is(err, storage.ErrEmptyPayload) {
		return c.Send("📝 Nothing to schedule: the post text is empty.")
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("schedule enqueue failed")
		return c.Send("❌ Could not schedule the post. Try again later.")
	}
	return c.Send(fmt.Sprintf("✅ Post #%d scheduled for %s.", id, when.Format("2006-01-02 15:04")))
}

func (a *Adapter) cmdCancel(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	id, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("Usage: /cancel <job id>")
	}
	ok, err := a.store.Cancel(ctx, id)
	if err != nil {
		a.log.Warn().Int64("job", id).Err(err).Msg("cancel failed")
		return c.Send("❌ Could not cancel the post. Try again later.")
	}
	if !ok {
		return c.Send(fmt.Sprintf("Post #%d was not pending (already posted, cancelled or unknown).", id))
	}
	return c.Send(fmt.Sprintf("🚫 Post #%d cancelled.", id))
}

func (a *Adapter) cmdQueue(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	jobs, err := a.store.ListJobs(ctx, storage.JobPending, 10)
	if err != nil {
		a.log.Warn().Err(err).Msg("queue list failed")
		return c.Send("❌ Could not read the queue. Try again later.")
	}
	if len(jobs) == 0 {
		return c.Send("Queue is empty.")
	}
	var b strings.Builder
	b.WriteString("🕐 Pending posts:\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "#%d — %s — %s\n", j.ID, j.ScheduledAt.Local().Format("2006-01-02 15:04"), preview(j.Payload, 40))
	}
	return c.Send(b.String())
}

func (a *Adapter) cmdQuota(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	hourly, daily := a.limits()
	st, err := a.store.GetStatus(ctx, c.Sender().ID, time.Now(), hourly, daily)
	if err != nil {
		a.log.Warn().Err(err).Msg("quota status failed")
		return c.Send("❌ Could not read quota status. Try again later.")
	}
	return c.Send(fmt.Sprintf(
		"📈 Quota: %d/%d this hour (resets in %s), %d/%d today (resets in %s).",
		hourly-st.HourlyRemaining, hourly, st.HourResetIn.Round(time.Minute),
		daily-st.DailyRemaining, daily, st.DayResetIn.Round(time.Minute)))
}

func (a *Adapter) cmdStats(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	st, err := a.store.DailyStats(ctx, time.Now())
	if err != nil {
		a.log.Warn().Err(err).Msg("stats failed")
		return c.Send("❌ Could not read stats. Try again later.")
	}
	return c.Send(fmt.Sprintf(
		"📊 Today: %d active users, %d posts published, %d pending, %d failed.",
		st.ActiveActors, st.PostsPublished, st.QueuedPending, st.Failed))
}

// parseScheduleArgs splits "now <text>" / "HH:MM <text>". An HH:MM earlier
// than the current time means tomorrow.
func parseScheduleArgs(payload string, now time.Time) (time.Time, string, error) {
	parts := strings.SplitN(strings.TrimSpace(payload), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return time.Time{}, "", errors.New("missing text")
	}
	text := strings.TrimSpace(parts[1])

	if strings.EqualFold(parts[0], "now") {
		return now, text, nil
	}
	clock, err := config.ParseClock(parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour, clock.Minute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, text, nil
}

// preview truncates by runes, not bytes: payloads are arbitrary UTF-8.
func preview(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
