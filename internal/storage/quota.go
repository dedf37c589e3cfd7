package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

// QuotaStatus is the caller-visible outcome of a quota check. Remaining and
// reset values reflect the state after the call (post-consume on allow).
type QuotaStatus struct {
	Allowed         bool
	HourlyRemaining int
	DailyRemaining  int
	HourResetIn     time.Duration
	DayResetIn      time.Duration
}

type quotaCounter struct {
	hourlyCount     int
	dailyCount      int
	hourWindowStart time.Time
	dayWindowStart  time.Time
}

// CheckAndConsume enforces both rolling windows for one actor. The counter is
// created lazily on first use. Each window resets independently once its
// length has elapsed (or if now precedes the stored start, guarding against
// clock skew). A denial never mutates the counter.
func (s *Store) CheckAndConsume(ctx context.Context, actorID int64, now time.Time, hourlyLimit, dailyLimit int) (QuotaStatus, error) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	c, found, err := s.loadCounter(octx, actorID)
	if err != nil {
		return QuotaStatus{}, persistErr("quota load", err)
	}
	if !found {
		c = quotaCounter{hourWindowStart: now, dayWindowStart: now}
	}
	rollWindows(&c, now)

	st := statusFor(c, now, hourlyLimit, dailyLimit)
	if c.hourlyCount >= hourlyLimit || c.dailyCount >= dailyLimit {
		return st, nil
	}

	c.hourlyCount++
	c.dailyCount++
	if err := s.saveCounter(octx, actorID, c); err != nil {
		return QuotaStatus{}, persistErr("quota save", err)
	}
	return statusAllowed(c, now, hourlyLimit, dailyLimit), nil
}

// GetStatus reports the same shape as CheckAndConsume without consuming.
// Elapsed windows are accounted for in the reply but never persisted.
func (s *Store) GetStatus(ctx context.Context, actorID int64, now time.Time, hourlyLimit, dailyLimit int) (QuotaStatus, error) {
	octx, cancel := s.opCtx(ctx)
	defer cancel()

	c, found, err := s.loadCounter(octx, actorID)
	if err != nil {
		return QuotaStatus{}, persistErr("quota status", err)
	}
	if !found {
		c = quotaCounter{hourWindowStart: now, dayWindowStart: now}
	}
	rollWindows(&c, now)

	st := statusFor(c, now, hourlyLimit, dailyLimit)
	st.Allowed = c.hourlyCount < hourlyLimit && c.dailyCount < dailyLimit
	return st, nil
}

// SweepQuotas removes counters whose day window last moved before the cutoff.
// Active actors recreate their counter lazily on the next check.
func (s *Store) SweepQuotas(ctx context.Context, cutoff time.Time) (int64, error) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`DELETE FROM quota_counters WHERE day_window_start < ?`, formatTime(cutoff))
	if err != nil {
		return 0, persistErr("quota sweep", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ActiveActors counts actors whose day window started within [from, to).
func (s *Store) ActiveActors(ctx context.Context, from, to time.Time) (int, error) {
	octx, cancel := s.opCtx(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(octx,
		`SELECT COUNT(*) FROM quota_counters
		 WHERE daily_count > 0 AND day_window_start >= ? AND day_window_start < ?`,
		formatTime(from), formatTime(to)).Scan(&n)
	if err != nil {
		return 0, persistErr("quota active actors", err)
	}
	return n, nil
}

func (s *Store) loadCounter(ctx context.Context, actorID int64) (quotaCounter, bool, error) {
	var (
		c         quotaCounter
		hourStart string
		dayStart  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT hourly_count, daily_count, hour_window_start, day_window_start
		 FROM quota_counters WHERE actor_id = ?`, actorID).
		Scan(&c.hourlyCount, &c.dailyCount, &hourStart, &dayStart)
	if errors.Is(err, sql.ErrNoRows) {
		return quotaCounter{}, false, nil
	}
	if err != nil {
		return quotaCounter{}, false, err
	}
	c.hourWindowStart = s.parseTime(hourStart)
	c.dayWindowStart = s.parseTime(dayStart)
	return c, true, nil
}

func (s *Store) saveCounter(ctx context.Context, actorID int64, c quotaCounter) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quota_counters (actor_id, hourly_count, daily_count, hour_window_start, day_window_start)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT(actor_id) DO UPDATE SET
		   hourly_count=excluded.hourly_count,
		   daily_count=excluded.daily_count,
		   hour_window_start=excluded.hour_window_start,
		   day_window_start=excluded.day_window_start`,
		actorID, c.hourlyCount, c.dailyCount,
		formatTime(c.hourWindowStart), formatTime(c.dayWindowStart))
	return err
}

// rollWindows resets each window independently. Crossing the hour boundary
// never touches the daily counter, and vice versa. A window start in the
// future (clock skew) counts as elapsed.
func rollWindows(c *quotaCounter, now time.Time) {
	if elapsed := now.Sub(c.hourWindowStart); elapsed > hourWindow || elapsed < 0 {
		c.hourlyCount = 0
		c.hourWindowStart = now
	}
	if elapsed := now.Sub(c.dayWindowStart); elapsed > dayWindow || elapsed < 0 {
		c.dailyCount = 0
		c.dayWindowStart = now
	}
}

func statusFor(c quotaCounter, now time.Time, hourlyLimit, dailyLimit int) QuotaStatus {
	return QuotaStatus{
		Allowed:         false,
		HourlyRemaining: clampNonNeg(hourlyLimit - c.hourlyCount),
		DailyRemaining:  clampNonNeg(dailyLimit - c.dailyCount),
		HourResetIn:     resetIn(c.hourWindowStart, hourWindow, now),
		DayResetIn:      resetIn(c.dayWindowStart, dayWindow, now),
	}
}

func statusAllowed(c quotaCounter, now time.Time, hourlyLimit, dailyLimit int) QuotaStatus {
	st := statusFor(c, now, hourlyLimit, dailyLimit)
	st.Allowed = true
	return st
}

func resetIn(start time.Time, window time.Duration, now time.Time) time.Duration {
	d := window - now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

func clampNonNeg(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
