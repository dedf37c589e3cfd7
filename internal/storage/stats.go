package storage

import (
	"context"
	"time"
)

// DayStats aggregates one calendar day of activity for the daily report.
type DayStats struct {
	Date           time.Time
	ActiveActors   int
	PostsPublished int
	QueuedPending  int
	Failed         int
}

// DailyStats computes aggregates for the calendar day containing `day`
// (midnight to midnight in day's location).
func (s *Store) DailyStats(ctx context.Context, day time.Time) (DayStats, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	st := DayStats{Date: from}

	active, err := s.ActiveActors(ctx, from, to)
	if err != nil {
		return DayStats{}, err
	}
	st.ActiveActors = active

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	err = s.db.QueryRowContext(octx,
		`SELECT COUNT(*) FROM scheduled_jobs
		 WHERE status = ? AND posted_at >= ? AND posted_at < ?`,
		JobPosted, formatTime(from), formatTime(to)).Scan(&st.PostsPublished)
	if err != nil {
		return DayStats{}, persistErr("stats posted", err)
	}
	err = s.db.QueryRowContext(octx,
		`SELECT COUNT(*) FROM scheduled_jobs WHERE status = ?`, JobPending).Scan(&st.QueuedPending)
	if err != nil {
		return DayStats{}, persistErr("stats pending", err)
	}
	err = s.db.QueryRowContext(octx,
		`SELECT COUNT(*) FROM scheduled_jobs WHERE status = ?`, JobFailed).Scan(&st.Failed)
	if err != nil {
		return DayStats{}, persistErr("stats failed", err)
	}
	return st, nil
}
