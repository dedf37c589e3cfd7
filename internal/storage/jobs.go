package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of a scheduled post. Posted, Cancelled
// and Failed are terminal; every transition starts from Pending.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobPosted    JobStatus = "posted"
	JobCancelled JobStatus = "cancelled"
	JobFailed    JobStatus = "failed"
)

// ErrEmptyPayload rejects an Enqueue with nothing to post. It is a
// validation failure, not a persistence one.
var ErrEmptyPayload = errors.New("empty payload")

type Job struct {
	ID          int64
	Payload     string
	ScheduledAt time.Time
	Status      JobStatus
	CreatedAt   time.Time
	PostedAt    *time.Time
	ExternalRef string
	Attempts    int
	LastError   string
}

// Enqueue stores a new pending post. A scheduledAt in the past is valid and
// simply makes the job immediately due.
func (s *Store) Enqueue(ctx context.Context, payload string, scheduledAt time.Time) (int64, error) {
	if strings.TrimSpace(payload) == "" {
		return 0, ErrEmptyPayload
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`INSERT INTO scheduled_jobs (payload, scheduled_at, status, created_at)
		 VALUES (?,?,?,?)`,
		payload, formatTime(scheduledAt), JobPending, formatTime(time.Now()))
	if err != nil {
		return 0, persistErr("job enqueue", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistErr("job enqueue", err)
	}
	return id, nil
}

// FetchDue returns pending jobs with scheduledAt <= now, oldest first,
// capped at limit to bound per-tick work.
func (s *Store) FetchDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	octx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(octx,
		`SELECT id, payload, scheduled_at, status, created_at, posted_at, external_ref, attempts, last_error
		 FROM scheduled_jobs
		 WHERE status = ? AND scheduled_at <= ?
		 ORDER BY scheduled_at ASC
		 LIMIT ?`,
		JobPending, formatTime(now), limit)
	if err != nil {
		return nil, persistErr("job fetch due", err)
	}
	defer rows.Close()
	return s.scanJobs(rows)
}

// MarkPosted transitions Pending -> Posted. If the job is already terminal
// this is a no-op that only logs; duplicate dispatch attempts may race here
// and must not error.
func (s *Store) MarkPosted(ctx context.Context, jobID int64, externalRef string, postedAt time.Time) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`UPDATE scheduled_jobs
		 SET status = ?, posted_at = ?, external_ref = ?
		 WHERE id = ? AND status = ?`,
		JobPosted, formatTime(postedAt), nullStr(externalRef), jobID, JobPending)
	if err != nil {
		return persistErr("job mark posted", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Warn().Int64("job", jobID).Msg("mark posted skipped: job not pending")
	}
	return nil
}

// Cancel transitions Pending -> Cancelled. The bool reports whether the job
// was actually cancelled; false means it was missing or already terminal.
func (s *Store) Cancel(ctx context.Context, jobID int64) (bool, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`UPDATE scheduled_jobs SET status = ? WHERE id = ? AND status = ?`,
		JobCancelled, jobID, JobPending)
	if err != nil {
		return false, persistErr("job cancel", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkFailed transitions Pending -> Failed (terminal).
func (s *Store) MarkFailed(ctx context.Context, jobID int64, reason string) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`UPDATE scheduled_jobs SET status = ?, last_error = ? WHERE id = ? AND status = ?`,
		JobFailed, nullStr(reason), jobID, JobPending)
	if err != nil {
		return persistErr("job mark failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Warn().Int64("job", jobID).Msg("mark failed skipped: job not pending")
	}
	return nil
}

// RecordAttempt notes one failed dispatch. The job stays Pending and is
// retried on a later firing until attempts reaches maxAttempts, at which
// point it transitions to Failed. The bool reports that final transition.
func (s *Store) RecordAttempt(ctx context.Context, jobID int64, reason string, maxAttempts int) (bool, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	var attempts int
	err := s.db.QueryRowContext(octx,
		`SELECT attempts FROM scheduled_jobs WHERE id = ? AND status = ?`,
		jobID, JobPending).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Warn().Int64("job", jobID).Msg("record attempt skipped: job not pending")
		return false, nil
	}
	if err != nil {
		return false, persistErr("job record attempt", err)
	}

	attempts++
	failed := maxAttempts > 0 && attempts >= maxAttempts
	status := JobPending
	if failed {
		status = JobFailed
	}
	_, err = s.db.ExecContext(octx,
		`UPDATE scheduled_jobs SET attempts = ?, last_error = ?, status = ? WHERE id = ?`,
		attempts, nullStr(reason), status, jobID)
	if err != nil {
		return false, persistErr("job record attempt", err)
	}
	return failed, nil
}

// ListJobs returns jobs filtered by status (empty means all), newest
// schedule first, capped at limit.
func (s *Store) ListJobs(ctx context.Context, status JobStatus, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	octx, cancel := s.opCtx(ctx)
	defer cancel()

	q := `SELECT id, payload, scheduled_at, status, created_at, posted_at, external_ref, attempts, last_error
	      FROM scheduled_jobs`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY scheduled_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(octx, q, args...)
	if err != nil {
		return nil, persistErr("job list", err)
	}
	defer rows.Close()
	return s.scanJobs(rows)
}

// SweepJobs deletes terminal jobs older than the cutoff. Pending jobs are
// never swept.
func (s *Store) SweepJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(octx,
		`DELETE FROM scheduled_jobs
		 WHERE status != ? AND COALESCE(posted_at, created_at) < ?`,
		JobPending, formatTime(cutoff))
	if err != nil {
		return 0, persistErr("job sweep", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) scanJobs(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var (
			j           Job
			scheduledAt string
			createdAt   string
			postedAt    sql.NullString
			externalRef sql.NullString
			lastError   sql.NullString
		)
		if err := rows.Scan(&j.ID, &j.Payload, &scheduledAt, &j.Status, &createdAt,
			&postedAt, &externalRef, &j.Attempts, &lastError); err != nil {
			return nil, persistErr("job scan", err)
		}
		j.ScheduledAt = s.parseTime(scheduledAt)
		j.CreatedAt = s.parseTime(createdAt)
		if postedAt.Valid {
			t := s.parseTime(postedAt.String)
			j.PostedAt = &t
		}
		j.ExternalRef = externalRef.String
		j.LastError = lastError.String
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("job scan", err)
	}
	return out, nil
}
