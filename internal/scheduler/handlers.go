package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// autoPost drains one batch of due jobs to the channel. A store failure
// abandons this firing (the next one retries); a failed dispatch leaves the
// job pending and counts an attempt, going Failed once the cap is reached.
func (s *Service) autoPost(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	now := s.now()
	jobs, err := s.store.FetchDue(ctx, now, cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("fetch due: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	// First Wait is immediate; the limiter then spaces consecutive posts so
	// one firing never bursts the channel.
	lim := rate.NewLimiter(rate.Every(cfg.DispatchDelay), 1)

	for _, j := range jobs {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		ref, err := s.dispatcher.Post(ctx, j.Payload)
		if err != nil {
			failed, rerr := s.store.RecordAttempt(ctx, j.ID, err.Error(), cfg.MaxAttempts)
			if rerr != nil {
				s.log.Warn().Int64("job", j.ID).Err(rerr).Msg("recording dispatch attempt failed")
			} else if failed {
				s.log.Error().Int64("job", j.ID).Int("attempts", j.Attempts+1).Err(err).Msg("job gave up after retry cap")
			} else {
				s.log.Warn().Int64("job", j.ID).Int("attempts", j.Attempts+1).Err(err).Msg("dispatch failed, job stays pending")
			}
			continue
		}
		if err := s.store.MarkPosted(ctx, j.ID, ref, s.now()); err != nil {
			s.log.Warn().Int64("job", j.ID).Err(err).Msg("mark posted failed")
			continue
		}
		s.log.Info().Int64("job", j.ID).Str("ref", ref).Msg("scheduled post published")
	}
	return nil
}

// report sends the daily aggregate summary to every configured recipient.
// Per-recipient failures are logged and do not abort the remaining sends.
func (s *Service) report(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	loc := s.loc
	s.mu.Unlock()

	now := s.now().In(loc)
	today, err := s.store.DailyStats(ctx, now)
	if err != nil {
		return fmt.Errorf("stats today: %w", err)
	}
	yesterday, err := s.store.DailyStats(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		return fmt.Errorf("stats yesterday: %w", err)
	}

	text := formatReport(today, yesterday, now)
	for _, id := range cfg.ReportRecipients {
		if err := s.dispatcher.SendReport(ctx, id, text); err != nil {
			s.log.Warn().Int64("recipient", id).Err(err).Msg("daily report send failed")
		}
	}
	return nil
}

// cleanup purges quota counters and terminal jobs past the retention window.
func (s *Service) cleanup(ctx context.Context) error {
	s.mu.Lock()
	retention := s.cfg.Retention
	s.mu.Unlock()

	cutoff := s.now().Add(-retention)
	quotas, err := s.store.SweepQuotas(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep quotas: %w", err)
	}
	jobs, err := s.store.SweepJobs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep jobs: %w", err)
	}
	s.log.Info().Int64("quotas", quotas).Int64("jobs", jobs).Time("cutoff", cutoff).Msg("retention sweep done")
	return nil
}

// backup produces a point-in-time database copy. Failure is logged by the
// handler boundary, never fatal.
func (s *Service) backup(ctx context.Context) error {
	s.mu.Lock()
	dir := s.cfg.BackupDir
	maxFiles := s.cfg.BackupMaxFiles
	s.mu.Unlock()

	path, err := s.store.Backup(ctx, dir, maxFiles)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	s.log.Info().Str("path", path).Msg("database backup created")
	return nil
}
