package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate rejects configs that would fail later at wiring time. It parses
// every time-shaped field so a bad reload never reaches the scheduler.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.op_timeout", cfg.Storage.OpTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if cfg.Quota.HourlyLimit < 0 || cfg.Quota.DailyLimit < 0 {
		return fmt.Errorf("quota limits must be >= 0")
	}

	s := cfg.Scheduler
	if tz := strings.TrimSpace(s.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}
	for i, raw := range s.PostTimes {
		if _, err := ParseClock(raw); err != nil {
			return fmt.Errorf("scheduler.post_times[%d]: %w", i, err)
		}
	}
	if s.ReportEnabled {
		if _, err := ParseClock(s.ReportTime); err != nil {
			return fmt.Errorf("scheduler.report_time: %w", err)
		}
	}
	if strings.TrimSpace(s.CleanupDay) != "" {
		if _, err := ParseWeekday(s.CleanupDay); err != nil {
			return fmt.Errorf("scheduler.cleanup_day: %w", err)
		}
		if _, err := ParseClock(s.CleanupTime); err != nil {
			return fmt.Errorf("scheduler.cleanup_time: %w", err)
		}
	}
	if s.BackupEnabled {
		if _, err := ParseClock(s.BackupTime); err != nil {
			return fmt.Errorf("scheduler.backup_time: %w", err)
		}
	}
	for i, spec := range s.ExtraPostSpecs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("scheduler.extra_post_specs[%d]: %w", i, err)
		}
	}
	if _, err := ParseDurationField("scheduler.dispatch_delay", s.DispatchDelay); err != nil {
		return err
	}
	if s.BatchSize < 0 || s.MaxAttempts < 0 || s.RetentionDays < 0 {
		return fmt.Errorf("scheduler batch_size/max_attempts/retention_days must be >= 0")
	}
	if cfg.Backup.MaxFiles < 0 {
		return fmt.Errorf("backup.max_files must be >= 0")
	}
	return nil
}
