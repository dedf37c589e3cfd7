package main

import (
	"fmt"
	"strings"
	"time"

	"newsbot/internal/config"
	"newsbot/internal/scheduler"
	"newsbot/internal/storage"
	"newsbot/internal/telegram"
)

// The wire functions convert the on-disk config (string durations, "HH:MM"
// times) into the typed service configs. config.Validate has already checked
// every field, so errors here only guard against drift between the two.

func storageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	op, err := config.ParseDurationField("storage.op_timeout", cfg.Storage.OpTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{Path: cfg.Storage.Path, BusyTimeout: busy, OpTimeout: op}, nil
}

func telegramConfig(cfg *config.Config) (telegram.Config, error) {
	poll, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:       cfg.Telegram.Token,
		Channel:     cfg.Telegram.Channel,
		AdminIDs:    cfg.Telegram.AdminIDs,
		PollTimeout: poll,
		HourlyLimit: cfg.Quota.HourlyLimit,
		DailyLimit:  cfg.Quota.DailyLimit,
	}, nil
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	s := cfg.Scheduler
	out := scheduler.Config{
		Timezone:       s.Timezone,
		ReportEnabled:  s.ReportEnabled,
		BackupEnabled:  s.BackupEnabled,
		BackupDir:      cfg.Backup.Dir,
		BackupMaxFiles: cfg.Backup.MaxFiles,
		ExtraPostSpecs: s.ExtraPostSpecs,
		BatchSize:      s.BatchSize,
		MaxAttempts:    s.MaxAttempts,
	}

	for i, raw := range s.PostTimes {
		c, err := config.ParseClock(raw)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.post_times[%d]: %w", i, err)
		}
		out.PostTimes = append(out.PostTimes, c)
	}
	if s.ReportEnabled {
		c, err := config.ParseClock(s.ReportTime)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.report_time: %w", err)
		}
		out.ReportTime = c
		out.ReportRecipients = cfg.Telegram.AdminIDs
	}
	if strings.TrimSpace(s.CleanupDay) != "" {
		day, err := config.ParseWeekday(s.CleanupDay)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.cleanup_day: %w", err)
		}
		at, err := config.ParseClock(s.CleanupTime)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.cleanup_time: %w", err)
		}
		out.CleanupEnabled = true
		out.CleanupDay = day
		out.CleanupTime = at
	}
	if s.BackupEnabled {
		at, err := config.ParseClock(s.BackupTime)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.backup_time: %w", err)
		}
		out.BackupTime = at
	}
	delay, err := config.ParseDurationField("scheduler.dispatch_delay", s.DispatchDelay)
	if err != nil {
		return scheduler.Config{}, err
	}
	out.DispatchDelay = delay
	if s.RetentionDays > 0 {
		out.Retention = time.Duration(s.RetentionDays) * 24 * time.Hour
	}
	return out, nil
}
