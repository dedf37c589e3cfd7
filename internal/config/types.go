package config

// Config is the on-disk configuration (YAML or JSON).
//
// All durations are Go duration strings (e.g. "500ms", "5s", "1m").
// Times of day are "HH:MM" in the scheduler timezone.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Quota     QuotaConfig     `json:"quota"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Backup    BackupConfig    `json:"backup"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// Channel is the broadcast destination ("@username" or a numeric chat id).
	Channel  string  `json:"channel"`
	AdminIDs []int64 `json:"admin_ids"`
	// PollTimeout is a Go duration string for the long-poll cycle.
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// QuotaConfig bounds per-actor request volume over two rolling windows.
// Zero values fall back to defaults (10/hour, 50/day).
type QuotaConfig struct {
	HourlyLimit int `json:"hourly_limit,omitempty"`
	DailyLimit  int `json:"daily_limit,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout maps to the sqlite busy_timeout pragma.
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// OpTimeout bounds every individual storage call; a deadline hit is
	// reported as an unavailable store, never as a hang.
	OpTimeout string `json:"op_timeout,omitempty"`
}

// SchedulerConfig controls the trigger set of the tick loop.
//
// PostTimes, ReportTime, CleanupTime and BackupTime are "HH:MM" strings.
// CleanupDay is an English weekday name ("monday", "Tue", ...).
type SchedulerConfig struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone,omitempty"`

	PostTimes []string `json:"post_times"`

	ReportEnabled bool   `json:"report_enabled"`
	ReportTime    string `json:"report_time,omitempty"`

	CleanupDay  string `json:"cleanup_day,omitempty"`
	CleanupTime string `json:"cleanup_time,omitempty"`

	BackupEnabled bool   `json:"backup_enabled"`
	BackupTime    string `json:"backup_time,omitempty"`

	// Extra cron-spec triggers for operators (standard 5-field specs).
	// Each fires the auto-post handler, e.g. to drain the queue off-hours.
	ExtraPostSpecs []string `json:"extra_post_specs,omitempty"`

	// BatchSize caps how many due jobs one auto-post firing will dispatch.
	BatchSize int `json:"batch_size,omitempty"`
	// DispatchDelay spaces consecutive channel posts within one firing.
	DispatchDelay string `json:"dispatch_delay,omitempty"`
	// MaxAttempts is the dispatch retry cap before a job goes Failed.
	MaxAttempts int `json:"max_attempts,omitempty"`

	RetentionDays int `json:"retention_days,omitempty"`
}

type BackupConfig struct {
	Dir      string `json:"dir,omitempty"`
	MaxFiles int    `json:"max_files,omitempty"`
}
