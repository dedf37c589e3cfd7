package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"newsbot/internal/config"
	"newsbot/internal/storage"
)

// Dispatcher publishes content to the broadcast destination. It is supplied
// by the transport layer; the scheduler only consumes this narrow surface.
type Dispatcher interface {
	Post(ctx context.Context, payload string) (externalRef string, err error)
	SendReport(ctx context.Context, recipientID int64, text string) error
}

type Config struct {
	Timezone string

	PostTimes []config.Clock

	ReportEnabled    bool
	ReportTime       config.Clock
	ReportRecipients []int64

	CleanupEnabled bool
	CleanupDay     time.Weekday
	CleanupTime    config.Clock

	BackupEnabled  bool
	BackupTime     config.Clock
	BackupDir      string
	BackupMaxFiles int

	// ExtraPostSpecs are standard cron specs that also fire the auto-post
	// handler (operator escape hatch for extra drain passes).
	ExtraPostSpecs []string

	BatchSize     int
	DispatchDelay time.Duration
	MaxAttempts   int

	Retention time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.DispatchDelay <= 0 {
		c.DispatchDelay = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.BackupMaxFiles <= 0 {
		c.BackupMaxFiles = 7
	}
	return c
}

// Service drives all time-based work: one cooperative tick loop evaluates
// the registered triggers and spawns due handlers concurrently, so a slow
// handler never delays the next tick.
type Service struct {
	mu sync.Mutex

	log        zerolog.Logger
	cfg        Config
	loc        *time.Location
	store      *storage.Store
	dispatcher Dispatcher

	triggers []*trigger
	stopCh   chan struct{}
	loopWG   sync.WaitGroup

	// now and tickEvery are swappable for tests.
	now       func() time.Time
	tickEvery time.Duration
}

func New(cfg Config, store *storage.Store, dispatcher Dispatcher, log zerolog.Logger) *Service {
	return &Service{
		log:        log,
		cfg:        cfg.withDefaults(),
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
		tickEvery:  time.Second,
	}
}

// Start registers triggers from config and launches the tick loop. It is a
// no-op if the service is already running.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})

	s.loc = s.loadLocationLocked()
	s.rebuildTriggersLocked()

	stopCh := s.stopCh
	s.loopWG.Add(1)
	go s.loop(ctx, stopCh)

	s.log.Info().Int("triggers", len(s.triggers)).Str("tz", s.loc.String()).Msg("scheduler started")
}

// Stop signals the tick loop to exit after its current tick and waits for
// it. In-flight handlers are not cancelled; they run to completion, but no
// new ticks are evaluated afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	s.mu.Unlock()

	s.loopWG.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Apply swaps config at runtime and rebuilds the trigger set. Safe to call
// whether or not the loop is running.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.withDefaults()
	s.loc = s.loadLocationLocked()
	if s.stopCh != nil {
		s.rebuildTriggersLocked()
		s.log.Info().Int("triggers", len(s.triggers)).Msg("scheduler config applied")
	}
}

// Triggers reports the registered triggers with their firing bookkeeping.
func (s *Service) Triggers() []TriggerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TriggerStatus, 0, len(s.triggers))
	for _, tr := range s.triggers {
		out = append(out, TriggerStatus{Name: tr.name, Next: tr.next, LastFired: tr.lastFired})
	}
	return out
}

func (s *Service) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer s.loopWG.Done()
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.evalTriggers(ctx)
		}
	}
}

// evalTriggers is one tick: every due trigger advances its occurrence marker
// and hands its handler off to a fresh goroutine.
func (s *Service) evalTriggers(ctx context.Context) {
	s.mu.Lock()
	now := s.now().In(s.loc)
	var due []*trigger
	for _, tr := range s.triggers {
		if tr.next.IsZero() || now.Before(tr.next) {
			continue
		}
		tr.lastFired = tr.next
		tr.next = tr.sched.Next(now)
		due = append(due, tr)
	}
	s.mu.Unlock()

	for _, tr := range due {
		go s.runHandler(ctx, tr.name, tr.run)
	}
}

// runHandler is the failure-isolation boundary: errors and panics inside a
// handler are logged here and never reach the tick loop or other handlers.
func (s *Service) runHandler(ctx context.Context, name string, run Handler) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("trigger", name).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
		}
	}()

	start := s.now()
	s.log.Debug().Str("trigger", name).Msg("trigger fired")
	if err := run(ctx); err != nil {
		s.log.Warn().Str("trigger", name).Err(err).Dur("dur", s.now().Sub(start)).Msg("handler failed")
		return
	}
	s.log.Info().Str("trigger", name).Dur("dur", s.now().Sub(start)).Msg("handler completed")
}

// rebuildTriggersLocked recreates triggers from config. Occurrence markers
// seed from the current time, so occurrences already in the past never
// replay after a restart or reload.
func (s *Service) rebuildTriggersLocked() {
	now := s.now().In(s.loc)
	var trs []*trigger

	add := func(name string, sched cron.Schedule, run Handler) {
		trs = append(trs, &trigger{name: name, sched: sched, run: run, next: sched.Next(now)})
	}

	for _, at := range s.cfg.PostTimes {
		add("auto-post "+at.String(), dailySchedule{at: at, loc: s.loc}, s.autoPost)
	}
	for _, spec := range s.cfg.ExtraPostSpecs {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			// Validated at config load; a failure here means the config
			// bypassed validation, so log and keep the rest of the set.
			s.log.Warn().Str("spec", spec).Err(err).Msg("invalid cron spec skipped")
			continue
		}
		add("auto-post cron "+spec, sched, s.autoPost)
	}
	if s.cfg.ReportEnabled && len(s.cfg.ReportRecipients) > 0 {
		add("daily-report", dailySchedule{at: s.cfg.ReportTime, loc: s.loc}, s.report)
	}
	if s.cfg.CleanupEnabled {
		add("weekly-cleanup", weeklySchedule{day: s.cfg.CleanupDay, at: s.cfg.CleanupTime, loc: s.loc}, s.cleanup)
	}
	if s.cfg.BackupEnabled {
		add("daily-backup", dailySchedule{at: s.cfg.BackupTime, loc: s.loc}, s.backup)
	}

	s.triggers = trs
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn().Str("tz", tz).Err(err).Msg("invalid timezone, falling back to Local")
		return time.Local
	}
	return loc
}
