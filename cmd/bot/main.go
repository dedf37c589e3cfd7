package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"newsbot/internal/config"
	"newsbot/internal/scheduler"
	"newsbot/internal/storage"
	"newsbot/internal/telegram"
	"newsbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	// Console-only logger until the config says where logs should go.
	boot := logx.NewConsole("info")

	mgr := config.NewManager(cfgPath)
	mgr.SetLogger(boot.With().Str("comp", "config").Logger())
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer closeLog()
	mgr.SetLogger(log.With().Str("comp", "config").Logger())

	storeCfg, err := storageConfig(cfg)
	if err != nil {
		return err
	}
	store, err := storage.Open(storeCfg, log.With().Str("comp", "storage").Logger())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	tgCfg, err := telegramConfig(cfg)
	if err != nil {
		return err
	}
	adapter, err := telegram.New(tgCfg, store, log.With().Str("comp", "telegram").Logger())
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		return err
	}
	sched := scheduler.New(schedCfg, store, adapter, log.With().Str("comp", "scheduler").Logger())

	adapter.Start()
	defer adapter.Stop()
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Hot reload: republished configs re-tune the scheduler triggers and the
	// adapter's quota limits without a restart.
	updates := mgr.Subscribe(1)
	go func() {
		for next := range updates {
			if sc, err := schedulerConfig(next); err == nil {
				sched.Apply(sc)
			} else {
				log.Warn().Err(err).Msg("reload: scheduler config rejected")
			}
			if tc, err := telegramConfig(next); err == nil {
				adapter.Apply(tc)
			} else {
				log.Warn().Err(err).Msg("reload: telegram config rejected")
			}
		}
	}()
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("config watch stopped")
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	log.Info().Str("config", cfgPath).Msg("newsbot started")

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info().Msg("newsbot stopping")
	return nil
}
