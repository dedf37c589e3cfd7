package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"newsbot/internal/storage"
)

type Config struct {
	Token string
	// Channel is the broadcast destination: "@username" or a numeric chat id.
	Channel     string
	AdminIDs    []int64
	PollTimeout time.Duration

	HourlyLimit int
	DailyLimit  int
}

// Adapter owns the telebot session. It is the scheduler's Dispatcher and
// the inbound command surface for admins.
type Adapter struct {
	mu  sync.Mutex
	cfg Config

	log   zerolog.Logger
	bot   *tele.Bot
	store *storage.Store

	runMu   sync.Mutex
	running bool
}

// channel satisfies tele.Recipient for "@username" or numeric-id strings.
type channel string

func (c channel) Recipient() string { return string(c) }

func New(cfg Config, store *storage.Store, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, errors.New("telegram channel is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	a := &Adapter{cfg: cfg, log: log, bot: b, store: store}
	a.registerCommands()
	return a, nil
}

// Apply swaps the runtime-tunable knobs (quota limits, channel target).
// Token and poll settings require a restart.
func (a *Adapter) Apply(cfg Config) {
	a.mu.Lock()
	a.cfg.Channel = cfg.Channel
	a.cfg.AdminIDs = cfg.AdminIDs
	a.cfg.HourlyLimit = cfg.HourlyLimit
	a.cfg.DailyLimit = cfg.DailyLimit
	a.mu.Unlock()
}

// Start launches the long-poll loop in the background.
func (a *Adapter) Start() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return
	}
	a.running = true
	go a.bot.Start()
	a.log.Info().Msg("telegram poller started")
}

func (a *Adapter) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.bot.Stop()
	a.log.Info().Msg("telegram poller stopped")
}

// Post publishes payload to the broadcast channel and returns the resulting
// message id as the external reference.
func (a *Adapter) Post(ctx context.Context, payload string) (string, error) {
	a.mu.Lock()
	target := channel(a.cfg.Channel)
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg, err := a.bot.Send(target, payload)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(msg.ID), nil
}

// SendReport delivers text to one recipient chat.
func (a *Adapter) SendReport(ctx context.Context, recipientID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(tele.ChatID(recipientID), text)
	return err
}

func (a *Adapter) isAdmin(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, admin := range a.cfg.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func (a *Adapter) limits() (hourly, daily int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hourly, daily = a.cfg.HourlyLimit, a.cfg.DailyLimit
	if hourly <= 0 {
		hourly = 10
	}
	if daily <= 0 {
		daily = 50
	}
	return hourly, daily
}
