package bot

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/commands"
	"github.com/susu3304/billdividr/internal/group"
)

// reminderWorker periodically posts unsettled payment reminders to channels.
type reminderWorker struct {
	store    ReminderStore
	groups   *group.Service
	session  reminderSession
	log      *zap.Logger
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
	now      func() time.Time
	pause    func(time.Duration)
}

// Minimal session interface for sending channel messages.
type reminderSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newReminderWorker(session reminderSession, store ReminderStore, svc *group.Service, logger *zap.Logger) *reminderWorker {
	return &reminderWorker{
		store:    store,
		groups:   svc,
		session:  session,
		log:      logger,
		stopChan: make(chan struct{}),
		interval: time.Minute,
		now:      time.Now,
		pause:    time.Sleep,
	}
}

func (w *reminderWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *reminderWorker) stop() {
	if w == nil || w.ticker == nil {
		return
	}
	close(w.stopChan)
	w.ticker.Stop()
}

func (w *reminderWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *reminderWorker) tick(ctx context.Context) {
	now := w.now()
	targets, err := w.store.DueReminders(ctx, now)
	if err != nil {
		w.log.Error("failed to load due reminders", zap.Error(err))
		return
	}

	for _, t := range targets {
		interval := time.Duration(t.IntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = commands.DefaultReminderMinutes * time.Minute
		}
		log := w.log.With(zap.String("group_id", t.GroupID), zap.String("channel_id", t.ChannelID))

		g, err := w.groups.Group(ctx, t.GroupID)
		if err != nil {
			log.Warn("failed to load group", zap.Error(err))
			continue
		}
		sum, err := w.groups.Summary(ctx, t.GroupID)
		if err != nil {
			log.Warn("failed to build summary", zap.Error(err))
			continue
		}
		if len(sum.Pending) == 0 {
			if err := w.store.DelayReminder(ctx, t.GroupID, now.Add(interval)); err != nil {
				log.Warn("failed to reschedule reminder", zap.Error(err))
			}
			continue
		}

		if err := w.sendWithRetry(ctx, t.ChannelID, commands.RenderReminder(g, sum.Pending)); err != nil {
			log.Warn("failed to send reminder", zap.Error(err))
			// Back off so we don't hammer Discord every minute.
			backoff := 2 * time.Minute
			if backoff > interval {
				backoff = interval
			}
			if derr := w.store.DelayReminder(ctx, t.GroupID, now.Add(backoff)); derr != nil {
				log.Warn("failed to delay reminder", zap.Error(derr))
			}
			continue
		}
		if err := w.store.MarkReminderSent(ctx, t.GroupID, now, now.Add(interval)); err != nil {
			log.Warn("failed to mark reminder sent", zap.Error(err))
		}
	}
}

func (w *reminderWorker) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		w.pause(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
