package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/commands"
	"github.com/susu3304/billdividr/internal/db"
	"github.com/susu3304/billdividr/internal/group"
)

// ReminderStore persists reminder schedules.
type ReminderStore interface {
	commands.ReminderStore
	DueReminders(ctx context.Context, now time.Time) ([]db.ReminderDue, error)
	MarkReminderSent(ctx context.Context, groupID string, sentAt time.Time, nextDue time.Time) error
	DelayReminder(ctx context.Context, groupID string, nextDue time.Time) error
}

type Bot struct {
	session   *discordgo.Session
	split     *commands.Split
	reminders *reminderWorker
	log       *zap.Logger
}

func New(token string, svc *group.Service, store ReminderStore, webBaseURL string, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:   session,
		split:     commands.NewSplit(svc, store, webBaseURL, logger.Named("split")),
		reminders: newReminderWorker(session, store, svc, logger.Named("reminder")),
		log:       logger,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.reminders.start()
	b.log.Info("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.reminders.stop()
	return b.session.Close()
}
