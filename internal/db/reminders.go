package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type ReminderConfig struct {
	Enabled         bool
	IntervalMinutes int
	NextDueAt       *time.Time
	LastSentAt      *time.Time
}

// ReminderDue is a group whose reminder should fire now.
type ReminderDue struct {
	GroupID         string
	ChannelID       string
	IntervalMinutes int
}

// UpsertReminder configures reminders for a group and optionally schedules the next due time.
func (db *DB) UpsertReminder(ctx context.Context, groupID string, enabled bool, intervalMinutes int, nextDueAt *time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO reminders (group_id, enabled, interval_minutes, next_due_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (group_id) DO UPDATE
		 SET enabled = EXCLUDED.enabled,
			 interval_minutes = EXCLUDED.interval_minutes,
			 next_due_at = COALESCE(EXCLUDED.next_due_at, reminders.next_due_at)`,
		groupID, enabled, intervalMinutes, nextDueAt,
	)
	return mapError(err)
}

// ReminderConfig returns nil when the group has never configured reminders.
func (db *DB) ReminderConfig(ctx context.Context, groupID string) (*ReminderConfig, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT enabled, interval_minutes, next_due_at, last_sent_at
		 FROM reminders
		 WHERE group_id = $1`,
		groupID,
	)
	var cfg ReminderConfig
	if err := row.Scan(&cfg.Enabled, &cfg.IntervalMinutes, &cfg.NextDueAt, &cfg.LastSentAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// DueReminders returns enabled reminders of channel-bound groups whose next
// due time has passed. Whether anything is still owed is decided by the caller.
func (db *DB) DueReminders(ctx context.Context, now time.Time) ([]ReminderDue, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT r.group_id, g.channel_id, r.interval_minutes
		 FROM reminders r
		 JOIN groups g ON g.id = r.group_id
		 WHERE r.enabled = TRUE
		   AND g.channel_id IS NOT NULL
		   AND (r.next_due_at IS NULL OR r.next_due_at <= $1)
		 ORDER BY r.group_id`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []ReminderDue
	for rows.Next() {
		var r ReminderDue
		if err := rows.Scan(&r.GroupID, &r.ChannelID, &r.IntervalMinutes); err != nil {
			return nil, err
		}
		targets = append(targets, r)
	}
	return targets, rows.Err()
}

// MarkReminderSent updates reminder schedule timestamps.
func (db *DB) MarkReminderSent(ctx context.Context, groupID string, sentAt time.Time, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE reminders
		 SET last_sent_at = $2, next_due_at = $3
		 WHERE group_id = $1`,
		groupID, sentAt, nextDue,
	)
	return err
}

// DelayReminder updates next_due_at without touching last_sent_at.
func (db *DB) DelayReminder(ctx context.Context, groupID string, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE reminders
		 SET next_due_at = $2
		 WHERE group_id = $1`,
		groupID, nextDue,
	)
	return err
}
