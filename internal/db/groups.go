package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/susu3304/billdividr/internal/group"
)

const groupColumns = `id, name, description, owner_id, COALESCE(channel_id, ''), created_at`

func scanGroup(row pgx.Row) (*group.Group, error) {
	var g group.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.ChannelID, &g.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &g, nil
}

func (db *DB) CreateGroup(ctx context.Context, g *group.Group) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO groups (id, name, description, owner_id, channel_id, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		g.ID, g.Name, g.Description, g.OwnerID, g.ChannelID, g.CreatedAt,
	)
	return mapError(err)
}

func (db *DB) GetGroup(ctx context.Context, id string) (*group.Group, error) {
	return scanGroup(db.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
}

// GroupByChannel returns the group bound to a Discord channel.
func (db *DB) GroupByChannel(ctx context.Context, channelID string) (*group.Group, error) {
	return scanGroup(db.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE channel_id = $1`, channelID))
}

// ListGroups returns the groups of ownerID, newest first. An empty ownerID
// lists every group.
func (db *DB) ListGroups(ctx context.Context, ownerID string) ([]group.Group, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+groupColumns+` FROM groups
		 WHERE ($1 = '' OR owner_id = $1)
		 ORDER BY created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (db *DB) UpdateGroup(ctx context.Context, g *group.Group) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE groups SET name = $2, description = $3 WHERE id = $1`,
		g.ID, g.Name, g.Description,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return group.ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group. Members, expenses, settlements and reminders
// go with it through ON DELETE CASCADE.
func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (db *DB) AddMember(ctx context.Context, m *group.Member) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO members (id, group_id, name, discord_user_id, is_active, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		m.ID, m.GroupID, m.Name, m.DiscordUserID, m.Active, m.CreatedAt,
	)
	return mapError(err)
}

// Members returns every member of a group, archived ones included.
func (db *DB) Members(ctx context.Context, groupID string) ([]group.Member, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, group_id, name, COALESCE(discord_user_id, ''), is_active, created_at
		 FROM members WHERE group_id = $1 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Member
	for rows.Next() {
		var m group.Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Name, &m.DiscordUserID, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) SetMemberActive(ctx context.Context, groupID, memberID string, active bool) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE members SET is_active = $3 WHERE group_id = $1 AND id = $2`,
		groupID, memberID, active,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return group.ErrNotFound
	}
	return nil
}
