package db

import (
	"context"

	"github.com/susu3304/billdividr/internal/group"
)

func (db *DB) AddExpense(ctx context.Context, e *group.Expense) error {
	involved := e.InvolvedMemberIDs
	if involved == nil {
		involved = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, payer_id, involved_member_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.GroupID, e.Description, e.Amount, e.PayerID, involved, e.CreatedAt, e.UpdatedAt,
	)
	return mapError(err)
}

// UpdateExpense replaces the editable fields and fills e.CreatedAt from the
// stored row.
func (db *DB) UpdateExpense(ctx context.Context, e *group.Expense) error {
	involved := e.InvolvedMemberIDs
	if involved == nil {
		involved = []string{}
	}
	err := db.pool.QueryRow(ctx,
		`UPDATE expenses
		 SET description = $3, amount = $4, payer_id = $5, involved_member_ids = $6, updated_at = $7
		 WHERE group_id = $1 AND id = $2
		 RETURNING created_at`,
		e.GroupID, e.ID, e.Description, e.Amount, e.PayerID, involved, e.UpdatedAt,
	).Scan(&e.CreatedAt)
	return mapError(err)
}

// UpdateExpenses rewrites several expenses in one transaction.
func (db *DB) UpdateExpenses(ctx context.Context, es []group.Expense) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range es {
		ct, err := tx.Exec(ctx,
			`UPDATE expenses
			 SET description = $3, amount = $4, payer_id = $5, involved_member_ids = $6, updated_at = $7
			 WHERE group_id = $1 AND id = $2`,
			e.GroupID, e.ID, e.Description, e.Amount, e.PayerID, e.InvolvedMemberIDs, e.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return group.ErrNotFound
		}
	}
	return tx.Commit(ctx)
}

func (db *DB) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM expenses WHERE group_id = $1 AND id = $2`, groupID, expenseID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (db *DB) Expenses(ctx context.Context, groupID string) ([]group.Expense, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, group_id, description, amount, payer_id, involved_member_ids, created_at, updated_at
		 FROM expenses WHERE group_id = $1 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Expense
	for rows.Next() {
		var e group.Expense
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PayerID, &e.InvolvedMemberIDs, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) AddSettlement(ctx context.Context, s *group.Settlement) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO settlements (id, group_id, amount, payer_id, receiver_id, recorded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.GroupID, s.Amount, s.PayerID, s.ReceiverID, s.RecordedBy, s.CreatedAt,
	)
	return mapError(err)
}

func (db *DB) Settlements(ctx context.Context, groupID string) ([]group.Settlement, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, group_id, amount, payer_id, receiver_id, recorded_by, created_at
		 FROM settlements WHERE group_id = $1 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []group.Settlement
	for rows.Next() {
		var s group.Settlement
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Amount, &s.PayerID, &s.ReceiverID, &s.RecordedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
