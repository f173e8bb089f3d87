package repo

import (
	"context"
	"database/sql"

	"scriptorium/internal/domain"
)

const historyColumns = `seq,id,task_id,action,actor_id,actor_name,ts,previous_status,new_status,comment`

func scanHistory(rows *sql.Rows) (domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var action, newStatus string
	var prev, comment sql.NullString
	err := rows.Scan(&e.Seq, &e.ID, &e.TaskID, &action, &e.ActorID, &e.ActorName, &e.Timestamp, &prev, &newStatus, &comment)
	if err != nil {
		return e, err
	}
	e.Action = domain.Action(action)
	e.NewStatus = domain.Status(newStatus)
	if prev.Valid {
		s := domain.Status(prev.String)
		e.PreviousStatus = &s
	}
	if comment.Valid {
		e.Comment = comment.String
	}
	return e, nil
}

// ListTaskHistory returns a task's ledger in insertion order.
func (r Repo) ListTaskHistory(ctx context.Context, taskID string) ([]domain.HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM task_history WHERE task_id=? ORDER BY seq ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// CountTaskHistory returns the ledger length for a task.
func (r Repo) CountTaskHistory(ctx context.Context, taskID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM task_history WHERE task_id=?`, taskID).Scan(&n)
	return n, err
}

// HistoryAfter returns ledger entries with seq greater than the cursor in
// ascending order, across all tasks. Used by the webhook dispatcher.
func (r Repo) HistoryAfter(ctx context.Context, limit int, cursor int64) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM task_history WHERE seq>? ORDER BY seq ASC LIMIT ?`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestHistorySeq returns the most recent ledger sequence number.
func (r Repo) LatestHistorySeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq),0) FROM task_history`).Scan(&seq)
	return seq, err
}

// LatestHistory returns the most recent entries, optionally for one task,
// newest first.
func (r Repo) LatestHistory(ctx context.Context, limit int, taskID string) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + historyColumns + ` FROM task_history`
	var args []any
	if taskID != "" {
		query += ` WHERE task_id=?`
		args = append(args, taskID)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
