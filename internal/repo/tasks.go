package repo

import (
	"context"
	"database/sql"
	"strings"

	"scriptorium/internal/domain"
)

const taskColumns = `id,image_url,noisy_text,corrected_text,status,assigned_to,assigned_to_name,reviewer_id,reviewer_name,final_reviewer_id,final_reviewer_name,created_at,updated_at`

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(row taskScanner) (domain.Task, error) {
	var t domain.Task
	var status string
	var assignedTo, assignedToName, reviewerID, reviewerName, finalReviewerID, finalReviewerName sql.NullString
	err := row.Scan(&t.ID, &t.ImageURL, &t.NoisyText, &t.CorrectedText, &status,
		&assignedTo, &assignedToName, &reviewerID, &reviewerName, &finalReviewerID, &finalReviewerName,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Status = domain.Status(status)
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
	}
	if assignedToName.Valid {
		t.AssignedToName = &assignedToName.String
	}
	if reviewerID.Valid {
		t.ReviewerID = &reviewerID.String
	}
	if reviewerName.Valid {
		t.ReviewerName = &reviewerName.String
	}
	if finalReviewerID.Valid {
		t.FinalReviewerID = &finalReviewerID.String
	}
	if finalReviewerName.Valid {
		t.FinalReviewerName = &finalReviewerName.String
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ImageURL, t.NoisyText, t.CorrectedText, string(t.Status),
		nullableStringPtr(t.AssignedTo), nullableStringPtr(t.AssignedToName),
		nullableStringPtr(t.ReviewerID), nullableStringPtr(t.ReviewerName),
		nullableStringPtr(t.FinalReviewerID), nullableStringPtr(t.FinalReviewerName),
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	return scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

// UpdateTaskGuarded writes the full task row but only if the stored status
// still equals expected. This is the compare-and-swap that serializes claim
// races: the loser matches zero rows and gets ErrStaleStatus.
func (r Repo) UpdateTaskGuarded(ctx context.Context, tx *sql.Tx, t domain.Task, expected domain.Status) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET corrected_text=?, status=?, assigned_to=?, assigned_to_name=?, reviewer_id=?, reviewer_name=?, final_reviewer_id=?, final_reviewer_name=?, updated_at=? WHERE id=? AND status=?`,
		t.CorrectedText, string(t.Status),
		nullableStringPtr(t.AssignedTo), nullableStringPtr(t.AssignedToName),
		nullableStringPtr(t.ReviewerID), nullableStringPtr(t.ReviewerName),
		nullableStringPtr(t.FinalReviewerID), nullableStringPtr(t.FinalReviewerName),
		t.UpdatedAt, t.ID, string(expected))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// TaskFilters narrows ListTasks. Zero values mean "no filter".
type TaskFilters struct {
	Statuses        []domain.Status
	AssignedTo      string
	ReviewerID      string
	FinalReviewerID string
	Search          string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to=?")
		args = append(args, f.AssignedTo)
	}
	if f.ReviewerID != "" {
		clauses = append(clauses, "reviewer_id=?")
		args = append(args, f.ReviewerID)
	}
	if f.FinalReviewerID != "" {
		clauses = append(clauses, "final_reviewer_id=?")
		args = append(args, f.FinalReviewerID)
	}
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		clauses = append(clauses, "(LOWER(noisy_text) LIKE ? OR LOWER(corrected_text) LIKE ? OR LOWER(id) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY updated_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// ListClaimable returns the shared queue for a review stage plus the tasks
// already claimed by the given actor in the matching in-review stage.
func (r Repo) ListClaimable(ctx context.Context, queueStatus, claimedStatus domain.Status, ownerColumn, actorID string) ([]domain.Task, error) {
	// ownerColumn is one of the fixed reviewer columns, never user input.
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status=? OR (status=? AND ` + ownerColumn + `=?) ORDER BY updated_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, string(queueStatus), string(claimedStatus), actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) CountTasksByStatus(ctx context.Context) (map[domain.Status]int, error) {
	return r.countByStatus(ctx, `SELECT status, count(*) FROM tasks GROUP BY status`)
}

// CountTasksByStatusFor buckets only the tasks assigned to one annotator.
func (r Repo) CountTasksByStatusFor(ctx context.Context, assignedTo string) (map[domain.Status]int, error) {
	return r.countByStatus(ctx, `SELECT status, count(*) FROM tasks WHERE assigned_to=? GROUP BY status`, assignedTo)
}

func (r Repo) countByStatus(ctx context.Context, query string, args ...any) (map[domain.Status]int, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[domain.Status]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[domain.Status(status)] = count
	}
	return res, rows.Err()
}
