package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"scriptorium/internal/domain"
)

// Repo is the SQLite-backed entity store for users, groups, tasks and the
// task history ledger.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ErrStaleStatus is returned by guarded updates when the task's status no
// longer matches the expected value, i.e. another writer got there first.
var ErrStaleStatus = errors.New("task status changed")

func (r Repo) InsertUser(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id,name,email,role,group_id,created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, string(u.Role), nullableStringPtr(u.GroupID), u.CreatedAt)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	var groupID sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &groupID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Role = domain.Role(role)
	if groupID.Valid {
		u.GroupID = &groupID.String
	}
	return u, nil
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,name,email,role,group_id,created_at FROM users WHERE id=?`, id))
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,name,email,role,group_id,created_at FROM users WHERE email=?`, strings.TrimSpace(email)))
}

// ListUsers returns all users, optionally restricted to one role.
func (r Repo) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := `SELECT id,name,email,role,group_id,created_at FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role=?`
		args = append(args, string(role))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		var roleStr string
		var groupID sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &roleStr, &groupID, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = domain.Role(roleStr)
		if groupID.Valid {
			u.GroupID = &groupID.String
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r Repo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET name=?, email=?, role=?, group_id=? WHERE id=?`,
		u.Name, u.Email, string(u.Role), nullableStringPtr(u.GroupID), u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteUser(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
