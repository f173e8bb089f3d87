package repo

import (
	"context"
	"database/sql"

	"scriptorium/internal/domain"
)

func (r Repo) InsertGroup(ctx context.Context, g domain.Group) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO groups(id,name,created_at) VALUES (?,?,?)`,
		g.ID, g.Name, g.CreatedAt)
	return err
}

func (r Repo) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	var g domain.Group
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM groups WHERE id=?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	return g, err
}

func (r Repo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM groups ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

// ListGroupUsers returns the members of a group.
func (r Repo) ListGroupUsers(ctx context.Context, groupID string) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,email,role,group_id,created_at FROM users WHERE group_id=? ORDER BY id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		var role string
		var gid sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &gid, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		if gid.Valid {
			u.GroupID = &gid.String
		}
		res = append(res, u)
	}
	return res, rows.Err()
}
