package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scriptorium/internal/config"
	"scriptorium/internal/db"
	"scriptorium/internal/domain"
	"scriptorium/internal/migrate"
	"scriptorium/internal/repo"
)

// Open opens the workspace database and brings the schema up to date.
func Open(workspace string) (*sql.DB, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

// Seed inserts the configured groups and users that are not already present
// and reports how many rows were created. Existing rows are left untouched,
// so seeding is safe to repeat.
func Seed(ctx context.Context, conn *sql.DB, cfg *config.Config) (int, error) {
	r := repo.Repo{DB: conn}
	now := time.Now().UTC().Format(time.RFC3339)
	created := 0

	for _, g := range cfg.Seed.Groups {
		_, err := r.GetGroup(ctx, g.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return created, err
		}
		if err := r.InsertGroup(ctx, domain.Group{ID: g.ID, Name: g.Name, CreatedAt: now}); err != nil {
			return created, fmt.Errorf("seed group %s: %w", g.ID, err)
		}
		created++
	}

	for _, u := range cfg.Seed.Users {
		_, err := r.GetUser(ctx, u.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return created, err
		}
		user := domain.User{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      domain.Role(u.Role),
			CreatedAt: now,
		}
		if u.Group != "" {
			g := u.Group
			user.GroupID = &g
		}
		if err := r.InsertUser(ctx, user); err != nil {
			return created, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		created++
	}
	return created, nil
}
