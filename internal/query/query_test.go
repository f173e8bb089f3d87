package query_test

import (
	"context"
	"testing"

	"scriptorium/internal/db"
	"scriptorium/internal/domain"
	"scriptorium/internal/engine"
	"scriptorium/internal/migrate"
	"scriptorium/internal/query"
	"scriptorium/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Query  query.Service
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn)
	ctx := context.Background()
	r := repo.Repo{DB: conn}
	for _, u := range []domain.User{
		{ID: "adm", Name: "Ada", Email: "ada@test", Role: domain.RoleAdmin},
		{ID: "ann1", Name: "Bram", Email: "bram@test", Role: domain.RoleAnnotator},
		{ID: "ann2", Name: "Chiara", Email: "chiara@test", Role: domain.RoleAnnotator},
		{ID: "rev1", Name: "Daniel", Email: "daniel@test", Role: domain.RoleReviewer},
		{ID: "rev2", Name: "Elif", Email: "elif@test", Role: domain.RoleReviewer},
		{ID: "fin1", Name: "Greta", Email: "greta@test", Role: domain.RoleFinalReviewer},
	} {
		u.CreatedAt = "2024-01-01T00:00:00Z"
		if err := r.InsertUser(ctx, u); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	return testEnv{Engine: eng, Query: query.New(conn), Ctx: ctx}
}

// seedPipeline creates one task in each of: pending, in_progress,
// awaiting_review, in_review, rejected, completed.
func (env testEnv) seedPipeline(t *testing.T) {
	t.Helper()
	create := func() domain.Task {
		task, err := env.Engine.Create(env.Ctx, "https://img.test/p.png", "smudged text", "adm")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return task
	}
	mustDo := func(f func() (domain.Task, error)) domain.Task {
		task, err := f()
		if err != nil {
			t.Fatalf("seed step: %v", err)
		}
		return task
	}

	create() // pending

	inProgress := create()
	mustDo(func() (domain.Task, error) { return env.Engine.Assign(env.Ctx, inProgress.ID, "ann1", "adm") })

	awaiting := create()
	mustDo(func() (domain.Task, error) { return env.Engine.Assign(env.Ctx, awaiting.ID, "ann1", "adm") })
	mustDo(func() (domain.Task, error) { return env.Engine.Submit(env.Ctx, awaiting.ID, "fixed", "ann1") })

	inReview := create()
	mustDo(func() (domain.Task, error) { return env.Engine.Assign(env.Ctx, inReview.ID, "ann2", "adm") })
	mustDo(func() (domain.Task, error) { return env.Engine.Submit(env.Ctx, inReview.ID, "fixed", "ann2") })
	mustDo(func() (domain.Task, error) { return env.Engine.ClaimForReview(env.Ctx, inReview.ID, "rev1") })

	rejected := create()
	mustDo(func() (domain.Task, error) { return env.Engine.Assign(env.Ctx, rejected.ID, "ann1", "adm") })
	mustDo(func() (domain.Task, error) { return env.Engine.Submit(env.Ctx, rejected.ID, "fixed", "ann1") })
	mustDo(func() (domain.Task, error) { return env.Engine.ClaimForReview(env.Ctx, rejected.ID, "rev1") })
	mustDo(func() (domain.Task, error) { return env.Engine.Reject(env.Ctx, rejected.ID, "rev1", "redo") })

	completed := create()
	mustDo(func() (domain.Task, error) { return env.Engine.Assign(env.Ctx, completed.ID, "ann2", "adm") })
	mustDo(func() (domain.Task, error) { return env.Engine.Submit(env.Ctx, completed.ID, "fixed", "ann2") })
	mustDo(func() (domain.Task, error) { return env.Engine.ClaimForReview(env.Ctx, completed.ID, "rev2") })
	mustDo(func() (domain.Task, error) { return env.Engine.Approve(env.Ctx, completed.ID, "rev2", "") })
	mustDo(func() (domain.Task, error) { return env.Engine.ClaimForFinalReview(env.Ctx, completed.ID, "fin1") })
	mustDo(func() (domain.Task, error) { return env.Engine.FinalApprove(env.Ctx, completed.ID, "fin1", "") })
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedPipeline(t)

	stats, err := env.Query.DashboardStats(env.Ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := query.Stats{Total: 6, Pending: 1, InProgress: 1, InReview: 2, Rejected: 1, Completed: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	// reads must not change the answer
	again, err := env.Query.DashboardStats(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again != stats {
		t.Fatalf("stats changed between reads: %+v then %+v", stats, again)
	}
}

func TestAnnotatorStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedPipeline(t)

	stats, err := env.Query.AnnotatorStats(env.Ctx, "ann1")
	if err != nil {
		t.Fatal(err)
	}
	// ann1 holds the in_progress, awaiting_review and rejected tasks
	want := query.Stats{Total: 3, InProgress: 1, InReview: 1, Rejected: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestReviewQueueVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.seedPipeline(t)

	// rev1 sees the shared awaiting pool plus their claimed review
	forRev1, err := env.Query.ReviewQueue(env.Ctx, "rev1")
	if err != nil {
		t.Fatal(err)
	}
	if len(forRev1) != 2 {
		t.Fatalf("rev1 queue = %d tasks, want 2", len(forRev1))
	}

	// rev2 sees only the shared pool; rev1's claim is hidden
	forRev2, err := env.Query.ReviewQueue(env.Ctx, "rev2")
	if err != nil {
		t.Fatal(err)
	}
	if len(forRev2) != 1 {
		t.Fatalf("rev2 queue = %d tasks, want 1", len(forRev2))
	}
	if forRev2[0].Status != domain.StatusAwaitingReview {
		t.Fatalf("rev2 queue status = %s", forRev2[0].Status)
	}
}

func TestAnnotatorQueue(t *testing.T) {
	env := newTestEnv(t)
	env.seedPipeline(t)

	tasks, err := env.Query.AnnotatorQueue(env.Ctx, "ann1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("ann1 queue = %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.AssignedTo == nil || *task.AssignedTo != "ann1" {
			t.Fatalf("queue leaked foreign task: %+v", task)
		}
	}
}

func TestSearchFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seedPipeline(t)

	rejected, err := env.Query.Search(env.Ctx, repo.TaskFilters{Statuses: []domain.Status{domain.StatusRejected}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 || rejected[0].Status != domain.StatusRejected {
		t.Fatalf("rejected filter: %+v", rejected)
	}

	matched, err := env.Query.Search(env.Ctx, repo.TaskFilters{Search: "smudged"})
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 6 {
		t.Fatalf("search matched %d tasks, want 6", len(matched))
	}

	none, err := env.Query.Search(env.Ctx, repo.TaskFilters{Search: "no-such-text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("search matched %d tasks, want 0", len(none))
	}
}
