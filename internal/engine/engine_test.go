package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scriptorium/internal/db"
	"scriptorium/internal/domain"
	"scriptorium/internal/engine"
	"scriptorium/internal/migrate"
	"scriptorium/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Repo   repo.Repo
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
	now := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	eng.Now = now
	eng.Ledger.Now = now

	ctx := context.Background()
	env := testEnv{Engine: eng, Repo: eng.Repo, Ctx: ctx}
	for _, u := range []domain.User{
		{ID: "adm", Name: "Ada", Email: "ada@test", Role: domain.RoleAdmin},
		{ID: "ann1", Name: "Bram", Email: "bram@test", Role: domain.RoleAnnotator},
		{ID: "ann2", Name: "Chiara", Email: "chiara@test", Role: domain.RoleAnnotator},
		{ID: "rev1", Name: "Daniel", Email: "daniel@test", Role: domain.RoleReviewer},
		{ID: "rev2", Name: "Elif", Email: "elif@test", Role: domain.RoleReviewer},
		{ID: "fin1", Name: "Greta", Email: "greta@test", Role: domain.RoleFinalReviewer},
	} {
		u.CreatedAt = "2024-01-01T00:00:00Z"
		if err := env.Repo.InsertUser(ctx, u); err != nil {
			t.Fatalf("insert user %s: %v", u.ID, err)
		}
	}
	return env
}

func (env testEnv) createTask(t *testing.T) domain.Task {
	t.Helper()
	task, err := env.Engine.Create(env.Ctx, "https://img.test/p1.png", "Thc quick brovvn fox", "adm")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

// createInReview drives a fresh task to in_review claimed by rev1.
func (env testEnv) createInReview(t *testing.T) domain.Task {
	t.Helper()
	task := env.createTask(t)
	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "adm"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.Engine.Submit(env.Ctx, task.ID, "The quick brown fox", "ann1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	task, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "rev1")
	if err != nil {
		t.Fatalf("claim review: %v", err)
	}
	return task
}

func TestFullPipeline(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)
	if task.Status != domain.StatusPending {
		t.Fatalf("new task status = %s", task.Status)
	}

	task, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "adm")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if task.Status != domain.StatusInProgress || task.AssignedTo == nil || *task.AssignedTo != "ann1" {
		t.Fatalf("after assign: %+v", task)
	}

	task, err = env.Engine.SaveProgress(env.Ctx, task.ID, "The quick brovvn fox", "ann1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if task.Status != domain.StatusInProgress || task.CorrectedText != "The quick brovvn fox" {
		t.Fatalf("after save: %+v", task)
	}

	task, err = env.Engine.Submit(env.Ctx, task.ID, "The quick brown fox", "ann1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if task.Status != domain.StatusAwaitingReview {
		t.Fatalf("after submit status = %s", task.Status)
	}

	task, err = env.Engine.ClaimForReview(env.Ctx, task.ID, "rev1")
	if err != nil {
		t.Fatalf("claim review: %v", err)
	}
	if task.Status != domain.StatusInReview || task.ReviewerID == nil || *task.ReviewerID != "rev1" {
		t.Fatalf("after claim: %+v", task)
	}

	task, err = env.Engine.Approve(env.Ctx, task.ID, "rev1", "looks right")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if task.Status != domain.StatusAwaitingFinalReview {
		t.Fatalf("after approve status = %s", task.Status)
	}

	task, err = env.Engine.ClaimForFinalReview(env.Ctx, task.ID, "fin1")
	if err != nil {
		t.Fatalf("claim final: %v", err)
	}
	if task.Status != domain.StatusFinalReview || task.FinalReviewerID == nil || *task.FinalReviewerID != "fin1" {
		t.Fatalf("after final claim: %+v", task)
	}

	task, err = env.Engine.FinalApprove(env.Ctx, task.ID, "fin1", "")
	if err != nil {
		t.Fatalf("final approve: %v", err)
	}
	if task.Status != domain.StatusCompleted {
		t.Fatalf("final status = %s", task.Status)
	}

	entries, err := env.Repo.ListTaskHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	wantActions := []domain.Action{
		domain.ActionCreated,
		domain.ActionAssigned,
		domain.ActionTextUpdated,
		domain.ActionSubmitted,
		domain.ActionClaimedForReview,
		domain.ActionApproved,
		domain.ActionClaimedForFinalReview,
		domain.ActionFinalApproved,
	}
	if len(entries) != len(wantActions) {
		t.Fatalf("history length = %d, want %d", len(entries), len(wantActions))
	}
	for i, want := range wantActions {
		if entries[i].Action != want {
			t.Errorf("history[%d].Action = %s, want %s", i, entries[i].Action, want)
		}
	}
	// each entry's new status is the next entry's previous status
	for i := 1; i < len(entries); i++ {
		if entries[i].PreviousStatus == nil {
			t.Fatalf("history[%d] has no previous status", i)
		}
		if *entries[i].PreviousStatus != entries[i-1].NewStatus {
			t.Errorf("history[%d] previous = %s, want %s", i, *entries[i].PreviousStatus, entries[i-1].NewStatus)
		}
	}
}

func TestClaimRaceHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)
	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "adm"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Submit(env.Ctx, task.ID, "fixed", "ann1"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "rev1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "rev2")
	var pe engine.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("second claim error = %v, want precondition failure", err)
	}

	got, err := env.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReviewerID == nil || *got.ReviewerID != "rev1" {
		t.Fatalf("reviewer = %v, want rev1", got.ReviewerID)
	}
	if got.Status != domain.StatusInReview {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestFailedOperationLeavesTaskUnchanged(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)

	// claiming a pending task must fail and change nothing
	_, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "rev1")
	var pe engine.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want precondition failure", err)
	}

	got, err := env.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending || got.ReviewerID != nil {
		t.Fatalf("task changed: %+v", got)
	}
	n, err := env.Repo.CountTaskHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("history count = %d, want 1", n)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	env := newTestEnv(t)
	task := env.createInReview(t)

	_, err := env.Engine.Reject(env.Ctx, task.ID, "rev1", "   ")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation failure", err)
	}

	got, _ := env.Repo.GetTask(env.Ctx, task.ID)
	if got.Status != domain.StatusInReview {
		t.Fatalf("status = %s, want in_review", got.Status)
	}
}

func TestRejectAndReassignRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	task := env.createInReview(t)

	task, err := env.Engine.Reject(env.Ctx, task.ID, "rev1", "missing second line")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if task.Status != domain.StatusRejected {
		t.Fatalf("status = %s", task.Status)
	}

	task, err = env.Engine.Reassign(env.Ctx, task.ID, "adm")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if task.Status != domain.StatusInProgress {
		t.Fatalf("status = %s", task.Status)
	}
	if task.AssignedTo == nil || *task.AssignedTo != "ann1" {
		t.Fatalf("annotator changed: %v", task.AssignedTo)
	}

	// the annotator can submit again after rework
	task, err = env.Engine.Submit(env.Ctx, task.ID, "fixed second line", "ann1")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if task.Status != domain.StatusAwaitingReview {
		t.Fatalf("status = %s", task.Status)
	}
}

func TestResubmitDirectlyFromRejected(t *testing.T) {
	env := newTestEnv(t)
	task := env.createInReview(t)
	if _, err := env.Engine.Reject(env.Ctx, task.ID, "rev1", "typo"); err != nil {
		t.Fatal(err)
	}
	task, err := env.Engine.Submit(env.Ctx, task.ID, "corrected", "ann1")
	if err != nil {
		t.Fatalf("submit from rejected: %v", err)
	}
	if task.Status != domain.StatusAwaitingReview {
		t.Fatalf("status = %s", task.Status)
	}
}

func TestFinalRejectLoopsBack(t *testing.T) {
	env := newTestEnv(t)
	task := env.createInReview(t)
	if _, err := env.Engine.Approve(env.Ctx, task.ID, "rev1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ClaimForFinalReview(env.Ctx, task.ID, "fin1"); err != nil {
		t.Fatal(err)
	}
	task, err := env.Engine.Reject(env.Ctx, task.ID, "fin1", "name misread")
	if err != nil {
		t.Fatalf("final reject: %v", err)
	}
	if task.Status != domain.StatusRejected {
		t.Fatalf("status = %s", task.Status)
	}

	entries, err := env.Repo.ListTaskHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	last := entries[len(entries)-1]
	if last.Action != domain.ActionFinalRejected {
		t.Fatalf("last action = %s, want %s", last.Action, domain.ActionFinalRejected)
	}
	if last.Comment != "name misread" {
		t.Fatalf("comment = %q", last.Comment)
	}
}

func TestOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)
	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "adm"); err != nil {
		t.Fatal(err)
	}

	var ue engine.UnauthorizedError

	// another annotator cannot save or submit
	if _, err := env.Engine.SaveProgress(env.Ctx, task.ID, "x", "ann2"); !errors.As(err, &ue) {
		t.Fatalf("save by non-owner: %v", err)
	}
	if _, err := env.Engine.Submit(env.Ctx, task.ID, "x", "ann2"); !errors.As(err, &ue) {
		t.Fatalf("submit by non-owner: %v", err)
	}

	if _, err := env.Engine.Submit(env.Ctx, task.ID, "fixed", "ann1"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "rev1"); err != nil {
		t.Fatal(err)
	}

	// only the claiming reviewer can decide
	if _, err := env.Engine.Approve(env.Ctx, task.ID, "rev2", ""); !errors.As(err, &ue) {
		t.Fatalf("approve by other reviewer: %v", err)
	}
	if _, err := env.Engine.Reject(env.Ctx, task.ID, "rev2", "nope"); !errors.As(err, &ue) {
		t.Fatalf("reject by other reviewer: %v", err)
	}
}

func TestRoleChecks(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)

	var ue engine.UnauthorizedError
	var ve engine.ValidationError

	// creating requires the admin role
	if _, err := env.Engine.Create(env.Ctx, "https://img.test/p2.png", "text", "ann1"); !errors.As(err, &ue) {
		t.Fatalf("create by annotator: %v", err)
	}
	// assigning requires the admin role
	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "rev1"); !errors.As(err, &ue) {
		t.Fatalf("assign by reviewer: %v", err)
	}
	// assignment target must be an annotator
	if _, err := env.Engine.Assign(env.Ctx, task.ID, "rev1", "adm"); !errors.As(err, &ve) {
		t.Fatalf("assign to reviewer: %v", err)
	}

	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ann1", "adm"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Submit(env.Ctx, task.ID, "fixed", "ann1"); err != nil {
		t.Fatal(err)
	}

	// claims are limited to the matching reviewer role
	if _, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "fin1"); !errors.As(err, &ue) {
		t.Fatalf("review claim by final reviewer: %v", err)
	}
	if _, err := env.Engine.ClaimForReview(env.Ctx, task.ID, "ann2"); !errors.As(err, &ue) {
		t.Fatalf("review claim by annotator: %v", err)
	}
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t)

	if _, err := env.Engine.Assign(env.Ctx, task.ID, "ghost", "adm"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("assign unknown annotator: %v", err)
	}
	if _, err := env.Engine.Assign(env.Ctx, "no-such-task", "ann1", "adm"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("assign unknown task: %v", err)
	}
	if _, err := env.Engine.SaveProgress(env.Ctx, task.ID, "x", "ghost"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("save by unknown user: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve engine.ValidationError
	if _, err := env.Engine.Create(env.Ctx, "", "text", "adm"); !errors.As(err, &ve) {
		t.Fatalf("empty image url: %v", err)
	}
	if _, err := env.Engine.Create(env.Ctx, "https://img.test/p.png", "  ", "adm"); !errors.As(err, &ve) {
		t.Fatalf("empty noisy text: %v", err)
	}
}

func TestCompletedIsFinal(t *testing.T) {
	env := newTestEnv(t)
	task := env.createInReview(t)
	if _, err := env.Engine.Approve(env.Ctx, task.ID, "rev1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ClaimForFinalReview(env.Ctx, task.ID, "fin1"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.FinalApprove(env.Ctx, task.ID, "fin1", ""); err != nil {
		t.Fatal(err)
	}

	var pe engine.PreconditionError
	if _, err := env.Engine.Submit(env.Ctx, task.ID, "more", "ann1"); !errors.As(err, &pe) {
		t.Fatalf("submit after completion: %v", err)
	}
	if _, err := env.Engine.Reject(env.Ctx, task.ID, "fin1", "undo"); !errors.As(err, &pe) {
		t.Fatalf("reject after completion: %v", err)
	}
	if _, err := env.Engine.Reassign(env.Ctx, task.ID, "adm"); !errors.As(err, &pe) {
		t.Fatalf("reassign after completion: %v", err)
	}
}
