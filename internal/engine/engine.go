package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptorium/internal/domain"
	"scriptorium/internal/history"
	"scriptorium/internal/repo"
	"scriptorium/internal/telemetry"
)

// Engine applies review-pipeline operations to tasks. Every operation runs in
// a single transaction: load, validate, mutate with a status guard, append a
// ledger entry, commit. The guard turns lost claim races into precondition
// failures instead of silent double-claims.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Ledger history.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Engine {
	now := time.Now
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Ledger: history.Writer{Now: now},
		Now:    now,
	}
}

func (e Engine) timestamp() string {
	return e.Now().UTC().Format(time.RFC3339)
}

// setStatus moves a task to a new status, refusing edges the transition
// table does not contain.
func setStatus(t *domain.Task, to domain.Status) error {
	if !domain.CanTransition(t.Status, to) {
		return PreconditionError{Reason: fmt.Sprintf("cannot move task from %s to %s", t.Status, to)}
	}
	t.Status = to
	return nil
}

// Create registers a new task in pending status.
func (e Engine) Create(ctx context.Context, imageURL, noisyText, actorID string) (domain.Task, error) {
	if strings.TrimSpace(imageURL) == "" {
		return domain.Task{}, ValidationError{Reason: "image URL is required"}
	}
	if strings.TrimSpace(noisyText) == "" {
		return domain.Task{}, ValidationError{Reason: "noisy text is required"}
	}
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionCreated, actor, ""); err != nil {
		return domain.Task{}, err
	}

	now := e.timestamp()
	t := domain.Task{
		ID:        uuid.NewString(),
		ImageURL:  imageURL,
		NoisyText: noisyText,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if _, err := e.Ledger.Append(ctx, tx, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionCreated,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		NewStatus: t.Status,
	}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionCreated)).Inc()
	return t, nil
}

// Assign hands a pending task to an annotator and starts work on it.
func (e Engine) Assign(ctx context.Context, taskID, annotatorID, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	annotator, err := e.Repo.GetUser(ctx, annotatorID)
	if err != nil {
		return domain.Task{}, err
	}
	if annotator.Role != domain.RoleAnnotator {
		return domain.Task{}, ValidationError{Reason: fmt.Sprintf("user %s is not an annotator", annotator.ID)}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionAssigned, actor, t.Status); err != nil {
		return t, err
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusInProgress); err != nil {
		return t, err
	}
	t.AssignedTo = &annotator.ID
	t.AssignedToName = &annotator.Name
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionAssigned,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Comment:   "assigned to " + annotator.Name,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionAssigned)).Inc()
	return t, nil
}

// SaveProgress updates the working transcription without changing status.
// Any participant currently attached to the task may save.
func (e Engine) SaveProgress(ctx context.Context, taskID, correctedText, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !isParticipant(t, actor.ID) {
		return t, UnauthorizedError{Reason: "you are not assigned to this task"}
	}

	prev := t.Status
	t.CorrectedText = correctedText
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionTextUpdated,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionTextUpdated)).Inc()
	return t, nil
}

// Submit finishes annotation work and places the task in the review queue.
func (e Engine) Submit(ctx context.Context, taskID, correctedText, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if t.AssignedTo == nil || *t.AssignedTo != actor.ID {
		return t, UnauthorizedError{Reason: "you are not assigned to this task"}
	}
	if err := checkRule(domain.ActionSubmitted, actor, t.Status); err != nil {
		return t, err
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusAwaitingReview); err != nil {
		return t, err
	}
	t.CorrectedText = correctedText
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionSubmitted,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionSubmitted)).Inc()
	return t, nil
}

// ClaimForReview takes an awaiting task off the shared review queue. When two
// reviewers race for the same task exactly one claim commits.
func (e Engine) ClaimForReview(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionClaimedForReview, actor, t.Status); err != nil {
		return t, err
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusInReview); err != nil {
		return t, err
	}
	t.ReviewerID = &actor.ID
	t.ReviewerName = &actor.Name
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionClaimedForReview,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionClaimedForReview)).Inc()
	return t, nil
}

// Approve passes a reviewed task on to the final review queue.
func (e Engine) Approve(ctx context.Context, taskID, actorID string, comment string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionApproved, actor, t.Status); err != nil {
		return t, err
	}
	if t.ReviewerID == nil || *t.ReviewerID != actor.ID {
		return t, UnauthorizedError{Reason: "you are not the reviewer for this task"}
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusAwaitingFinalReview); err != nil {
		return t, err
	}
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionApproved,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Comment:   strings.TrimSpace(comment),
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionApproved)).Inc()
	return t, nil
}

// Reject sends a task back to its annotator. Works from either review stage
// and always requires a comment explaining the rejection.
func (e Engine) Reject(ctx context.Context, taskID, actorID, comment string) (domain.Task, error) {
	if strings.TrimSpace(comment) == "" {
		return domain.Task{}, ValidationError{Reason: "a rejection comment is required"}
	}
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionRejected, actor, t.Status); err != nil {
		return t, err
	}

	action := domain.ActionRejected
	switch t.Status {
	case domain.StatusInReview:
		if t.ReviewerID == nil || *t.ReviewerID != actor.ID {
			return t, UnauthorizedError{Reason: "you are not the reviewer for this task"}
		}
	case domain.StatusFinalReview:
		if t.FinalReviewerID == nil || *t.FinalReviewerID != actor.ID {
			return t, UnauthorizedError{Reason: "you are not the final reviewer for this task"}
		}
		action = domain.ActionFinalRejected
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusRejected); err != nil {
		return t, err
	}
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    action,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Comment:   comment,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(action)).Inc()
	return t, nil
}

// ClaimForFinalReview takes a task off the shared final review queue.
func (e Engine) ClaimForFinalReview(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionClaimedForFinalReview, actor, t.Status); err != nil {
		return t, err
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusFinalReview); err != nil {
		return t, err
	}
	t.FinalReviewerID = &actor.ID
	t.FinalReviewerName = &actor.Name
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionClaimedForFinalReview,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionClaimedForFinalReview)).Inc()
	return t, nil
}

// FinalApprove completes a task. Completed is terminal.
func (e Engine) FinalApprove(ctx context.Context, taskID, actorID string, comment string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionFinalApproved, actor, t.Status); err != nil {
		return t, err
	}
	if t.FinalReviewerID == nil || *t.FinalReviewerID != actor.ID {
		return t, UnauthorizedError{Reason: "you are not the final reviewer for this task"}
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusCompleted); err != nil {
		return t, err
	}
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionFinalApproved,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Comment:   strings.TrimSpace(comment),
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionFinalApproved)).Inc()
	return t, nil
}

// Reassign sends a rejected task back to its original annotator for rework.
func (e Engine) Reassign(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkRule(domain.ActionReassigned, actor, t.Status); err != nil {
		return t, err
	}
	if t.AssignedTo == nil {
		return t, PreconditionError{Reason: "task has no annotator to return to"}
	}

	prev := t.Status
	if err := setStatus(&t, domain.StatusInProgress); err != nil {
		return t, err
	}
	t.UpdatedAt = e.timestamp()

	if err := e.applyAndLog(ctx, tx, t, prev, domain.HistoryEntry{
		TaskID:    t.ID,
		Action:    domain.ActionReassigned,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Comment:   "returned to " + deref(t.AssignedToName),
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	telemetry.OperationsTotal.WithLabelValues(string(domain.ActionReassigned)).Inc()
	return t, nil
}

// applyAndLog writes the mutated task with a status guard and records the
// ledger entry for the move. A lost guard means another transaction changed
// the task since we loaded it.
func (e Engine) applyAndLog(ctx context.Context, tx *sql.Tx, t domain.Task, prev domain.Status, entry domain.HistoryEntry) error {
	if err := e.Repo.UpdateTaskGuarded(ctx, tx, t, prev); err != nil {
		if errors.Is(err, repo.ErrStaleStatus) {
			return PreconditionError{Reason: "task was modified by another operation"}
		}
		return err
	}
	entry.PreviousStatus = &prev
	entry.NewStatus = t.Status
	if _, err := e.Ledger.Append(ctx, tx, entry); err != nil {
		return err
	}
	return nil
}

func isParticipant(t domain.Task, userID string) bool {
	for _, p := range []*string{t.AssignedTo, t.ReviewerID, t.FinalReviewerID} {
		if p != nil && *p == userID {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
