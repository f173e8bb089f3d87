package query

import (
	"context"
	"database/sql"

	"scriptorium/internal/domain"
	"scriptorium/internal/repo"
)

// Service answers read-only questions about the pipeline. It never mutates
// state, so repeated calls against an unchanged store return the same answer.
type Service struct {
	Repo repo.Repo
}

func New(db *sql.DB) Service {
	return Service{Repo: repo.Repo{DB: db}}
}

// Stats summarizes task counts for a dashboard. The four review-stage
// statuses collapse into a single in-review bucket.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	InReview   int `json:"inReview"`
	Rejected   int `json:"rejected"`
	Completed  int `json:"completed"`
}

func statsFrom(counts map[domain.Status]int) Stats {
	s := Stats{
		Pending:    counts[domain.StatusPending],
		InProgress: counts[domain.StatusInProgress],
		Rejected:   counts[domain.StatusRejected],
		Completed:  counts[domain.StatusCompleted],
	}
	s.InReview = counts[domain.StatusAwaitingReview] +
		counts[domain.StatusInReview] +
		counts[domain.StatusAwaitingFinalReview] +
		counts[domain.StatusFinalReview]
	for _, n := range counts {
		s.Total += n
	}
	return s
}

// DashboardStats counts all tasks by status.
func (s Service) DashboardStats(ctx context.Context) (Stats, error) {
	counts, err := s.Repo.CountTasksByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return statsFrom(counts), nil
}

// AnnotatorStats counts the tasks assigned to a single annotator.
func (s Service) AnnotatorStats(ctx context.Context, annotatorID string) (Stats, error) {
	counts, err := s.Repo.CountTasksByStatusFor(ctx, annotatorID)
	if err != nil {
		return Stats{}, err
	}
	return statsFrom(counts), nil
}

// AnnotatorQueue lists the tasks currently assigned to an annotator,
// most recently touched first.
func (s Service) AnnotatorQueue(ctx context.Context, annotatorID string) ([]domain.Task, error) {
	return s.Repo.ListTasks(ctx, repo.TaskFilters{AssignedTo: annotatorID})
}

// ReviewQueue lists tasks a reviewer can act on: the shared awaiting-review
// pool plus tasks this reviewer has already claimed.
func (s Service) ReviewQueue(ctx context.Context, reviewerID string) ([]domain.Task, error) {
	return s.Repo.ListClaimable(ctx, domain.StatusAwaitingReview, domain.StatusInReview, "reviewer_id", reviewerID)
}

// FinalReviewQueue is the same shape one stage later.
func (s Service) FinalReviewQueue(ctx context.Context, finalReviewerID string) ([]domain.Task, error) {
	return s.Repo.ListClaimable(ctx, domain.StatusAwaitingFinalReview, domain.StatusFinalReview, "final_reviewer_id", finalReviewerID)
}

// Search lists tasks matching the given filters.
func (s Service) Search(ctx context.Context, f repo.TaskFilters) ([]domain.Task, error) {
	return s.Repo.ListTasks(ctx, f)
}

// TaskWithHistory loads a task together with its full ledger.
func (s Service) TaskWithHistory(ctx context.Context, taskID string) (domain.Task, []domain.HistoryEntry, error) {
	t, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, nil, err
	}
	entries, err := s.Repo.ListTaskHistory(ctx, taskID)
	if err != nil {
		return domain.Task{}, nil, err
	}
	return t, entries, nil
}
