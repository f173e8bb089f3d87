package domain

// Role identifies what an actor is allowed to do in the pipeline.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleAnnotator     Role = "annotator"
	RoleReviewer      Role = "reviewer"
	RoleFinalReviewer Role = "final_reviewer"
)

// Roles lists every known role, in pipeline order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleAnnotator, RoleReviewer, RoleFinalReviewer}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnnotator, RoleReviewer, RoleFinalReviewer:
		return true
	}
	return false
}

// Status is the task's position in the pipeline.
type Status string

const (
	StatusPending             Status = "pending"
	StatusInProgress          Status = "in_progress"
	StatusAwaitingReview      Status = "awaiting_review"
	StatusInReview            Status = "in_review"
	StatusAwaitingFinalReview Status = "awaiting_final_review"
	StatusFinalReview         Status = "final_review"
	StatusRejected            Status = "rejected"
	StatusCompleted           Status = "completed"
)

// Action names a ledger entry kind.
type Action string

const (
	ActionCreated               Action = "created"
	ActionAssigned              Action = "assigned"
	ActionTextUpdated           Action = "text_updated"
	ActionSubmitted             Action = "submitted"
	ActionClaimedForReview      Action = "claimed_for_review"
	ActionApproved              Action = "approved"
	ActionRejected              Action = "rejected"
	ActionClaimedForFinalReview Action = "claimed_for_final_review"
	ActionFinalApproved         Action = "final_approved"
	ActionFinalRejected         Action = "final_rejected"
	ActionReassigned            Action = "reassigned"
)

type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      Role    `json:"role" enum:"admin,annotator,reviewer,final_reviewer"`
	GroupID   *string `json:"group_id,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Task struct {
	ID                string  `json:"id"`
	ImageURL          string  `json:"image_url"`
	NoisyText         string  `json:"noisy_text"`
	CorrectedText     string  `json:"corrected_text"`
	Status            Status  `json:"status" enum:"pending,in_progress,awaiting_review,in_review,awaiting_final_review,final_review,rejected,completed"`
	AssignedTo        *string `json:"assigned_to,omitempty"`
	AssignedToName    *string `json:"assigned_to_name,omitempty"`
	ReviewerID        *string `json:"reviewer_id,omitempty"`
	ReviewerName      *string `json:"reviewer_name,omitempty"`
	FinalReviewerID   *string `json:"final_reviewer_id,omitempty"`
	FinalReviewerName *string `json:"final_reviewer_name,omitempty"`
	CreatedAt         string  `json:"created_at" format:"date-time"`
	UpdatedAt         string  `json:"updated_at" format:"date-time"`
}

// HistoryEntry is one immutable audit record. Seq is assigned by storage in
// insertion order and doubles as the webhook feed cursor; ID is the stable
// opaque identifier.
type HistoryEntry struct {
	Seq            int64   `json:"seq"`
	ID             string  `json:"id"`
	TaskID         string  `json:"task_id"`
	Action         Action  `json:"action"`
	ActorID        string  `json:"actor_id"`
	ActorName      string  `json:"actor_name"`
	Timestamp      string  `json:"timestamp" format:"date-time"`
	PreviousStatus *Status `json:"previous_status,omitempty"`
	NewStatus      Status  `json:"new_status"`
	Comment        string  `json:"comment,omitempty"`
}
