package server

import (
	"scriptorium/internal/domain"
	"scriptorium/internal/query"
)

// Request payloads

type LoginRequest struct {
	Email string `json:"email" format:"email"`
}

type CreateUserRequest struct {
	ID      *string `json:"id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email" format:"email"`
	Role    string  `json:"role" enum:"admin,annotator,reviewer,final_reviewer"`
	GroupID *string `json:"group_id,omitempty"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty" format:"email"`
	Role    *string `json:"role,omitempty" enum:"admin,annotator,reviewer,final_reviewer"`
	GroupID *string `json:"group_id,omitempty"`
}

type CreateGroupRequest struct {
	ID   *string `json:"id,omitempty"`
	Name string  `json:"name"`
}

type CreateTaskRequest struct {
	ImageURL  string `json:"image_url"`
	NoisyText string `json:"noisy_text"`
}

type AssignTaskRequest struct {
	AnnotatorID string `json:"annotator_id"`
}

type SaveTaskRequest struct {
	CorrectedText string `json:"corrected_text"`
}

type ReviewDecisionRequest struct {
	Comment string `json:"comment,omitempty"`
}

// Response payloads

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role,omitempty"`
	Source  string `json:"source"`
}

type GroupResponse struct {
	Group   domain.Group  `json:"group"`
	Members []domain.User `json:"members"`
}

type TaskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type TaskDetailResponse struct {
	Task    domain.Task           `json:"task"`
	History []domain.HistoryEntry `json:"history"`
}

type HistoryFeedResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
	Cursor  int64                 `json:"cursor"`
}

type StatsResponse struct {
	Stats query.Stats `json:"stats"`
}

func nonNilTasks(ts []domain.Task) []domain.Task {
	if ts == nil {
		return []domain.Task{}
	}
	return ts
}

func nonNilHistory(es []domain.HistoryEntry) []domain.HistoryEntry {
	if es == nil {
		return []domain.HistoryEntry{}
	}
	return es
}

func nonNilUsers(us []domain.User) []domain.User {
	if us == nil {
		return []domain.User{}
	}
	return us
}
