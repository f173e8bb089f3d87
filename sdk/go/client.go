package scriptoriumsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Scriptorium HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the API user model.
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	GroupID *string `json:"group_id,omitempty"`
}

// Task represents the API task model.
type Task struct {
	ID                string  `json:"id"`
	ImageURL          string  `json:"image_url"`
	NoisyText         string  `json:"noisy_text"`
	CorrectedText     string  `json:"corrected_text"`
	Status            string  `json:"status"`
	AssignedTo        *string `json:"assigned_to,omitempty"`
	AssignedToName    *string `json:"assigned_to_name,omitempty"`
	ReviewerID        *string `json:"reviewer_id,omitempty"`
	ReviewerName      *string `json:"reviewer_name,omitempty"`
	FinalReviewerID   *string `json:"final_reviewer_id,omitempty"`
	FinalReviewerName *string `json:"final_reviewer_name,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// HistoryEntry represents one ledger entry.
type HistoryEntry struct {
	Seq            int64   `json:"seq"`
	ID             string  `json:"id"`
	TaskID         string  `json:"task_id"`
	Action         string  `json:"action"`
	ActorID        string  `json:"actor_id"`
	ActorName      string  `json:"actor_name"`
	Timestamp      string  `json:"timestamp"`
	PreviousStatus *string `json:"previous_status,omitempty"`
	NewStatus      string  `json:"new_status"`
	Comment        string  `json:"comment,omitempty"`
}

// Stats represents dashboard counts.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	InReview   int `json:"inReview"`
	Rejected   int `json:"rejected"`
	Completed  int `json:"completed"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type taskListResponse struct {
	Tasks []Task `json:"tasks"`
}

type taskDetailResponse struct {
	Task    Task           `json:"task"`
	History []HistoryEntry `json:"history"`
}

type statsResponse struct {
	Stats Stats `json:"stats"`
}

// Login exchanges an email for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email string) (User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "v0/auth/login", map[string]any{"email": email}, &resp); err != nil {
		return User{}, err
	}
	c.BearerToken = resp.Token
	return resp.User, nil
}

// CreateTask registers a new transcription task.
func (c *Client) CreateTask(ctx context.Context, imageURL, noisyText string) (Task, error) {
	body := map[string]any{"image_url": imageURL, "noisy_text": noisyText}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks", body, &resp)
	return resp, err
}

// GetTask fetches a task with its ledger.
func (c *Client) GetTask(ctx context.Context, taskID string) (Task, []HistoryEntry, error) {
	var resp taskDetailResponse
	err := c.do(ctx, http.MethodGet, c.taskPath(taskID, ""), nil, &resp)
	return resp.Task, resp.History, err
}

// ListTasks lists tasks matching the filters; empty filters list everything.
func (c *Client) ListTasks(ctx context.Context, statuses []string, assignedTo, search string) ([]Task, error) {
	q := url.Values{}
	if len(statuses) > 0 {
		q.Set("status", strings.Join(statuses, ","))
	}
	if assignedTo != "" {
		q.Set("assigned_to", assignedTo)
	}
	if search != "" {
		q.Set("search", search)
	}
	endpoint := "v0/tasks"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp taskListResponse
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Tasks, err
}

// Assign hands a pending task to an annotator.
func (c *Client) Assign(ctx context.Context, taskID, annotatorID string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "assign"), map[string]any{"annotator_id": annotatorID}, &resp)
	return resp, err
}

// SaveProgress stores the working corrected text.
func (c *Client) SaveProgress(ctx context.Context, taskID, correctedText string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "save"), map[string]any{"corrected_text": correctedText}, &resp)
	return resp, err
}

// Submit finishes annotation and queues the task for review.
func (c *Client) Submit(ctx context.Context, taskID, correctedText string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "submit"), map[string]any{"corrected_text": correctedText}, &resp)
	return resp, err
}

// ClaimForReview takes a task off the review queue.
func (c *Client) ClaimForReview(ctx context.Context, taskID string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "claim-review"), map[string]any{}, &resp)
	return resp, err
}

// Approve passes a task to final review.
func (c *Client) Approve(ctx context.Context, taskID, comment string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "approve"), map[string]any{"comment": comment}, &resp)
	return resp, err
}

// Reject returns a task to its annotator with a comment.
func (c *Client) Reject(ctx context.Context, taskID, comment string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "reject"), map[string]any{"comment": comment}, &resp)
	return resp, err
}

// ClaimForFinalReview takes a task off the final review queue.
func (c *Client) ClaimForFinalReview(ctx context.Context, taskID string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "claim-final-review"), map[string]any{}, &resp)
	return resp, err
}

// FinalApprove completes a task.
func (c *Client) FinalApprove(ctx context.Context, taskID, comment string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "final-approve"), map[string]any{"comment": comment}, &resp)
	return resp, err
}

// Reassign sends a rejected task back into progress.
func (c *Client) Reassign(ctx context.Context, taskID string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.taskPath(taskID, "reassign"), map[string]any{}, &resp)
	return resp, err
}

// Stats fetches dashboard counts.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp statsResponse
	err := c.do(ctx, http.MethodGet, "v0/stats", nil, &resp)
	return resp.Stats, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) taskPath(taskID, op string) string {
	p := "v0/tasks/" + url.PathEscape(taskID)
	if op != "" {
		p += "/" + op
	}
	return p
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
