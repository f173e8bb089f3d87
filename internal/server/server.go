package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"scriptorium/internal/domain"
	"scriptorium/internal/engine"
	"scriptorium/internal/query"
	"scriptorium/internal/repo"
	"scriptorium/internal/telemetry"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Query    query.Service
	BasePath string
	Auth     AuthConfig
	Webhooks []WebhookConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"precondition_failed"`
	Message string         `json:"message" example:"task is not awaiting review"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the review pipeline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	router.Handle("/metrics", telemetry.Handler())

	hcfg := huma.DefaultConfig("Scriptorium API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAuth(group, cfg)
	registerUsers(group, cfg.Engine.Repo)
	registerGroups(group, cfg.Engine.Repo)
	registerTasks(group, cfg.Engine, cfg.Query)
	registerQueues(group, cfg.Query)
	registerStats(group, cfg.Query)
	registerHistoryFeed(group, cfg.Engine.Repo)

	startWebhookDispatcher(cfg.Engine.Repo, cfg.Webhooks)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine and repository failures onto the error envelope.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var pe engine.PreconditionError
	if errors.As(err, &pe) {
		telemetry.FailuresTotal.WithLabelValues("precondition_failed").Inc()
		return newAPIError(http.StatusConflict, "precondition_failed", err.Error(), nil)
	}
	var ue engine.UnauthorizedError
	if errors.As(err, &ue) {
		telemetry.FailuresTotal.WithLabelValues("forbidden").Inc()
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), nil)
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		telemetry.FailuresTotal.WithLabelValues("validation_failed").Inc()
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		telemetry.FailuresTotal.WithLabelValues("not_found").Inc()
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	telemetry.FailuresTotal.WithLabelValues("internal_error").Inc()
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "precondition_failed"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange a known email address for an access token",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		email := strings.TrimSpace(input.Body.Email)
		if email == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "email is required", nil)
		}
		user, err := cfg.Engine.Repo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, handleError(err)
		}
		token, err := mintToken(cfg.Auth, user.ID, string(user.Role), time.Now())
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{Token: token, User: user}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoAmIResponse `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		return &struct {
			Body WhoAmIResponse `json:"body"`
		}{Body: WhoAmIResponse{ActorID: p.ActorID, Role: p.Role, Source: p.Source}}, nil
	})
}

func registerUsers(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		role := domain.Role(input.Body.Role)
		if !role.Valid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown role", nil)
		}
		if strings.TrimSpace(input.Body.Name) == "" || strings.TrimSpace(input.Body.Email) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name and email are required", nil)
		}
		u := domain.User{
			ID:        uuid.NewString(),
			Name:      input.Body.Name,
			Email:     strings.TrimSpace(input.Body.Email),
			Role:      role,
			GroupID:   input.Body.GroupID,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if input.Body.ID != nil && *input.Body.ID != "" {
			u.ID = *input.Body.ID
		}
		if err := r.InsertUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, input *struct {
		Role string `query:"role" enum:",admin,annotator,reviewer,final_reviewer"`
	}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		users, err := r.ListUsers(ctx, domain.Role(input.Role))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: nonNilUsers(users)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := r.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPatch,
		Path:        "/users/{user_id}",
		Summary:     "Update user",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string            `path:"user_id"`
		Body   UpdateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := r.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			u.Name = *input.Body.Name
		}
		if input.Body.Email != nil {
			u.Email = strings.TrimSpace(*input.Body.Email)
		}
		if input.Body.Role != nil {
			role := domain.Role(*input.Body.Role)
			if !role.Valid() {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown role", nil)
			}
			u.Role = role
		}
		if input.Body.GroupID != nil {
			if *input.Body.GroupID == "" {
				u.GroupID = nil
			} else {
				u.GroupID = input.Body.GroupID
			}
		}
		if err := r.UpdateUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-user",
		Method:        http.MethodDelete,
		Path:          "/users/{user_id}",
		Summary:       "Delete user",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct{}, error) {
		if err := r.DeleteUser(ctx, input.UserID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerGroups(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-group",
		Method:        http.MethodPost,
		Path:          "/groups",
		Summary:       "Create group",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateGroupRequest `json:"body"`
	}) (*struct {
		Body domain.Group `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		g := domain.Group{
			ID:        uuid.NewString(),
			Name:      input.Body.Name,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if input.Body.ID != nil && *input.Body.ID != "" {
			g.ID = *input.Body.ID
		}
		if err := r.InsertGroup(ctx, g); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Group `json:"body"`
		}{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-groups",
		Method:      http.MethodGet,
		Path:        "/groups",
		Summary:     "List groups",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Group `json:"body"`
	}, error) {
		groups, err := r.ListGroups(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if groups == nil {
			groups = []domain.Group{}
		}
		return &struct {
			Body []domain.Group `json:"body"`
		}{Body: groups}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-group",
		Method:      http.MethodGet,
		Path:        "/groups/{group_id}",
		Summary:     "Get group with members",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		GroupID string `path:"group_id"`
	}) (*struct {
		Body GroupResponse `json:"body"`
	}, error) {
		g, err := r.GetGroup(ctx, input.GroupID)
		if err != nil {
			return nil, handleError(err)
		}
		members, err := r.ListGroupUsers(ctx, g.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GroupResponse `json:"body"`
		}{Body: GroupResponse{Group: g, Members: nonNilUsers(members)}}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine, q query.Service) {
	type taskPath struct {
		TaskID string `path:"task_id"`
	}
	taskBody := func(t domain.Task) *struct {
		Body domain.Task `json:"body"`
	} {
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.Create(ctx, input.Body.ImageURL, input.Body.NoisyText, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return taskBody(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks with optional filters",
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status" doc:"Comma separated status filter"`
		AssignedTo string `query:"assigned_to"`
		Search     string `query:"search" doc:"Substring match on task id and text"`
	}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		f := repo.TaskFilters{
			AssignedTo: input.AssignedTo,
			Search:     input.Search,
		}
		for _, s := range strings.Split(input.Status, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			status := domain.Status(s)
			if !status.Valid() {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown status "+s, nil)
			}
			f.Statuses = append(f.Statuses, status)
		}
		tasks, err := q.Search(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: TaskListResponse{Tasks: nonNilTasks(tasks)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task with its history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body TaskDetailResponse `json:"body"`
	}, error) {
		t, entries, err := q.TaskWithHistory(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskDetailResponse `json:"body"`
		}{Body: TaskDetailResponse{Task: t, History: nonNilHistory(entries)}}, nil
	})

	type mutation struct {
		id      string
		summary string
		path    string
		call    func(ctx context.Context, taskID, actorID string, body SaveTaskRequest, decision ReviewDecisionRequest) (domain.Task, error)
	}

	register := func(m mutation) {
		huma.Register(api, huma.Operation{
			OperationID: m.id,
			Method:      http.MethodPost,
			Path:        m.path,
			Summary:     m.summary,
			Errors: []int{
				http.StatusForbidden,
				http.StatusNotFound,
				http.StatusConflict,
				http.StatusUnprocessableEntity,
			},
		}, func(ctx context.Context, input *struct {
			TaskID string `path:"task_id"`
			Body   struct {
				CorrectedText string `json:"corrected_text,omitempty"`
				AnnotatorID   string `json:"annotator_id,omitempty"`
				Comment       string `json:"comment,omitempty"`
			} `json:"body"`
		}) (*struct {
			Body domain.Task `json:"body"`
		}, error) {
			actorID, authErr := actorIDFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			t, err := m.call(ctx, input.TaskID, actorID,
				SaveTaskRequest{CorrectedText: input.Body.CorrectedText},
				ReviewDecisionRequest{Comment: input.Body.Comment})
			if err != nil {
				return nil, handleError(err)
			}
			return taskBody(t), nil
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/assign",
		Summary:     "Assign a pending task to an annotator",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   AssignTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.Assign(ctx, input.TaskID, input.Body.AnnotatorID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return taskBody(t), nil
	})

	register(mutation{
		id: "save-task", summary: "Save transcription progress", path: "/tasks/{task_id}/save",
		call: func(ctx context.Context, taskID, actorID string, body SaveTaskRequest, _ ReviewDecisionRequest) (domain.Task, error) {
			return e.SaveProgress(ctx, taskID, body.CorrectedText, actorID)
		},
	})
	register(mutation{
		id: "submit-task", summary: "Submit for review", path: "/tasks/{task_id}/submit",
		call: func(ctx context.Context, taskID, actorID string, body SaveTaskRequest, _ ReviewDecisionRequest) (domain.Task, error) {
			return e.Submit(ctx, taskID, body.CorrectedText, actorID)
		},
	})
	register(mutation{
		id: "claim-review", summary: "Claim a task for review", path: "/tasks/{task_id}/claim-review",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, _ ReviewDecisionRequest) (domain.Task, error) {
			return e.ClaimForReview(ctx, taskID, actorID)
		},
	})
	register(mutation{
		id: "approve-task", summary: "Approve a reviewed task", path: "/tasks/{task_id}/approve",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, d ReviewDecisionRequest) (domain.Task, error) {
			return e.Approve(ctx, taskID, actorID, d.Comment)
		},
	})
	register(mutation{
		id: "reject-task", summary: "Reject a task back to its annotator", path: "/tasks/{task_id}/reject",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, d ReviewDecisionRequest) (domain.Task, error) {
			return e.Reject(ctx, taskID, actorID, d.Comment)
		},
	})
	register(mutation{
		id: "claim-final-review", summary: "Claim a task for final review", path: "/tasks/{task_id}/claim-final-review",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, _ ReviewDecisionRequest) (domain.Task, error) {
			return e.ClaimForFinalReview(ctx, taskID, actorID)
		},
	})
	register(mutation{
		id: "final-approve-task", summary: "Complete a task", path: "/tasks/{task_id}/final-approve",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, d ReviewDecisionRequest) (domain.Task, error) {
			return e.FinalApprove(ctx, taskID, actorID, d.Comment)
		},
	})
	register(mutation{
		id: "reassign-task", summary: "Return a rejected task to its annotator", path: "/tasks/{task_id}/reassign",
		call: func(ctx context.Context, taskID, actorID string, _ SaveTaskRequest, _ ReviewDecisionRequest) (domain.Task, error) {
			return e.Reassign(ctx, taskID, actorID)
		},
	})
}

func registerQueues(api huma.API, q query.Service) {
	listBody := func(tasks []domain.Task) *struct {
		Body TaskListResponse `json:"body"`
	} {
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: TaskListResponse{Tasks: nonNilTasks(tasks)}}
	}

	huma.Register(api, huma.Operation{
		OperationID: "annotation-queue",
		Method:      http.MethodGet,
		Path:        "/queues/annotation",
		Summary:     "Tasks assigned to the caller",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tasks, err := q.AnnotatorQueue(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return listBody(tasks), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-queue",
		Method:      http.MethodGet,
		Path:        "/queues/review",
		Summary:     "Awaiting-review pool plus the caller's claimed reviews",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tasks, err := q.ReviewQueue(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return listBody(tasks), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "final-review-queue",
		Method:      http.MethodGet,
		Path:        "/queues/final-review",
		Summary:     "Awaiting-final-review pool plus the caller's claimed reviews",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tasks, err := q.FinalReviewQueue(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return listBody(tasks), nil
	})
}

func registerStats(api huma.API, q query.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Task counts by status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatsResponse `json:"body"`
	}, error) {
		stats, err := q.DashboardStats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StatsResponse `json:"body"`
		}{Body: StatsResponse{Stats: stats}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "annotator-stats",
		Method:      http.MethodGet,
		Path:        "/stats/annotators/{user_id}",
		Summary:     "Task counts for one annotator",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body StatsResponse `json:"body"`
	}, error) {
		stats, err := q.AnnotatorStats(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StatsResponse `json:"body"`
		}{Body: StatsResponse{Stats: stats}}, nil
	})
}

func registerHistoryFeed(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "history-feed",
		Method:      http.MethodGet,
		Path:        "/history",
		Summary:     "Ledger entries after a cursor, oldest first",
	}, func(ctx context.Context, input *struct {
		After int64 `query:"after" minimum:"0"`
		Limit int   `query:"limit" minimum:"1" maximum:"500"`
	}) (*struct {
		Body HistoryFeedResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 100
		}
		entries, err := r.HistoryAfter(ctx, limit, input.After)
		if err != nil {
			return nil, handleError(err)
		}
		cursor := input.After
		for _, e := range entries {
			if e.Seq > cursor {
				cursor = e.Seq
			}
		}
		return &struct {
			Body HistoryFeedResponse `json:"body"`
		}{Body: HistoryFeedResponse{Entries: nonNilHistory(entries), Cursor: cursor}}, nil
	})
}
