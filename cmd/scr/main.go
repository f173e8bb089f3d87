package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scriptorium/internal/app"
	"scriptorium/internal/config"
	"scriptorium/internal/db"
	"scriptorium/internal/domain"
	"scriptorium/internal/engine"
	"scriptorium/internal/query"
	"scriptorium/internal/repo"
	"scriptorium/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "scr",
	Short: "Scriptorium CLI",
	Long: `Scriptorium runs a review pipeline for correcting noisy text transcriptions
against their source images.
- Workspace: your .scriptorium directory holding the database.
- Tasks: one image plus its machine transcription; annotators fix the text.
- Pipeline: pending -> in_progress -> awaiting_review -> in_review ->
  awaiting_final_review -> final_review -> completed, with rejected looping
  back to the annotator.
- Roles: admins create and assign, annotators correct, reviewers and final
  reviewers claim from shared queues and approve or reject.
- History: every operation appends one immutable ledger entry, view with
  'scr log tail' or 'scr task history'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SCRIPTORIUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting user id")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(groupCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(queueCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default scriptorium.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(project)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "scriptorium", "project id")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the groups and users from scriptorium.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			conn, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			created, err := app.Seed(cmd.Context(), conn, cfg)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d rows\n", created)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userShowCmd())
	cmd.AddCommand(userRemoveCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var id, name, email, role, groupID string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.Role(role).Valid() {
				return fmt.Errorf("--role must be one of %s", strings.Join(roleNames(), ", "))
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u := domain.User{
					ID:        id,
					Name:      name,
					Email:     strings.TrimSpace(email),
					Role:      domain.Role(role),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if u.ID == "" {
					u.ID = newID("usr")
				}
				if groupID != "" {
					u.GroupID = &groupID
				}
				if err := r.InsertUser(ctx, u); err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "", "admin, annotator, reviewer or final_reviewer")
	cmd.Flags().StringVar(&groupID, "group", "", "group id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func userListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				users, err := r.ListUsers(ctx, domain.Role(role))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Group"})
				for _, u := range users {
					group := ""
					if u.GroupID != nil {
						group = *u.GroupID
					}
					tw.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, group})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "filter by role")
	return cmd
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
}

func userRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.DeleteUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Manage groups"}
	cmd.AddCommand(groupAddCmd())
	cmd.AddCommand(groupListCmd())
	cmd.AddCommand(groupShowCmd())
	return cmd
}

func groupAddCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				g := domain.Group{
					ID:        id,
					Name:      name,
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if g.ID == "" {
					g.ID = newID("grp")
				}
				if err := r.InsertGroup(ctx, g); err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "group id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "group name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func groupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				groups, err := r.ListGroups(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(groups)
			})
		},
	}
}

func groupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				g, err := r.GetGroup(ctx, args[0])
				if err != nil {
					return err
				}
				members, err := r.ListGroupUsers(ctx, g.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"group": g, "members": members})
			})
		},
	}
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage tasks"}
	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskHistoryCmd())
	cmd.AddCommand(taskAssignCmd())
	cmd.AddCommand(taskSaveCmd())
	cmd.AddCommand(taskSubmitCmd())
	cmd.AddCommand(taskClaimReviewCmd())
	cmd.AddCommand(taskApproveCmd())
	cmd.AddCommand(taskRejectCmd())
	cmd.AddCommand(taskClaimFinalReviewCmd())
	cmd.AddCommand(taskFinalApproveCmd())
	cmd.AddCommand(taskReassignCmd())
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var imageURL, noisyText string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.Create(ctx, imageURL, noisyText, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&imageURL, "image-url", "", "source image URL")
	cmd.Flags().StringVar(&noisyText, "noisy-text", "", "machine transcription to correct")
	_ = cmd.MarkFlagRequired("image-url")
	_ = cmd.MarkFlagRequired("noisy-text")
	return cmd
}

func taskListCmd() *cobra.Command {
	var status, assignedTo, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				f := repo.TaskFilters{AssignedTo: assignedTo, Search: search}
				for _, s := range strings.Split(status, ",") {
					s = strings.TrimSpace(s)
					if s == "" {
						continue
					}
					st := domain.Status(s)
					if !st.Valid() {
						return fmt.Errorf("unknown status %q", s)
					}
					f.Statuses = append(f.Statuses, st)
				}
				tasks, err := r.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Status", "Annotator", "Reviewer", "Final Reviewer", "Updated"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{
						t.ID, t.Status,
						strPtr(t.AssignedToName), strPtr(t.ReviewerName), strPtr(t.FinalReviewerName),
						t.UpdatedAt,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "comma separated status filter")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "annotator filter")
	cmd.Flags().StringVar(&search, "search", "", "substring match on id and text")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show a task's ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.ListTaskHistory(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Seq", "Action", "Actor", "From", "To", "Comment", "At"})
				for _, e := range entries {
					from := ""
					if e.PreviousStatus != nil {
						from = string(*e.PreviousStatus)
					}
					tw.AppendRow(table.Row{e.Seq, e.Action, e.ActorName, from, e.NewStatus, e.Comment, e.Timestamp})
				}
				tw.Render()
				return nil
			})
		},
	}
}

// mutateTaskCmd builds the shared shape of the single-task pipeline commands.
func mutateTaskCmd(use, short string, run func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := run(ctx, e, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskAssignCmd() *cobra.Command {
	var annotator string
	cmd := mutateTaskCmd("assign <task-id>", "Assign a pending task to an annotator",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.Assign(ctx, taskID, annotator, actorID())
		})
	cmd.Flags().StringVar(&annotator, "annotator", "", "annotator user id")
	_ = cmd.MarkFlagRequired("annotator")
	return cmd
}

func taskSaveCmd() *cobra.Command {
	var text string
	cmd := mutateTaskCmd("save <task-id>", "Save transcription progress",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.SaveProgress(ctx, taskID, text, actorID())
		})
	cmd.Flags().StringVar(&text, "text", "", "corrected text")
	return cmd
}

func taskSubmitCmd() *cobra.Command {
	var text string
	cmd := mutateTaskCmd("submit <task-id>", "Submit a task for review",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.Submit(ctx, taskID, text, actorID())
		})
	cmd.Flags().StringVar(&text, "text", "", "corrected text")
	return cmd
}

func taskClaimReviewCmd() *cobra.Command {
	return mutateTaskCmd("claim-review <task-id>", "Claim a task for review",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.ClaimForReview(ctx, taskID, actorID())
		})
}

func taskApproveCmd() *cobra.Command {
	var comment string
	cmd := mutateTaskCmd("approve <task-id>", "Approve a reviewed task",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.Approve(ctx, taskID, actorID(), comment)
		})
	cmd.Flags().StringVar(&comment, "comment", "", "optional review note")
	return cmd
}

func taskRejectCmd() *cobra.Command {
	var comment string
	cmd := mutateTaskCmd("reject <task-id>", "Reject a task back to its annotator",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.Reject(ctx, taskID, actorID(), comment)
		})
	cmd.Flags().StringVar(&comment, "comment", "", "why the task was rejected")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func taskClaimFinalReviewCmd() *cobra.Command {
	return mutateTaskCmd("claim-final-review <task-id>", "Claim a task for final review",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.ClaimForFinalReview(ctx, taskID, actorID())
		})
}

func taskFinalApproveCmd() *cobra.Command {
	var comment string
	cmd := mutateTaskCmd("final-approve <task-id>", "Complete a task",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.FinalApprove(ctx, taskID, actorID(), comment)
		})
	cmd.Flags().StringVar(&comment, "comment", "", "optional final review note")
	return cmd
}

func taskReassignCmd() *cobra.Command {
	return mutateTaskCmd("reassign <task-id>", "Return a rejected task to its annotator",
		func(ctx context.Context, e engine.Engine, taskID string) (domain.Task, error) {
			return e.Reassign(ctx, taskID, actorID())
		})
}

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "queue", Short: "Work queues for the acting user"}
	cmd.AddCommand(queueSubCmd("annotation", "Tasks assigned to the acting user",
		func(ctx context.Context, q query.Service) ([]domain.Task, error) {
			return q.AnnotatorQueue(ctx, actorID())
		}))
	cmd.AddCommand(queueSubCmd("review", "Awaiting-review pool plus claimed reviews",
		func(ctx context.Context, q query.Service) ([]domain.Task, error) {
			return q.ReviewQueue(ctx, actorID())
		}))
	cmd.AddCommand(queueSubCmd("final-review", "Awaiting-final-review pool plus claimed reviews",
		func(ctx context.Context, q query.Service) ([]domain.Task, error) {
			return q.FinalReviewQueue(ctx, actorID())
		}))
	return cmd
}

func queueSubCmd(use, short string, run func(ctx context.Context, q query.Service) ([]domain.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuery(cmd.Context(), func(ctx context.Context, q query.Service) error {
				tasks, err := run(ctx, q)
				if err != nil {
					return err
				}
				return printJSONOrTable(tasks)
			})
		},
	}
}

func statsCmd() *cobra.Command {
	var annotator string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuery(cmd.Context(), func(ctx context.Context, q query.Service) error {
				var (
					stats query.Stats
					err   error
				)
				if annotator != "" {
					stats, err = q.AnnotatorStats(ctx, annotator)
				} else {
					stats, err = q.DashboardStats(ctx)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(stats)
			})
		},
	}
	cmd.Flags().StringVar(&annotator, "annotator", "", "restrict to one annotator's tasks")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Inspect the history ledger"}
	var limit int
	var taskID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the newest ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.LatestHistory(ctx, limit, taskID)
				if err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "number of entries")
	tail.Flags().StringVar(&taskID, "task", "", "restrict to one task")
	cmd.AddCommand(tail)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default("scriptorium")
			}
			conn, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			if _, err := app.Seed(cmd.Context(), conn, cfg); err != nil {
				return err
			}

			secret := os.Getenv("SCRIPTORIUM_JWT_SECRET")
			if secret == "" {
				secret = cfg.Auth.Secret
			}
			if secret == "" && !cfg.Auth.AllowLegacyActorHeader {
				return fmt.Errorf("SCRIPTORIUM_JWT_SECRET is required for bearer auth")
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			if addr == "" {
				addr = ":8787"
			}

			var hooks []server.WebhookConfig
			for _, w := range cfg.Webhooks {
				hooks = append(hooks, server.WebhookConfig{URL: w.URL, Actions: w.Actions})
			}

			e := engine.New(conn)
			handler, err := server.New(server.Config{
				Engine:   e,
				Query:    query.New(conn),
				BasePath: basePath,
				Auth: server.AuthConfig{
					JWTSecret:              secret,
					TokenTTL:               time.Duration(cfg.TokenTTLMinutes()) * time.Minute,
					AllowLegacyActorHeader: cfg.Auth.AllowLegacyActorHeader,
				},
				Webhooks: hooks,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Scriptorium API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, engine.New(conn))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, repo.Repo{DB: conn})
}

func withQuery(ctx context.Context, fn func(context.Context, query.Service) error) error {
	conn, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, query.New(conn))
}

func actorID() string {
	return viper.GetString("actor-id")
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func roleNames() []string {
	roles := domain.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
