package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lodenross/boardctl/internal/api"
	"github.com/lodenross/boardctl/internal/controller"
	"github.com/lodenross/boardctl/internal/model"
)

// newRemote builds the typed REST client for one resource type.
func newRemote[T model.Resource](a *App, plural, singular string) *api.Client[T] {
	return api.NewClient[T](a.cfg.BackendURL, plural, singular,
		api.WithTimeout(time.Duration(a.cfg.Timeout)),
		api.WithToken(a.sess.Token()))
}

// newController wires a list controller over the shared cache and session.
func newController[T model.Resource](a *App, plural, singular string) *controller.Controller[T] {
	return controller.New[T](plural, newRemote[T](a, plural, singular), a.sess, controller.Options{
		Cache:    a.cache,
		CacheTTL: time.Duration(a.cfg.CacheTTL),
		PageSize: a.cfg.PageSize,
		Logger:   a.log,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks before a destructive action. Callers skip it with --yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func requireEdit(a *App) error {
	if !a.sess.Role().CanEdit() {
		return fmt.Errorf("role %s may not modify entities", a.sess.Role())
	}
	return nil
}

func requireDelete(a *App) error {
	if !a.sess.Role().CanDelete() {
		return fmt.Errorf("role %s may not delete entities", a.sess.Role())
	}
	return nil
}

// listCmd builds the generic list subcommand for one resource type.
func listCmd[T model.Resource](plural, singular string, row func(T) string) *cobra.Command {
	var (
		flagSearch   string
		flagStatus   string
		flagPriority string
		flagPage     int
		flagJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + plural,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			c := newController[T](a, plural, singular)
			defer c.Close()

			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			c.SetFilter(controller.Filter{Search: flagSearch, Status: flagStatus, Priority: flagPriority})
			c.SetPage(flagPage)
			view := c.View()

			if flagJSON {
				if view.Items == nil {
					fmt.Println("[]")
					return nil
				}
				return printJSON(view.Items)
			}
			if view.Total == 0 {
				fmt.Printf("no %s found\n", plural)
				return nil
			}
			for _, item := range view.Items {
				fmt.Println(row(item))
			}
			fmt.Printf("\npage %d/%d (%d total)\n", view.Page, view.TotalPages(), view.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagSearch, "search", "", "substring match, case-insensitive")
	cmd.Flags().StringVar(&flagStatus, "status", model.FilterAll, "exact status, or 'all'")
	cmd.Flags().StringVar(&flagPriority, "priority", model.FilterAll, "exact priority, or 'all'")
	cmd.Flags().IntVar(&flagPage, "page", 1, "1-based page number")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "output JSON")
	return cmd
}

// showCmd builds the generic show subcommand.
func showCmd[T model.Resource](plural, singular string, render func(T)) *cobra.Command {
	var flagJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one " + singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			entity, err := newRemote[T](a, plural, singular).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(entity)
			}
			render(entity)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "output JSON")
	return cmd
}

// rmCmd builds the generic remove subcommand. Removal is optimistic in the
// controller; here the process exits right after, so the visible contract is
// simply confirm-then-delete.
func rmCmd[T model.Resource](plural, singular string) *cobra.Command {
	var flagYes bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a " + singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireDelete(a); err != nil {
				return err
			}
			if !flagYes && !confirm(fmt.Sprintf("delete %s %s?", singular, args[0])) {
				fmt.Println("aborted")
				return nil
			}

			c := newController[T](a, plural, singular)
			defer c.Close()
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			if err := c.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s %s\n", singular, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip confirmation")
	return cmd
}

func issueRow(i model.Issue) string {
	return fmt.Sprintf("%-12s %-12s %-9s %s", i.ID, i.Status, i.Priority, i.Title)
}

func projectRow(p model.Project) string {
	return fmt.Sprintf("%-12s %-12s %s", p.ID, p.Status, p.Name)
}

func epicRow(e model.Epic) string {
	return fmt.Sprintf("%-12s %-12s %-9s %s", e.ID, e.Status, e.Priority, e.Title)
}

func sprintRow(s model.Sprint) string {
	return fmt.Sprintf("%-12s %-10s %s", s.ID, s.State, s.Name)
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage projects"}
	cmd.AddCommand(listCmd[model.Project]("projects", "project", projectRow))
	cmd.AddCommand(showCmd[model.Project]("projects", "project", func(p model.Project) {
		fmt.Printf("%s  %s\n", p.ID, p.Name)
		fmt.Printf("status: %s  lead: %s\n", p.Status, p.Lead)
		if p.Description != "" {
			fmt.Println(p.Description)
		}
	}))
	cmd.AddCommand(projectCreateCmd())
	cmd.AddCommand(projectEditCmd())
	cmd.AddCommand(rmCmd[model.Project]("projects", "project"))
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var draft model.Project
	var status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			draft.Status = model.Status(status)
			c := newController[model.Project](a, "projects", "project")
			defer c.Close()
			created, err := c.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Printf("created project %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&draft.Description, "desc", "", "description")
	cmd.Flags().StringVar(&draft.Lead, "lead", "", "project lead")
	cmd.Flags().StringVar(&status, "status", string(model.StatusOpen), "initial status")
	return cmd
}

func projectEditCmd() *cobra.Command {
	var name, desc, lead, status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			c := newController[model.Project](a, "projects", "project")
			defer c.Close()
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			patch, err := findByID(c.Items(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				patch.Name = name
			}
			if cmd.Flags().Changed("desc") {
				patch.Description = desc
			}
			if cmd.Flags().Changed("lead") {
				patch.Lead = lead
			}
			if cmd.Flags().Changed("status") {
				patch.Status = model.Status(status)
			}
			if _, err := c.Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Printf("updated project %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&lead, "lead", "", "project lead")
	cmd.Flags().StringVar(&status, "status", "", "status")
	return cmd
}

func epicCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "epic", Short: "Manage epics"}
	cmd.AddCommand(listCmd[model.Epic]("epics", "epic", epicRow))
	cmd.AddCommand(showCmd[model.Epic]("epics", "epic", func(e model.Epic) {
		fmt.Printf("%s  %s\n", e.ID, e.Title)
		fmt.Printf("project: %s  status: %s  priority: %s\n", e.ProjectID, e.Status, e.Priority)
		if e.Description != "" {
			fmt.Println(e.Description)
		}
	}))
	cmd.AddCommand(epicCreateCmd())
	cmd.AddCommand(epicEditCmd())
	cmd.AddCommand(rmCmd[model.Epic]("epics", "epic"))
	return cmd
}

func epicCreateCmd() *cobra.Command {
	var draft model.Epic
	var status, priority string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an epic",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			draft.Status = model.Status(status)
			draft.Priority = model.Priority(priority)
			c := newController[model.Epic](a, "epics", "epic")
			defer c.Close()
			created, err := c.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Printf("created epic %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "epic title (required)")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "owning project id (required)")
	cmd.Flags().StringVar(&draft.Description, "desc", "", "description")
	cmd.Flags().StringVar(&status, "status", string(model.StatusOpen), "initial status")
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "priority")
	return cmd
}

func epicEditCmd() *cobra.Command {
	var title, desc, status, priority string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an epic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			c := newController[model.Epic](a, "epics", "epic")
			defer c.Close()
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			patch, err := findByID(c.Items(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				patch.Title = title
			}
			if cmd.Flags().Changed("desc") {
				patch.Description = desc
			}
			if cmd.Flags().Changed("status") {
				patch.Status = model.Status(status)
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = model.Priority(priority)
			}
			if _, err := c.Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Printf("updated epic %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "epic title")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	return cmd
}

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "issue", Short: "Manage issues"}
	cmd.AddCommand(listCmd[model.Issue]("issues", "issue", issueRow))
	cmd.AddCommand(showCmd[model.Issue]("issues", "issue", func(i model.Issue) {
		fmt.Printf("%s  %s\n", i.ID, i.Title)
		fmt.Printf("project: %s  epic: %s  sprint: %s\n", i.ProjectID, i.EpicID, i.SprintID)
		fmt.Printf("status: %s  priority: %s  assignee: %s  points: %d\n", i.Status, i.Priority, i.Assignee, i.Points)
		if i.Description != "" {
			fmt.Println(i.Description)
		}
	}))
	cmd.AddCommand(issueCreateCmd())
	cmd.AddCommand(issueEditCmd())
	cmd.AddCommand(rmCmd[model.Issue]("issues", "issue"))
	return cmd
}

func issueCreateCmd() *cobra.Command {
	var draft model.Issue
	var status, priority string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			draft.Status = model.Status(status)
			draft.Priority = model.Priority(priority)
			c := newController[model.Issue](a, "issues", "issue")
			defer c.Close()
			created, err := c.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Printf("created issue %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "issue title (required)")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "owning project id (required)")
	cmd.Flags().StringVar(&draft.EpicID, "epic", "", "owning epic id")
	cmd.Flags().StringVar(&draft.SprintID, "sprint", "", "sprint id")
	cmd.Flags().StringVar(&draft.Assignee, "assignee", "", "assignee user id")
	cmd.Flags().IntVar(&draft.Points, "points", 0, "story points")
	cmd.Flags().StringVar(&draft.Description, "desc", "", "description")
	cmd.Flags().StringVar(&status, "status", string(model.StatusOpen), "initial status")
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "priority")
	return cmd
}

func issueEditCmd() *cobra.Command {
	var title, desc, assignee, status, priority, epicID, sprintID string
	var points int
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			c := newController[model.Issue](a, "issues", "issue")
			defer c.Close()
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			patch, err := findByID(c.Items(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				patch.Title = title
			}
			if cmd.Flags().Changed("desc") {
				patch.Description = desc
			}
			if cmd.Flags().Changed("assignee") {
				patch.Assignee = assignee
			}
			if cmd.Flags().Changed("status") {
				patch.Status = model.Status(status)
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = model.Priority(priority)
			}
			if cmd.Flags().Changed("epic") {
				patch.EpicID = epicID
			}
			if cmd.Flags().Changed("sprint") {
				patch.SprintID = sprintID
			}
			if cmd.Flags().Changed("points") {
				patch.Points = points
			}
			if _, err := c.Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Printf("updated issue %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().StringVar(&epicID, "epic", "", "owning epic id")
	cmd.Flags().StringVar(&sprintID, "sprint", "", "sprint id")
	cmd.Flags().IntVar(&points, "points", 0, "story points")
	return cmd
}

func sprintCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sprint", Short: "Manage sprints"}
	cmd.AddCommand(listCmd[model.Sprint]("sprints", "sprint", sprintRow))
	cmd.AddCommand(showCmd[model.Sprint]("sprints", "sprint", func(s model.Sprint) {
		fmt.Printf("%s  %s\n", s.ID, s.Name)
		fmt.Printf("project: %s  state: %s\n", s.ProjectID, s.State)
		fmt.Printf("%s → %s\n", s.StartsAt.Format("2006-01-02"), s.EndsAt.Format("2006-01-02"))
		if s.Goal != "" {
			fmt.Println(s.Goal)
		}
	}))
	cmd.AddCommand(sprintCreateCmd())
	cmd.AddCommand(sprintEditCmd())
	cmd.AddCommand(rmCmd[model.Sprint]("sprints", "sprint"))
	return cmd
}

func sprintCreateCmd() *cobra.Command {
	var draft model.Sprint
	var state, start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			draft.State = model.SprintState(state)
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				draft.StartsAt = t
			}
			if end != "" {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				draft.EndsAt = t
			}

			c := newController[model.Sprint](a, "sprints", "sprint")
			defer c.Close()
			created, err := c.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Printf("created sprint %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "sprint name (required)")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "owning project id (required)")
	cmd.Flags().StringVar(&draft.Goal, "goal", "", "sprint goal")
	cmd.Flags().StringVar(&state, "state", string(model.SprintPlanned), "sprint state")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func sprintEditCmd() *cobra.Command {
	var name, goal, state, start, end string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := requireEdit(a); err != nil {
				return err
			}

			c := newController[model.Sprint](a, "sprints", "sprint")
			defer c.Close()
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}
			patch, err := findByID(c.Items(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				patch.Name = name
			}
			if cmd.Flags().Changed("goal") {
				patch.Goal = goal
			}
			if cmd.Flags().Changed("state") {
				patch.State = model.SprintState(state)
			}
			if cmd.Flags().Changed("start") {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				patch.StartsAt = t
			}
			if cmd.Flags().Changed("end") {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				patch.EndsAt = t
			}
			if _, err := c.Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Printf("updated sprint %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "sprint name")
	cmd.Flags().StringVar(&goal, "goal", "", "sprint goal")
	cmd.Flags().StringVar(&state, "state", "", "sprint state")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

// findByID locates an entity in a loaded collection.
func findByID[T model.Resource](items []T, id string) (T, error) {
	for _, item := range items {
		if item.ResourceID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("id not found: %s (use 'list' to see available entries)", id)
}
