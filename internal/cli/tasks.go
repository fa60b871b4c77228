package cli

import (
	"fmt"

	"tracker-client/internal/domain"
	"tracker-client/internal/usecase"

	"github.com/spf13/cobra"
)

func newTasksCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit the tasks of one project",
	}
	cmd.PersistentFlags().Int64Var(&a.Project, "project", 0, "Project id (required)")
	cmd.AddCommand(newTasksListCmd(a))
	cmd.AddCommand(newTasksCreateCmd(a))
	cmd.AddCommand(newTasksToggleCmd(a))
	cmd.AddCommand(newTasksUpdateCmd(a))
	cmd.AddCommand(newTasksDeleteCmd(a))
	return cmd
}

// detailsView activates the --project details view: tasks plus progress.
func (a *App) detailsView(cmd *cobra.Command) (*usecase.ProjectDetailsView, error) {
	v := a.core.ProjectDetailsView()
	if err := v.Activate(cmd.Context(), a.Project); err != nil {
		return v, a.showDetails(cmd, v, err)
	}
	return v, nil
}

func (a *App) showDetails(cmd *cobra.Command, v *usecase.ProjectDetailsView, err error) error {
	err = a.checkAuth(cmd.Context(), err)
	renderProjectDetails(cmd.OutOrStdout(), v.State())
	if err != nil {
		return renderedError{err}
	}
	return nil
}

// loadedTask looks up the task named by arg in the activated view.
func (a *App) loadedTask(v *usecase.ProjectDetailsView, arg string) (domain.Task, error) {
	id, err := parseID("task id", arg)
	if err != nil {
		return domain.Task{}, err
	}
	t, ok := v.FindTask(id)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %d not found in project %d", id, a.Project)
	}
	return t, nil
}

func newTasksListCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "list",
		Short: "List tasks with the project's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.detailsView(cmd)
			if err != nil {
				return err
			}
			return a.showDetails(cmd, v, nil)
		},
	}, projectRoute)
}

func newTasksCreateCmd(a *App) *cobra.Command {
	var title, description, deadline string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an open task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := domain.ParseDate(deadline)
			if err != nil {
				return err
			}
			v, err := a.detailsView(cmd)
			if err != nil {
				return err
			}
			draft := domain.TaskDraft{Title: title, Description: description, Deadline: due}
			return a.showDetails(cmd, v, v.CreateTask(cmd.Context(), draft))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline as YYYY-MM-DD")
	return withRoute(cmd, projectRoute)
}

func newTasksToggleCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Flip a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.detailsView(cmd)
			if err != nil {
				return err
			}
			t, err := a.loadedTask(v, args[0])
			if err != nil {
				return err
			}
			return a.showDetails(cmd, v, v.ToggleTask(cmd.Context(), t))
		},
	}, projectRoute)
}

func newTasksUpdateCmd(a *App) *cobra.Command {
	var (
		title, description, deadline string
		clearDeadline                bool
	)
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.detailsView(cmd)
			if err != nil {
				return err
			}
			t, err := a.loadedTask(v, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				t.Title = title
			}
			if cmd.Flags().Changed("description") {
				t.Description = description
			}
			switch {
			case clearDeadline:
				t.Deadline = nil
			case cmd.Flags().Changed("deadline"):
				if t.Deadline, err = domain.ParseDate(deadline); err != nil {
					return err
				}
			}
			return a.showDetails(cmd, v, v.UpdateTask(cmd.Context(), t))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline as YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	return withRoute(cmd, projectRoute)
}

func newTasksDeleteCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.detailsView(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("task id", args[0])
			if err != nil {
				return err
			}
			return a.showDetails(cmd, v, v.DeleteTask(cmd.Context(), id))
		},
	}, projectRoute)
}
