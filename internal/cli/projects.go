package cli

import (
	"fmt"

	"tracker-client/internal/domain"
	"tracker-client/internal/gate"
	"tracker-client/internal/usecase"

	"github.com/spf13/cobra"
)

func newProjectsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and edit your projects",
	}
	cmd.AddCommand(newProjectsListCmd(a))
	cmd.AddCommand(newProjectsCreateCmd(a))
	cmd.AddCommand(newProjectsUpdateCmd(a))
	cmd.AddCommand(newProjectsDeleteCmd(a))
	return cmd
}

// projectsView activates the signed-in user's project list.
func (a *App) projectsView(cmd *cobra.Command) (*usecase.ProjectsView, error) {
	v := a.core.ProjectsView()
	if err := v.Activate(cmd.Context(), a.session.DisplayName); err != nil {
		return v, a.showProjects(cmd, v, err)
	}
	return v, nil
}

// showProjects renders the view and converts err into an already-reported failure.
func (a *App) showProjects(cmd *cobra.Command, v *usecase.ProjectsView, err error) error {
	err = a.checkAuth(cmd.Context(), err)
	renderProjects(cmd.OutOrStdout(), v.State())
	if err != nil {
		return renderedError{err}
	}
	return nil
}

func newProjectsListCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.projectsView(cmd)
			if err != nil {
				return err
			}
			return a.showProjects(cmd, v, nil)
		},
	}, gate.ProjectsPath)
}

func newProjectsCreateCmd(a *App) *cobra.Command {
	var draft domain.ProjectDraft
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.projectsView(cmd)
			if err != nil {
				return err
			}
			return a.showProjects(cmd, v, v.Create(cmd.Context(), draft))
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "Project title (required)")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Project description")
	return withRoute(cmd, gate.ProjectsPath)
}

func newProjectsUpdateCmd(a *App) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Change a project's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			v, err := a.projectsView(cmd)
			if err != nil {
				return err
			}
			p, ok := findProject(v.State(), id)
			if !ok {
				return fmt.Errorf("project %d not found", id)
			}
			if cmd.Flags().Changed("title") {
				p.Title = title
			}
			if cmd.Flags().Changed("description") {
				p.Description = description
			}
			return a.showProjects(cmd, v, v.Update(cmd.Context(), p))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return withRoute(cmd, gate.ProjectsPath)
}

func newProjectsDeleteCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			v, err := a.projectsView(cmd)
			if err != nil {
				return err
			}
			return a.showProjects(cmd, v, v.Delete(cmd.Context(), id))
		},
	}, gate.ProjectsPath)
}

func findProject(st usecase.ProjectsState, id int64) (domain.Project, bool) {
	for _, p := range st.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}
