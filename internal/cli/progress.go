package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
)

func newProgressCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show completion counters for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			an := a.core.Gateway.Analytics()
			snap, err := an.Progress(ctx, a.Project)
			if err != nil {
				return a.checkAuth(ctx, err)
			}
			total, err := an.TotalTasks(ctx, a.Project)
			if err != nil {
				return a.checkAuth(ctx, err)
			}
			done, err := an.CompletedTasks(ctx, a.Project)
			if err != nil {
				return a.checkAuth(ctx, err)
			}
			out := cmd.OutOrStdout()
			writeOut(out, headerStyle.Render(fmt.Sprintf("Project %d", a.Project)))
			writeOut(out, progressBar(int(math.Round(snap.PercentageProgression))))
			writeOut(out, fmt.Sprintf("%d of %d tasks completed", done, total))
			return nil
		},
	}
	cmd.Flags().Int64Var(&a.Project, "project", 0, "Project id (required)")
	return withRoute(cmd, projectRoute)
}
