package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"tracker-client/internal/app"
	"tracker-client/internal/config"
	"tracker-client/internal/domain"
	"tracker-client/internal/gate"

	"github.com/spf13/cobra"
)

// routeAnnotation names the view path a command renders. The gate decides
// whether the command may run for the restored session.
const routeAnnotation = "route"

// projectRoute is substituted with the --project flag value.
const projectRoute = gate.ProjectsPath + "/{project}"

type App struct {
	Verbose bool
	Project int64

	loadConfig func() (config.Config, error)

	core    *app.App
	session domain.Session
	watcher *gate.Watcher
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &App{loadConfig: config.Load}, args, stdout, stderr)
}

func execute(ctx context.Context, a *App, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	var shown renderedError
	if !errors.As(err, &shown) {
		writeErr(stderr, domain.UserMessage(err, err.Error()))
	}
	return 1
}

func newRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Project and task tracker client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in and list your projects
  tracker login alice --password secret
  tracker projects list

  # Work on one project
  tracker tasks create --project 3 --title "Write docs" --deadline 2026-11-01
  tracker tasks toggle 12 --project 3
  tracker progress --project 3
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.enter(cmd)
	}

	cmd.PersistentFlags().BoolVarP(&a.Verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newProjectsCmd(a))
	cmd.AddCommand(newTasksCmd(a))
	cmd.AddCommand(newProgressCmd(a))

	return cmd
}

// enter wires the application, restores the session and applies the gate to
// the command's route.
func (a *App) enter(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if a.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx := cmd.Context()
	core, err := app.New(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.core = core
	a.session = core.Sessions.Restore(ctx)

	path, err := a.route(cmd)
	if err != nil {
		return err
	}
	if d := gate.Navigate(a.session, path); !d.Allow {
		return refusal(a.session, path, d)
	}

	errOut := cmd.ErrOrStderr()
	a.watcher = gate.Watch(core.Sessions, path, func(from string, d gate.Decision) {
		if !d.Allow && !core.Sessions.Current().Authenticated() {
			writeNotice(errOut, fmt.Sprintf("session ended; %s now redirects to %s", from, d.Redirect))
		}
	})
	return nil
}

func (a *App) route(cmd *cobra.Command) (string, error) {
	path, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return gate.HomePath, nil
	}
	if path == projectRoute {
		if a.Project <= 0 {
			return "", errors.New("--project must be a positive id")
		}
		path = gate.ProjectPath(a.Project)
	}
	return path, nil
}

func refusal(s domain.Session, path string, d gate.Decision) error {
	switch d.Redirect {
	case gate.AuthPath:
		return errors.New("not signed in: run `tracker login` first")
	case gate.ProjectsPath:
		return fmt.Errorf("already signed in as %s: run `tracker logout` first", s.DisplayName)
	}
	return fmt.Errorf("%s is not available", path)
}

// checkAuth signs the user out when the gateway rejected the session token.
func (a *App) checkAuth(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, domain.ErrAuth) || !a.session.Authenticated() {
		return err
	}
	if lerr := a.core.Sessions.Logout(ctx); lerr != nil {
		a.core.Log.Error("logout after rejected token failed", slog.String("error", lerr.Error()))
	}
	return err
}

func (a *App) close() {
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	if a.core != nil {
		if err := a.core.Close(); err != nil {
			a.core.Log.Warn("close session store", slog.String("error", err.Error()))
		}
		a.core = nil
	}
}

func withRoute(cmd *cobra.Command, path string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = path
	return cmd
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive id, got %q", what, s)
	}
	return id, nil
}

// renderedError is a failure whose message already reached the user.
type renderedError struct{ error }

func (e renderedError) Unwrap() error { return e.error }
