package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"tracker-client/internal/gate"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			writeOut(out, headerStyle.Render("tracker"))
			writeOut(out, "gateway: "+a.core.Config.Gateway.BaseURL)
			if a.session.Authenticated() {
				writeOut(out, "signed in as "+a.session.DisplayName)
			} else {
				writeOut(out, mutedStyle.Render("not signed in"))
			}
			return nil
		},
	}, gate.HomePath)
}

func newLoginCmd(a *App) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authenticate(cmd, args[0], password, a.core.SignIn.Login)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default: $TRACKER_PASSWORD)")
	return withRoute(cmd, gate.AuthPath)
}

func newRegisterCmd(a *App) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authenticate(cmd, args[0], password, a.core.SignIn.Register)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default: $TRACKER_PASSWORD)")
	return withRoute(cmd, gate.AuthPath)
}

func (a *App) authenticate(cmd *cobra.Command, username, password string, fn func(ctx context.Context, username, password string) error) error {
	username = strings.TrimSpace(username)
	if password == "" {
		password = os.Getenv("TRACKER_PASSWORD")
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	if err := fn(cmd.Context(), username, password); err != nil {
		return err
	}
	writeOut(cmd.OutOrStdout(), fmt.Sprintf("signed in as %s", username))
	return nil
}

func newLogoutCmd(a *App) *cobra.Command {
	return withRoute(&cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.core.Sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			writeOut(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}, gate.HomePath)
}
