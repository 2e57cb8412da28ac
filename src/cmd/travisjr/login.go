package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"travisjr/src/session"
)

var errSettingsUnavailable = errors.New("account settings are unavailable while --user is set")

func newLoginCmd(a *app) *cobra.Command {
	var linked bool

	cmd := &cobra.Command{
		Use:   "login [USERNAME]",
		Short: "Remember the GitHub username travisjr acts as",
		Long: `Store the GitHub username used when no --user is given.

Without a USERNAME, or with --linked, the account the GitHub CLI is logged
in with is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.pipeline(ctx, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			if !p.Session.SettingsAvailable(ctx) {
				return errSettingsUnavailable
			}

			var username string
			if len(args) == 1 && !linked {
				username = args[0]
			} else {
				if username, err = p.Session.QueryLinkedAccount(ctx); err != nil {
					return err
				}
			}

			if err := p.Session.SetGitHubUsername(ctx, username); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().BoolVar(&linked, "linked", false, "use the GitHub CLI account")

	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the GitHub username travisjr acts as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.pipeline(ctx, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			user, err := p.Session.CurrentUser(ctx)
			if err != nil {
				return err
			}

			note := ""
			switch {
			case !p.Session.SettingsAvailable(ctx):
				note = " (this invocation only)"
			case user.LinkedAccount != "":
				note = " (GitHub CLI account)"
			}
			fmt.Fprintf(a.out, "%s%s\n", user.Username, note)

			if _, ok := session.TransientUser(ctx); !ok && user.LinkedAccount == "" {
				if linked, err := p.Session.QueryLinkedAccount(ctx); err == nil && linked != user.Username {
					fmt.Fprintf(a.out, "GitHub CLI is logged in as %s; run 'travisjr login --linked' to switch.\n", linked)
				}
			}
			return nil
		},
	}
}
