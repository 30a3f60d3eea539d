package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
	"cafedesk/internal/session"
	"cafedesk/internal/views"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cafectl",
		Short:         "Manage the café's menu, bookings and messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		statusCmd(a),
		dashboardCmd(a),
		menuCmd(a),
		reservationsCmd(a),
		availabilityCmd(a),
		reserveCmd(a),
		messagesCmd(a),
		contactCmd(a),
	)
	return root
}

// run executes one command line and prints its error the way main does.
func run(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loginCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as the administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A rejected password is not an expired session.
			a.nav.at(nav.LoginPath)
			pw, err := a.readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			form := &views.LoginForm{Auth: a.api.Auth, Session: a.store, Nav: a.nav}
			if err := form.Submit(ctxOf(cmd), domain.Credentials{Username: username, Password: pw}); err != nil {
				return a.failure(err, "Invalid username or password.")
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "administrator username")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.store.Logout()
			applog.Audit(ctxOf(cmd), "auth.logout", nil)
			if err != nil {
				applog.Error(ctxOf(cmd), "auth.logout.storage.fail", err, nil)
				return fmt.Errorf("signed out, but the stored session could not be removed: %w", err)
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.store.State()
			if !st.IsAuthenticated {
				fmt.Fprintln(a.out, "Signed out")
				return nil
			}
			cl, err := session.Inspect(st.Token)
			if err != nil {
				fmt.Fprintln(a.out, "Signed in")
				return nil
			}
			line := "Signed in as " + cl.Subject
			if cl.Role != "" {
				line += " (" + cl.Role + ")"
			}
			switch {
			case cl.ExpiresAt.IsZero():
			case cl.Expired(a.clock()):
				line += ", token expired " + cl.ExpiresAt.Local().Format(time.RFC1123)
			default:
				line += ", expires " + cl.ExpiresAt.Local().Format(time.RFC1123)
			}
			fmt.Fprintln(a.out, line)
			return nil
		},
	}
}

func dashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Count menu items, reservations and messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			st, err := views.LoadStats(ctxOf(cmd), a.api.Menu, a.api.Reservations, a.api.Contact)
			if err != nil {
				return a.failure(err, "Failed to load dashboard statistics.")
			}
			fmt.Fprintf(a.out, "%-14s %d\n", "Menu items", st.MenuItems)
			fmt.Fprintf(a.out, "%-14s %d\n", "Reservations", st.Reservations)
			fmt.Fprintf(a.out, "%-14s %d\n", "Messages", st.Messages)
			return nil
		},
	}
}
