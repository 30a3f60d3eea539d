package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cafedesk/internal/domain"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

func messagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read and answer contact messages",
	}
	cmd.AddCommand(messagesListCmd(a), messagesDeleteCmd(a), messagesReplyCmd(a))
	return cmd
}

func messagesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contact messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			in := views.NewInbox(a.api.Contact)
			defer in.Close()
			if err := in.Load(ctxOf(cmd)); err != nil {
				return a.failure(err, "Failed to load messages.")
			}
			items := in.Items()
			if len(items) == 0 {
				fmt.Fprintln(a.out, "No messages")
				return nil
			}
			fmt.Fprintf(a.out, "%-26s %-20s %-28s %s\n", "ID", "From", "Email", "Message")
			fmt.Fprintln(a.out, strings.Repeat("-", 100))
			for _, m := range items {
				fmt.Fprintf(a.out, "%-26s %-20s %-28s %s\n",
					truncateString(m.ID, 26), truncateString(m.Name, 20), truncateString(m.Email, 28), truncateString(m.Message, 40))
			}
			return nil
		},
	}
}

func messagesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a contact message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, ok := validate.ID(args[0])
			if !ok {
				return errors.New("invalid id")
			}
			in := views.NewInbox(a.api.Contact)
			defer in.Close()
			if err := in.Delete(ctxOf(cmd), id); err != nil {
				return a.failure(err, "Failed to delete message.")
			}
			a.saved(in.Status(), "Deleted %s", id)
			return nil
		},
	}
}

func messagesReplyCmd(a *app) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "reply <id>",
		Short: "Email a reply to the sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, ok := validate.ID(args[0])
			if !ok {
				return errors.New("invalid id")
			}
			in := views.NewInbox(a.api.Contact)
			defer in.Close()
			if err := in.Reply(ctxOf(cmd), id, strings.TrimSpace(body)); err != nil {
				return a.failure(err, "Failed to send reply.")
			}
			fmt.Fprintln(a.out, "Reply sent")
			return nil
		},
	}
	cmd.Flags().StringVarP(&body, "message", "m", "", "reply text")
	return cmd
}

func contactCmd(a *app) *cobra.Command {
	var in domain.ContactInput
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send the café a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.TrimSpace(in.Name)
			in.Email = strings.TrimSpace(in.Email)
			in.Message = strings.TrimSpace(in.Message)
			if err := views.NewContactForm(a.api.Contact).Submit(ctxOf(cmd), in); err != nil {
				return a.failure(err, "Failed to send your message.")
			}
			fmt.Fprintln(a.out, "Thank you! Your message has been sent.")
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "your name")
	cmd.Flags().StringVar(&in.Email, "email", "", "your email")
	cmd.Flags().StringVarP(&in.Message, "message", "m", "", "message text")
	return cmd
}
