package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contacts-api/internal/auth"
	"gitlab.com/dirk.krummacker/contacts-api/internal/client"
	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var page, limit int
	var favorite string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts := client.ListOptions{Page: page, Limit: limit}
			if favorite != "" {
				value, err := strconv.ParseBool(favorite)
				if err != nil {
					return fmt.Errorf("invalid value %q for --favorite", favorite)
				}
				listOpts.Favorite = &value
			}
			contacts, err := opts.client().List(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return printContacts(cmd.OutOrStdout(), opts.Format, contacts)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "contacts per page")
	cmd.Flags().StringVar(&favorite, "favorite", "", "only list contacts with this favorite status (true|false)")
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contact, err := opts.client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printContact(cmd.OutOrStdout(), opts.Format, contact)
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	var input model.ContactInput
	var favorite bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("favorite") {
				input.Favorite = &favorite
			}
			contact, err := opts.client().Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printContact(cmd.OutOrStdout(), opts.Format, contact)
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "name of the contact")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	return cmd
}

// NewUpdateCommand creates the update command. Only flags that are given are sent.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	var name, email, phone string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change name, email or phone of a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.ContactPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}
			contact, err := opts.client().Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printContact(cmd.OutOrStdout(), opts.Format, contact)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	return cmd
}

// NewFavoriteCommand creates the favorite command.
func NewFavoriteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id> <true|false>",
		Short: "Set the favorite status of a contact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			favorite, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid favorite status %q", args[1])
			}
			contact, err := opts.client().SetFavorite(cmd.Context(), args[0], favorite)
			if err != nil {
				return err
			}
			return printContact(cmd.OutOrStdout(), opts.Format, contact)
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			switch opts.Format {
			case "json":
				return printJSON(cmd.OutOrStdout(), model.Message{Message: "contact deleted"})
			case "yaml":
				return printYAML(cmd.OutOrStdout(), model.Message{Message: "contact deleted"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "contact deleted")
			return nil
		},
	}
}

// NewTokenCommand creates the token command, which signs a bearer token for local testing.
func NewTokenCommand() *cobra.Command {
	var secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <owner>",
		Short: "Sign a bearer token for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.IssueToken(secret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envOr("JWT_SECRET", ""), "secret shared with the service")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "validity of the token")
	return cmd
}
