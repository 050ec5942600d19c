// Package cli implements the command line client of the contacts service.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contacts-api/internal/client"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL    string
	Token  string
	Format string // "text" | "json" | "yaml"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

func (o *RootOptions) client() *client.Client {
	return client.New(o.URL, o.Token, nil)
}

// NewRootCommand creates the root command of the contacts client.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Client for the contacts service",
		Long: `Manage the contacts of the contacts service from the command line.

The service URL and the bearer token can also be set with the CONTACTS_URL
and CONTACTS_TOKEN environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", envOr("CONTACTS_URL", "http://localhost:8080"), "base URL of the contacts service")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("CONTACTS_TOKEN"), "bearer token")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewFavoriteCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewTokenCommand())
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}

func envOr(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
