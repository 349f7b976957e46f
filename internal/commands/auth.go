package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/bibkit/bibkit/pkg/secrets"
)

// newAuthCmd manages the API key in the OS keyring. These subcommands run
// without configuration resolution: they need no scope and no client.
func newAuthCmd() *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored API key",
	}

	var key string
	login := &cobra.Command{
		Use:   "login",
		Short: "Store an API key in the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if err := keyring.Set(keyringService, keyringUser, key); err != nil {
				return fmt.Errorf("failed to store key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored")
			return nil
		},
	}
	login.Flags().StringVar(&key, "key", "", "API key to store")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keyring.Delete(keyringService, keyringUser); err != nil {
				return fmt.Errorf("failed to remove key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := keyring.Get(keyringService, keyringUser)
			if err != nil || stored == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no API key stored")
				return nil
			}
			preview := stored
			if len(preview) > 4 {
				preview = preview[:4]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key stored (%s%s)\n", preview, secrets.Mask)
			return nil
		},
	}

	auth.AddCommand(login, logout, status)
	return auth
}
