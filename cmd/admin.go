package cmd

import (
	"fmt"

	"github.com/nemopss/budgetly/account"
	"github.com/nemopss/budgetly/session"
	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, email, password string

	c := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			accounts := account.NewService(st, session.NewManager(cfg.JWTSecret, cfg.SessionTTL, logger), nil, logger)
			u, err := accounts.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", u.Email, u.ID)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "Administrator", "full name")
	c.Flags().StringVar(&email, "email", "", "sign-in email")
	c.Flags().StringVar(&password, "password", "", "sign-in password")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
