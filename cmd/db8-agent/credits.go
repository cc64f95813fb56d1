package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/db8labs/db8-agent/internal/store"
)

func newCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and manage account plans and credits",
	}

	cmd.AddCommand(creditsSubcommand("show", "Print the account plan and credits",
		func(*cobra.Command) {},
		func(ctx context.Context, us *store.UserStore, u *store.User) (*store.User, error) {
			return u, nil
		}))

	var amount int
	cmd.AddCommand(creditsSubcommand("add", "Add credits (a negative amount removes them, never below zero)",
		func(c *cobra.Command) {
			c.Flags().IntVar(&amount, "amount", 0, "credits to add")
			_ = c.MarkFlagRequired("amount")
		},
		func(ctx context.Context, us *store.UserStore, u *store.User) (*store.User, error) {
			return us.AddCredits(ctx, u.ID, amount)
		}))

	var plan string
	cmd.AddCommand(creditsSubcommand("plan", "Change the account plan",
		func(c *cobra.Command) {
			c.Flags().StringVar(&plan, "plan", "", "credits or pro")
			_ = c.MarkFlagRequired("plan")
		},
		func(ctx context.Context, us *store.UserStore, u *store.User) (*store.User, error) {
			return us.SetPlan(ctx, u.ID, plan)
		}))

	return cmd
}

type creditsAction func(ctx context.Context, us *store.UserStore, u *store.User) (*store.User, error)

// creditsSubcommand resolves the account named by --email (admin_email by
// default), runs action on it and prints the result.
func creditsSubcommand(use, short string, flags func(*cobra.Command), action creditsAction) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if email == "" {
				email = cfg.AdminEmail
			}
			us := store.NewUserStore(database)
			u, err := us.GetOrCreate(cmd.Context(), email, cfg.DefaultCredits)
			if err != nil {
				return err
			}
			if u, err = action(cmd.Context(), us, u); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\tplan=%s\tcredits=%d\n", u.Email, u.Plan, u.CreditsRemaining)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to admin_email)")
	flags(cmd)
	return cmd
}
