package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/outreach/internal/api/middleware"
	"github.com/Harshitk-cp/outreach/internal/config"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if config.DatabaseURL() == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := store.Open(ctx, config.DatabaseURL())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newCreateUserCommand() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user and print its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if config.DatabaseURL() == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := store.Open(ctx, config.DatabaseURL())
			if err != nil {
				return err
			}
			defer pool.Close()

			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				return fmt.Errorf("generate API key: %w", err)
			}
			apiKey := "ok_" + hex.EncodeToString(b)

			u := &domain.User{
				Email:      strings.ToLower(strings.TrimSpace(email)),
				Name:       name,
				APIKeyHash: middleware.HashAPIKey(apiKey),
			}
			if err := store.NewUserStore(pool).Create(ctx, u); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("user %s already exists", u.Email)
				}
				return fmt.Errorf("create user: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user id: %s\n", u.ID)
			fmt.Fprintf(out, "api key: %s\n", apiKey)
			fmt.Fprintln(out, "store the key now; it cannot be shown again")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the new user")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
