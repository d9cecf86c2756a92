package main

import (
	"errors"
	"fmt"
	"time"

	"creator-payments/internal/config"
	"creator-payments/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign an API token with AUTH_JWT_SECRET for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is not set")
			}

			now := time.Now()
			tok, err := middleware.SignToken(cfg.Auth.JWTSecret, middleware.Claims{
				Role: role,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   args[0],
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				},
			})
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", middleware.RoleFan, "Role claim (fan, creator, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}
