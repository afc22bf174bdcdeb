package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/dashboard"
)

const minSecretBytes = 32

func newCreateAdminCmd(e *env) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			admins, release, err := e.admins(cmd.Context())
			if err != nil {
				return codeError(3, "open database: %s", err)
			}
			defer release()

			user, created, err := admins.EnsureAdmin(cmd.Context(), domain.UserRegistrationParams{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				var verrs *apperrors.ValidationErrors
				if errors.As(err, &verrs) {
					return codeError(2, "invalid admin: %s", verrs.Error())
				}
				return err
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s to admin; password unchanged\n", user.Email)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Admin email address")
	f.StringVar(&password, "password", "", "Password for a newly created admin")
	f.StringVar(&name, "name", "Administrator", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCheckAdminCmd(e *env) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "check-admin",
		Short: "Report whether an account exists and holds the admin role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			admins, release, err := e.admins(cmd.Context())
			if err != nil {
				return codeError(3, "open database: %s", err)
			}
			defer release()

			user, err := admins.GetByEmail(cmd.Context(), email)
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return codeError(2, "no account for %s", email)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "email:  %s\n", user.Email)
			fmt.Fprintf(out, "role:   %s\n", user.Role)
			fmt.Fprintf(out, "active: %t\n", user.IsActive)
			if !user.IsAdmin() {
				return codeError(2, "%s is not an active admin", user.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUpdateAdminPasswordCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "update-admin-password",
		Short: "Set a new password on an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			admins, release, err := e.admins(cmd.Context())
			if err != nil {
				return codeError(3, "open database: %s", err)
			}
			defer release()

			err = admins.ResetPassword(cmd.Context(), email, password)
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				return codeError(2, "no account for %s", email)
			case errors.Is(err, apperrors.ErrForbidden):
				return codeError(2, "%s is not an admin", email)
			case errors.Is(err, apperrors.ErrPasswordTooWeak):
				return codeError(2, "password rejected: %s", err)
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Admin email address")
	f.StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newGenerateSecretCmd(_ *env) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "generate-jwt-secret",
		Short: "Print a random hex secret suitable for JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < minSecretBytes {
				return codeError(2, "--bytes must be at least %d", minSecretBytes)
			}
			buf := make([]byte, size)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 64, "Number of random bytes")
	return cmd
}

func newWatchCmd(e *env) *cobra.Command {
	var (
		opts       dashboard.Options
		maxRetries int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live order notifications like the admin dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Token == "" {
				opts.Token = os.Getenv("FOODCTL_TOKEN")
			}
			if opts.Token == "" {
				return codeError(2, "--token or FOODCTL_TOKEN is required")
			}

			out := cmd.OutOrStdout()
			opts.Logger = e.logger
			opts.MaxReconnectAttempts = maxRetries
			opts.OnStatus = func(s domain.ConnectionStatus) {
				fmt.Fprintf(out, "connected as %s (%d dashboards online)\n", s.ClientID, s.ClientsCount)
			}
			opts.OnOrderUpdate = func(u domain.OrderUpdate) {
				fmt.Fprintf(out, "%s  %-14s %-10s %s  %.2f\n",
					u.Order.EventTime, u.Event, u.Order.Status, u.Order.OrderNumber, u.Order.TotalAmount)
			}

			client := dashboard.NewClient(opts)
			wasConnected := false
			unsubscribe := client.OnConnectionChange(func(connected bool) {
				if wasConnected && !connected {
					fmt.Fprintln(out, "disconnected")
				}
				wasConnected = connected
			})
			defer unsubscribe()

			if err := client.Connect(cmd.Context()); err != nil {
				return codeError(2, "%s", err)
			}

			// The loop ends on cancellation or once reconnects are exhausted.
			<-client.Done()
			if cmd.Context().Err() != nil {
				return nil
			}
			return codeError(4, "gave up connecting to %s", opts.URL)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.URL, "url", "ws://localhost:7000/ws", "Notification socket URL")
	f.StringVar(&opts.Token, "token", "", "Admin JWT (defaults to FOODCTL_TOKEN)")
	f.StringVar(&opts.ClientID, "client-id", "", "Client id announced on identify")
	f.IntVar(&maxRetries, "max-retries", 5, "Reconnect attempts before giving up")
	f.DurationVar(&opts.PingInterval, "ping-interval", 30*time.Second, "Liveness ping interval")
	f.DurationVar(&opts.BaseBackoff, "backoff", time.Second, "Initial reconnect delay")
	f.DurationVar(&opts.MaxBackoff, "max-backoff", 30*time.Second, "Reconnect delay cap")
	return cmd
}
