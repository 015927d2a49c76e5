package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a back-office admin account",
	Long: `Creates an admin user in the configured database. The password may be
given with --password or the ADMIN_PASSWORD environment variable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		password, err := adminPasswordFlag()
		if err != nil {
			return err
		}

		db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		u, err := services.NewAuthService(db, cfg.AdminSessionTTL).CreateAdmin(cmd.Context(), adminEmail, password, adminName)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		if !cfg.Chat.IsAdminEmail(u.Email) {
			log.Warn().Str("email", u.Email).Msg("address is not in ADMIN_EMAILS; it may still open visitor chats")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", u.Email, u.ID)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for an existing admin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		password, err := adminPasswordFlag()
		if err != nil {
			return err
		}
		db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		u, err := services.NewAuthService(db, cfg.AdminSessionTTL).ResetPassword(cmd.Context(), adminEmail, password)
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("no admin with email %s", adminEmail)
		}
		if err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", u.Email)
		return nil
	},
}

func adminPasswordFlag() (string, error) {
	if adminPassword == "" {
		adminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		return "", errors.New("a password is required (--password or ADMIN_PASSWORD)")
	}
	return adminPassword, nil
}

func init() {
	resetPasswordCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	resetPasswordCmd.Flags().StringVar(&adminPassword, "password", "", "new password")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(resetPasswordCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(createAdminCmd)
}
