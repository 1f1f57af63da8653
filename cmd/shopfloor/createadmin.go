package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
)

var (
	adminUsername string
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  `Create an admin account so the REST API can be bootstrapped. The password is read from the --password flag or the ADMIN_PASSWORD environment variable.`,
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "Login username")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (falls back to ADMIN_PASSWORD)")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewAppConfig()
	if err != nil {
		return err
	}

	password := adminPassword
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}
	passwordHash, err := passwordConfig.HashPassword(password)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := database.CreateUser(ctx, db.UserInput{
		Username: adminUsername,
		Name:     adminName,
		Email:    adminEmail,
		Role:     db.RoleAdmin,
	}, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Admin %s created (%s)\n", user.Username, user.ID)
	return nil
}
