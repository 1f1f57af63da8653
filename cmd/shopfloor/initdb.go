package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema",
	Long:  `Create all tables and indexes if they do not exist yet. Safe to run repeatedly.`,
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewAppConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	fmt.Println("Schema initialized")
	return nil
}
