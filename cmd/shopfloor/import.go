package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
)

var importCmd = &cobra.Command{
	Use:   "import <seed.json>",
	Short: "Import a catalog seed file",
	Long:  `Validate a JSON seed file (phases, checklists, products with recipes, machines) and upsert its entries into the catalog. Re-running the same file is safe.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	seed, err := db.ParseSeed(raw)
	if err != nil {
		return err
	}

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

	if err := database.ApplySeed(ctx, seed); err != nil {
		return err
	}

	fmt.Printf("Imported %d phases, %d products, %d machines\n",
		len(seed.Phases), len(seed.Products), len(seed.Machines))
	return nil
}
