// Package main provides the entry point for the shop floor tracking server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shopfloor",
	Short: "Shop floor production tracking server",
	Long:  "Shopfloor tracks production batches through their phase recipes, arbitrates operator appointments and reports adherence KPIs via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
