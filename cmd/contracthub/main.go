package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "contracthub",
		Short: "Catálogo de opções e contratos de eventos",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "arquivo .env opcional")

	rootCmd.AddCommand(
		serveCmd(&envFile),
		migrateCmd(&envFile),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
