package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/notesqa/internal/cli"
	"github.com/cloo-solutions/notesqa/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "notesqa",
		Short: "notesqa CLI - ask questions about your notes",
		Long: `notesqa stores notes and answers questions from the most similar one.

Environment variables:
  NOTESQA_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.IndexCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ConfigCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
