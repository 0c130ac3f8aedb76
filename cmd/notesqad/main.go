package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/notesqa/internal/cli"
	"github.com/cloo-solutions/notesqa/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notesqad",
		Short: "notesqa daemon and admin CLI",
		Long:  "notesqa daemon for running the API server, index worker, migrations and S3 import/export",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.ReindexCmd())
	rootCmd.AddCommand(admin.ImportCmd())
	rootCmd.AddCommand(admin.ExportCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
