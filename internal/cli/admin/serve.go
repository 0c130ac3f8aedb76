package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/notesqa/internal/api/handlers"
	"github.com/cloo-solutions/notesqa/internal/jobs"
	"github.com/cloo-solutions/notesqa/internal/server"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the notesqa API server and the background index worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background index worker")
	cmd.Flags().String("migrations", defaultMigrationsDir, "Directory holding SQL migrations")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		dir, _ := cmd.Flags().GetString("migrations")
		if err := runMigrations(cfg.DatabaseURL, dir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var indexWorker *jobs.Worker
	if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
		processor := jobs.NewIndexWorker(a.indexJobs, a.indexer)
		indexWorker = jobs.NewWorker(processor, cfg.IndexPollInterval)
		go indexWorker.Start(workerCtx)
	}

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(a.documentSvc, a.indexer, a.chunks),
		AskHandler:      handlers.NewAskHandler(a.qa),
		HealthCheck:     a.pool.Ping,
	})

	// WriteTimeout must outlast answer generation, which has its own deadline
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.synthesizer.Timeout() + 30*time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if indexWorker != nil {
		indexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
