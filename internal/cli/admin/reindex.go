package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// ReindexCmd returns the reindex command
func ReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex [document-id...]",
		Short: "Re-chunk and re-embed documents",
		Long: `Re-chunk and re-embed the given documents synchronously, or every stored
document when no IDs are given. Use --queue to hand the work to the
background worker instead.`,
		RunE: runReindex,
	}

	cmd.Flags().Bool("queue", false, "Queue index jobs instead of indexing inline")

	return cmd
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := args
	if len(ids) == 0 {
		ids, err = a.documents.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
	}

	queue, _ := cmd.Flags().GetBool("queue")
	out := cmd.OutOrStdout()

	failed := 0
	for _, id := range ids {
		if queue {
			job, err := a.documentSvc.QueueIndex(ctx, id)
			if err != nil {
				log.Printf("reindex %s: %v", id, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "%s\tqueued\t%s\n", id, job.ID)
			continue
		}

		count, err := a.indexer.IndexDocument(ctx, id)
		if err != nil {
			log.Printf("reindex %s: %v", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\t%d chunks\n", id, count)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(ids))
	}
	return nil
}
