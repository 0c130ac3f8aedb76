package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/notesqa/internal/service"
	"github.com/cloo-solutions/notesqa/internal/storage"
	"github.com/spf13/cobra"
)

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import notes from S3-compatible storage",
		Long: `Create a document for every .md, .markdown and .txt object under --prefix.
A leading "# " heading becomes the title, otherwise the file name does.
Imported documents are queued for indexing.`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	cmd.Flags().String("bucket", "", "Bucket to read (default: NOTESQA_S3_BUCKET)")
	cmd.Flags().String("prefix", "", "Only import keys with this prefix")

	return cmd
}

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export notes to S3-compatible storage",
		Long:  "Write every stored document to <prefix><id>.md in the bucket.",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}

	cmd.Flags().String("bucket", "", "Bucket to write (default: NOTESQA_S3_BUCKET)")
	cmd.Flags().String("prefix", "", "Key prefix for exported notes")

	return cmd
}

func openTransfer(ctx context.Context, cmd *cobra.Command, createBucket bool) (*app, *storage.S3Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.HasS3() {
		return nil, nil, fmt.Errorf("S3 is not configured: set NOTESQA_S3_ENDPOINT, NOTESQA_S3_ACCESS_KEY_ID and NOTESQA_S3_SECRET_ACCESS_KEY")
	}

	bucket, _ := cmd.Flags().GetString("bucket")
	client, err := storage.NewS3Client(ctx, s3Config(cfg, bucket))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if createBucket {
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, client, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, client, err := openTransfer(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	prefix, _ := cmd.Flags().GetString("prefix")
	report, err := service.NewTransferService(a.documentSvc).Import(ctx, client, prefix)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Failed {
		fmt.Fprintf(out, "failed\t%s\t%v\n", f.Key, f.Err)
	}
	fmt.Fprintf(out, "imported %d, skipped %d, failed %d from s3://%s/%s\n",
		len(report.Imported), len(report.Skipped), len(report.Failed), client.Bucket(), prefix)

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d notes failed to import", len(report.Failed))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, client, err := openTransfer(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	prefix, _ := cmd.Flags().GetString("prefix")
	n, err := service.NewTransferService(a.documentSvc).Export(ctx, client, prefix)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d documents to s3://%s/%s\n", n, client.Bucket(), prefix)
	return nil
}
