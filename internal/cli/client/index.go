package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
)

// IndexResult represents the index API response.
type IndexResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks,omitempty"`
	JobID      string `json:"job_id,omitempty"`
	Status     string `json:"status"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "index <document_id>",
		Short: "Chunk and embed a document",
		Long:  "Re-chunk and re-embed a document now, or queue it for the background worker with --async.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runIndex(cmd.OutOrStdout(), api, args[0], async, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Queue an index job instead of waiting")

	return cmd
}

func runIndex(out io.Writer, api *APIClient, id string, async, outputJSON bool) error {
	path := "/documents/" + url.PathEscape(id) + "/index"
	if async {
		path += "?async=true"
	}

	resp, err := api.Post(path, nil)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	var result IndexResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if result.JobID != "" {
		fmt.Fprintf(out, "Queued job %s for %s (%s)\n", result.JobID, result.DocumentID, result.Status)
		return nil
	}
	fmt.Fprintf(out, "Indexed %s: %d chunks\n", result.DocumentID, result.Chunks)
	return nil
}
