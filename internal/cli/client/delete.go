package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
)

func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete documents by ID",
		Long: `Delete documents and their indexed chunks.

Examples:
  notesqa delete <document_id>
  notesqa delete <id1> <id2> <id3>`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDelete(cmd.OutOrStdout(), api, args, outputJSON)
		},
	}

	return cmd
}

func runDelete(out io.Writer, api *APIClient, ids []string, outputJSON bool) error {
	response := BatchResponse{
		Results: make([]BatchResult, 0, len(ids)),
		Total:   len(ids),
	}

	for _, id := range ids {
		if _, err := api.Delete("/documents/" + url.PathEscape(id)); err != nil {
			response.Results = append(response.Results, BatchResult{ID: id, Status: "failed", Error: err.Error()})
			response.Failed++
			continue
		}
		response.Results = append(response.Results, BatchResult{ID: id, Status: "deleted"})
		response.Succeeded++
	}

	if outputJSON {
		output, _ := json.MarshalIndent(response, "", "  ")
		fmt.Fprintln(out, string(output))
	} else {
		for _, r := range response.Results {
			if r.Error != "" {
				fmt.Fprintf(out, "failed\t%s\t%s\n", r.ID, r.Error)
				continue
			}
			fmt.Fprintf(out, "Deleted document: %s\n", r.ID)
		}
	}

	if response.Failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", response.Failed, response.Total)
	}
	return nil
}
