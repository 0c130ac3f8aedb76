package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
)

// Chunk is one indexed excerpt of a document.
type Chunk struct {
	Index     int    `json:"index"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

// ChunkList is the chunks endpoint payload.
type ChunkList struct {
	DocumentID string  `json:"document_id"`
	Chunks     []Chunk `json:"chunks"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	var chunks bool

	cmd := &cobra.Command{
		Use:     "get <document_id>",
		Short:   "Get a document by ID",
		Long:    "Retrieves a document by its ID and displays the full content, or its indexed chunks with --chunks.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if chunks {
				return runGetChunks(cmd.OutOrStdout(), api, args[0], outputJSON)
			}
			return runGet(cmd.OutOrStdout(), api, args[0], outputJSON)
		},
	}

	cmd.Flags().BoolVar(&chunks, "chunks", false, "Show the indexed chunks instead of the body")

	return cmd
}

func runGet(out io.Writer, api *APIClient, id string, outputJSON bool) error {
	resp, err := api.Get("/documents/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Title: %s\n", doc.Title)
	fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt)
	fmt.Fprintf(out, "Updated: %s\n", doc.UpdatedAt)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Content ---")
	fmt.Fprintln(out, doc.Body)
	return nil
}

func runGetChunks(out io.Writer, api *APIClient, id string, outputJSON bool) error {
	resp, err := api.Get("/documents/" + url.PathEscape(id) + "/chunks")
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	var list ChunkList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse chunks: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(list.Chunks) == 0 {
		fmt.Fprintln(out, "Document is not indexed.")
		return nil
	}
	for _, c := range list.Chunks {
		fmt.Fprintf(out, "--- chunk %d ---\n%s\n", c.Index, c.Content)
	}
	return nil
}
