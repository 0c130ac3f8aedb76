package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ListResponse represents the list documents API response.
type ListResponse struct {
	Items      []Document `json:"items"`
	Total      int        `json:"total"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		search string
		limit  int
		offset int
		cursor string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List documents",
		Long:    "Lists document titles, newest first, optionally filtered by a title search.",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runList(cmd.OutOrStdout(), api, listPath(search, limit, offset, cursor), outputJSON)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by title substring")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func listPath(search string, limit, offset int, cursor string) string {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	} else if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return "/documents"
	}
	return "/documents?" + q.Encode()
}

func runList(out io.Writer, api *APIClient, path string, outputJSON bool) error {
	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d of %d documents:\n\n", len(listResp.Items), listResp.Total)
	for i, item := range listResp.Items {
		fmt.Fprintf(out, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(out, "   Updated: %s\n", item.UpdatedAt)
		fmt.Fprintf(out, "   ID: %s\n", item.ID)
		if i < len(listResp.Items)-1 {
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}
	}

	if listResp.NextCursor != "" {
		fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 40))
		fmt.Fprintf(out, "More results may be available. Use --cursor %s\n", listResp.NextCursor)
	}

	return nil
}
