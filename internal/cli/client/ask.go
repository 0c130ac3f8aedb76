package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id,omitempty"`
}

// Answer represents the ask API response.
type Answer struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Answer     string `json:"answer"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question about your notes",
		Long: `Find the note most similar to the question and answer from it.

When answer generation fails or times out, an excerpt of the note is shown instead.

Examples:
  notesqa ask "when is the dentist appointment?"
  notesqa ask --document <id> "what did we decide?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAsk(cmd.OutOrStdout(), api, AskRequest{Question: question, DocumentID: documentID}, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "Answer from this document instead of searching")

	return cmd
}

func runAsk(out io.Writer, api *APIClient, req AskRequest, outputJSON bool) error {
	resp, err := api.Post("/ask", req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var answer Answer
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Source: %s (%s)\n\n", answer.Title, answer.DocumentID)
	fmt.Fprintln(out, answer.Answer)
	if answer.Outcome != "success" {
		fmt.Fprintf(out, "\n[%s] showing an excerpt: %s\n", answer.Outcome, answer.Error)
	}
	return nil
}
