package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/notesqa/internal/service"
	"github.com/spf13/cobra"
)

// Document represents a document from the API.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// PutDocumentRequest represents the create/update document API request.
type PutDocumentRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// BatchResult represents a single result in a batch operation.
type BatchResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Title  string `json:"title,omitempty"`
}

// BatchResponse represents the response for a batch operation.
type BatchResponse struct {
	Results   []BatchResult `json:"results"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

const maxBatchSize = 100

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		file  string
		id    string
		title string
		batch bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a note from stdin or file",
		Long: `Add a note from markdown or JSON input (stdin or file).

A leading "# " heading becomes the title unless --title is given.

Examples:
  # Add a markdown note
  notesqa add --file meeting.md

  # Replace an existing note
  notesqa add --id 0b9c... --file meeting.md

  # Add from JSON on stdin
  echo '{"title":"Groceries","body":"milk, eggs"}' | notesqa add

  # Batch add from JSON array
  notesqa add --batch --file notes.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			input, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			if batch {
				return runBatchAdd(cmd.OutOrStdout(), api, input, outputJSON)
			}

			name := file
			if name == "" {
				name = "stdin"
			}
			req, err := buildPutRequest(name, input, id, title)
			if err != nil {
				return err
			}
			return runAdd(cmd.OutOrStdout(), api, req, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (markdown or JSON)")
	cmd.Flags().StringVar(&id, "id", "", "Update the document with this ID")
	cmd.Flags().StringVar(&title, "title", "", "Title (overrides the heading)")
	cmd.Flags().BoolVar(&batch, "batch", false, "Enable batch mode (expects JSON array input)")

	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	var (
		input []byte
		err   error
	)
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(strings.TrimSpace(string(input))) == 0 {
		return nil, fmt.Errorf("no input provided")
	}
	return input, nil
}

func buildPutRequest(name string, input []byte, id, title string) (PutDocumentRequest, error) {
	var req PutDocumentRequest

	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return req, fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		req.Title, req.Body = service.ParseNote(filepath.Base(name), string(input))
	}

	if id != "" {
		req.ID = id
	}
	if title != "" {
		req.Title = title
	}

	if strings.TrimSpace(req.Title) == "" {
		return req, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return req, fmt.Errorf("body is required")
	}
	return req, nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

func putDocument(api *APIClient, req PutDocumentRequest) (*Document, error) {
	resp, err := api.Put("/documents", req)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &doc, nil
}

func runAdd(out io.Writer, api *APIClient, req PutDocumentRequest, outputJSON bool) error {
	doc, err := putDocument(api, req)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	verb := "Created"
	if req.ID != "" {
		verb = "Updated"
	}
	fmt.Fprintf(out, "%s document: %s\n", verb, doc.ID)
	fmt.Fprintf(out, "Title: %s\n", doc.Title)
	return nil
}

func runBatchAdd(out io.Writer, api *APIClient, input []byte, outputJSON bool) error {
	var items []PutDocumentRequest
	if err := json.Unmarshal(input, &items); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w - batch mode expects a JSON array", err)
	}

	if len(items) == 0 {
		return fmt.Errorf("empty batch: no items provided")
	}
	if len(items) > maxBatchSize {
		return fmt.Errorf("batch size %d exceeds maximum of %d items", len(items), maxBatchSize)
	}

	response := BatchResponse{
		Results: make([]BatchResult, 0, len(items)),
		Total:   len(items),
	}

	for _, item := range items {
		var result BatchResult
		switch {
		case strings.TrimSpace(item.Title) == "":
			result = BatchResult{Status: "failed", Error: "title is required"}
		case strings.TrimSpace(item.Body) == "":
			result = BatchResult{Status: "failed", Error: "body is required", Title: item.Title}
		default:
			doc, err := putDocument(api, item)
			if err != nil {
				result = BatchResult{Status: "failed", Error: err.Error(), Title: item.Title}
				break
			}
			status := "created"
			if item.ID != "" {
				status = "updated"
			}
			result = BatchResult{ID: doc.ID, Status: status, Title: doc.Title}
		}

		if result.Status == "failed" {
			response.Failed++
		} else {
			response.Succeeded++
		}
		response.Results = append(response.Results, result)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(response, "", "  ")
		fmt.Fprintln(out, string(output))
	} else {
		for _, r := range response.Results {
			if r.Status == "failed" {
				fmt.Fprintf(out, "failed\t%s\t%s\n", r.Title, r.Error)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", r.Status, r.ID, r.Title)
		}
		fmt.Fprintf(out, "\nBatch complete: %d succeeded, %d failed out of %d total\n",
			response.Succeeded, response.Failed, response.Total)
	}

	if response.Failed > 0 {
		return fmt.Errorf("batch completed with %d failures", response.Failed)
	}
	return nil
}
