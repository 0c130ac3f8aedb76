package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsJSONInput(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{"json object", []byte(`{"title":"a"}`), true},
		{"json array", []byte(`[{"title":"a"}]`), true},
		{"json with whitespace", []byte(`  {"title":"a"}`), true},
		{"markdown", []byte(`# Hello World`), false},
		{"plain text", []byte(`hello world`), false},
		{"empty", []byte(``), false},
		{"only whitespace", []byte(`   `), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isJSONInput(tt.input))
		})
	}
}

func TestBuildPutRequest(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		input     string
		id        string
		title     string
		want      PutDocumentRequest
		wantError string
	}{
		{
			name:  "markdown heading",
			file:  "notes/standup.md",
			input: "# Standup\n\nship it",
			want:  PutDocumentRequest{Title: "Standup", Body: "ship it"},
		},
		{
			name:  "file name fallback",
			file:  "notes/groceries.txt",
			input: "milk\neggs",
			want:  PutDocumentRequest{Title: "groceries", Body: "milk\neggs"},
		},
		{
			name:  "flags override",
			file:  "a.md",
			input: "# Old\n\nbody",
			id:    "doc-1",
			title: "New",
			want:  PutDocumentRequest{ID: "doc-1", Title: "New", Body: "body"},
		},
		{
			name:  "json",
			input: `{"title":"T","body":"B"}`,
			want:  PutDocumentRequest{Title: "T", Body: "B"},
		},
		{
			name:      "json missing body",
			input:     `{"title":"T"}`,
			wantError: "body is required",
		},
		{
			name:      "bad json",
			input:     `{"title":`,
			wantError: "failed to parse JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPutRequest(tt.file, []byte(tt.input), tt.id, tt.title)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakeNotesAPI serves the subset of the notes API the CLI talks to.
func fakeNotesAPI(t *testing.T) (*APIClient, *[]PutDocumentRequest) {
	t.Helper()

	var puts []PutDocumentRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var req PutDocumentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			puts = append(puts, req)
			if req.Title == "reject" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"rejected"}`))
				return
			}
			id := req.ID
			if id == "" {
				id = "new-" + req.Title
			}
			_, _ = w.Write([]byte(`{"data":{"id":"` + id + `","title":"` + req.Title + `"}}`))
		case http.MethodGet:
			assert.Equal(t, "standup", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`{"data":{"items":[{"id":"d1","title":"Standup","updated_at":"2026-01-02T00:00:00Z"}],"total":3,"limit":1,"offset":0,"next_cursor":"abc"}}`))
		}
	})
	mux.HandleFunc("/documents/d1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data":{"id":"d1","title":"Standup","body":"ship it"}}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/documents/d1/chunks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"document_id":"d1","chunks":[{"index":0,"content":"ship it"}]}}`))
	})
	mux.HandleFunc("/documents/d1/index", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if r.URL.Query().Get("async") == "true" {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"data":{"document_id":"d1","job_id":"j1","status":"pending"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"document_id":"d1","chunks":4,"status":"completed"}}`))
	})
	mux.HandleFunc("/documents/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"document not found"}`))
	})
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.DocumentID == "d1" {
			_, _ = w.Write([]byte(`{"data":{"document_id":"d1","title":"Standup","answer":"ship it","outcome":"timed_out","error":"deadline exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"document_id":"d1","title":"Standup","answer":"Friday.","outcome":"success"}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	api, err := NewAPIClientWithURL(server.URL)
	require.NoError(t, err)
	return api, &puts
}

func TestRunAdd(t *testing.T) {
	api, puts := fakeNotesAPI(t)

	var out bytes.Buffer
	require.NoError(t, runAdd(&out, api, PutDocumentRequest{Title: "Standup", Body: "ship it"}, false))
	assert.Contains(t, out.String(), "Created document: new-Standup")

	out.Reset()
	require.NoError(t, runAdd(&out, api, PutDocumentRequest{ID: "d1", Title: "Standup", Body: "ship it"}, true))
	var doc Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "d1", doc.ID)

	assert.Len(t, *puts, 2)
}

func TestRunBatchAdd(t *testing.T) {
	api, puts := fakeNotesAPI(t)

	input := `[{"title":"A","body":"a"},{"title":"","body":"x"},{"title":"reject","body":"r"},{"id":"d1","title":"B","body":"b"}]`

	var out bytes.Buffer
	err := runBatchAdd(&out, api, []byte(input), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 failures")

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)
	assert.Equal(t, "created", resp.Results[0].Status)
	assert.Equal(t, "title is required", resp.Results[1].Error)
	assert.Contains(t, resp.Results[2].Error, "rejected")
	assert.Equal(t, "updated", resp.Results[3].Status)

	// the blank title never reaches the server
	assert.Len(t, *puts, 3)
}

func TestRunBatchAdd_Limits(t *testing.T) {
	api, _ := fakeNotesAPI(t)

	err := runBatchAdd(&bytes.Buffer{}, api, []byte(`[]`), false)
	assert.EqualError(t, err, "empty batch: no items provided")

	items := make([]string, maxBatchSize+1)
	for i := range items {
		items[i] = `{"title":"t","body":"b"}`
	}
	err = runBatchAdd(&bytes.Buffer{}, api, []byte("["+strings.Join(items, ",")+"]"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestAddCmd_Stdin(t *testing.T) {
	withConfigPath(t)
	api, puts := fakeNotesAPI(t)

	cmd := AddCmd()
	cmd.Flags().Bool("output", false, "")
	cmd.Flags().String("api-url", "", "")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("# Standup\n\nship it\n"))
	cmd.SetArgs([]string{"--api-url", api.baseURL})

	require.NoError(t, cmd.Execute())
	require.Len(t, *puts, 1)
	assert.Equal(t, "Standup", (*puts)[0].Title)
	assert.Equal(t, "ship it", (*puts)[0].Body)
}
