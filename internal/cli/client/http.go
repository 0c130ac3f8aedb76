package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIURL       = "NOTESQA_API_URL"
	requestIDHeader = "X-Request-ID"

	defaultAPIURL = "http://localhost:8080"

	// Answer generation may take up to its own deadline before the server
	// falls back to an excerpt.
	defaultHTTPTimeout = 90 * time.Second
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// urlSource names where the API URL came from, for `config show`.
type urlSource string

const (
	sourceFlag    urlSource = "flag"
	sourceEnv     urlSource = "env"
	sourceConfig  urlSource = "config"
	sourceDefault urlSource = "default"
)

// resolveAPIURL picks the first URL set by --api-url, NOTESQA_API_URL (also
// read from .env), the global config file, or the built-in default.
func resolveAPIURL(cmd *cobra.Command) (string, urlSource, error) {
	_ = godotenv.Load()

	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			return flagURL, sourceFlag, nil
		}
	}
	if envURL := os.Getenv(envAPIURL); envURL != "" {
		return envURL, sourceEnv, nil
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", "", err
	}
	if cfg != nil && cfg.APIURL != "" {
		return cfg.APIURL, sourceConfig, nil
	}
	return defaultAPIURL, sourceDefault, nil
}

// NewAPIClientWithCmd builds a client for the URL resolveAPIURL picks.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	baseURL, _, err := resolveAPIURL(cmd)
	if err != nil {
		return nil, err
	}
	return NewAPIClientWithURL(baseURL)
}

// NewAPIClientWithURL creates an APIClient for an explicit base URL
func NewAPIClientWithURL(baseURL string) (*APIClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// APIResponse represents the standard API response format.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// APIError is a non-2xx reply. RequestID matches the server's access log.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Get performs a GET request.
func (c *APIClient) Get(path string) (*APIResponse, error) {
	return c.do(http.MethodGet, path, nil)
}

// Post performs a POST request with JSON body.
func (c *APIClient) Post(path string, body interface{}) (*APIResponse, error) {
	return c.do(http.MethodPost, path, body)
}

// Put performs a PUT request with JSON body.
func (c *APIClient) Put(path string, body interface{}) (*APIResponse, error) {
	return c.do(http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(path string) (*APIResponse, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *APIClient) do(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := "cli-" + uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	failed := resp.StatusCode >= 400

	// 204 from DELETE has no envelope
	if !failed && len(bytes.TrimSpace(raw)) == 0 {
		return &APIResponse{}, nil
	}

	var envelope APIResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	switch {
	case failed && decodeErr != nil:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw)), RequestID: requestID}
	case failed:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: envelope.Error, RequestID: requestID}
	case decodeErr != nil:
		return nil, fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	return &envelope, nil
}
