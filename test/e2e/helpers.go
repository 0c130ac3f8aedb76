//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/cloo-solutions/notesqa/internal/api/handlers"
	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/jobs"
	"github.com/cloo-solutions/notesqa/internal/openai"
	"github.com/cloo-solutions/notesqa/internal/repository"
	"github.com/cloo-solutions/notesqa/internal/server"
	"github.com/cloo-solutions/notesqa/internal/service"
	"github.com/cloo-solutions/notesqa/internal/storage"
	"github.com/cloo-solutions/notesqa/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// failPhrase makes the fake chat model return an error.
const failPhrase = "make the model fail"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	LLM          *httptest.Server
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	DocumentSvc  *service.DocumentService
	IndexWorker  *jobs.IndexWorker
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers, a fake
// OpenAI-compatible model server and the HTTP API.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSAccessKey,
		Bucket:          "notes-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	llm := httptest.NewServer(fakeModelHandler())

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		LLM:        llm,
		S3Client:   s3Client,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.ServerURL, env.ServerCloser = env.startServer(port)

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.LLM != nil {
		e.LLM.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the notesqa CLI
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "notesqa-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "notesqa"), "./cmd/notesqa")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build notesqa: %v\n%s", err, out)
	}
}

// RunCLI runs the notesqa CLI against the test server
func (e *E2ETestEnv) RunCLI(input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "notesqa"), args...)
	cmd.Dir = e.BinaryDir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("NOTESQA_API_URL=%s", e.ServerURL),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", e.BinaryDir),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPut, path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := APIResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	if resp.StatusCode >= 400 {
		return &apiResp, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}
	return &apiResp, nil
}

// CreateDocument stores a note and indexes it synchronously.
func (e *E2ETestEnv) CreateDocument(title, body string) string {
	resp, err := e.Put("/documents", map[string]string{"title": title, "body": body})
	if err != nil {
		e.T.Fatalf("failed to create document: %v", err)
	}
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		e.T.Fatalf("failed to parse document: %v", err)
	}

	if _, err := e.Post("/documents/"+doc.ID+"/index", nil); err != nil {
		e.T.Fatalf("failed to index document: %v", err)
	}
	return doc.ID
}

func (e *E2ETestEnv) startServer(port int) (string, func()) {
	documents := repository.NewDocumentRepository(e.Pool)
	chunks := repository.NewDocumentChunkRepository(e.Pool)
	indexJobs := repository.NewIndexJobRepository(e.Pool)

	llm := openai.NewClientWithConfig(openai.Config{
		BaseURL:             e.LLM.URL + "/v1",
		EmbeddingDimensions: domain.EmbeddingDimensions,
	})

	splitter, err := service.NewSplitter(200, 20, nil)
	if err != nil {
		e.T.Fatalf("failed to create splitter: %v", err)
	}

	e.DocumentSvc = service.NewDocumentServiceWithTx(documents, indexJobs, repository.NewTxRunner(e.Pool))
	indexer := service.NewIndexingService(documents, llm, chunks, splitter)
	retriever := service.NewRetriever(llm, chunks, service.DefaultRetrievalConfig())
	synthesizer := service.NewAnswerSynthesizer(llm, 5*time.Second)
	qa := service.NewQAService(retriever, documents, synthesizer)
	e.IndexWorker = jobs.NewIndexWorker(indexJobs, indexer)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(e.DocumentSvc, indexer, chunks),
		AskHandler:      handlers.NewAskHandler(qa),
		HealthCheck:     e.Pool.Ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.T.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(e.T, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// fakeModelHandler serves /v1/embeddings and /v1/chat/completions. Embeddings
// are normalized bag-of-words vectors, so texts sharing words are close.
func fakeModelHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": bagOfWords(text),
			}
		}
		writeJSON(w, map[string]interface{}{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		prompt := ""
		for _, m := range req.Messages {
			prompt += m.Content + "\n"
		}
		if strings.Contains(prompt, failPhrase) {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]interface{}{
				"error": map[string]string{"message": "model crashed", "type": "server_error"},
			})
			return
		}

		writeJSON(w, map[string]interface{}{
			"id":     "chatcmpl-e2e",
			"object": "chat.completion",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]string{
					"role":    "assistant",
					"content": "answered from notes",
				},
			}},
		})
	})

	return mux
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, domain.EmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(len(vec))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
