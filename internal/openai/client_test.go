package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the embeddings API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func testVector(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.001
	}
	return v
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	text := "Who created the first periodic table?"
	expected := testVector(DefaultEmbeddingDimensions, 0)

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return([][]float32{expected}, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 384)
	assert.Equal(t, expected, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_PreservesOrder(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"first", "second", "third"}
	vectors := [][]float32{
		testVector(DefaultEmbeddingDimensions, 1),
		testVector(DefaultEmbeddingDimensions, 2),
		testVector(DefaultEmbeddingDimensions, 3),
	}
	mockAPI.On("CreateEmbeddings", ctx, texts).Return(vectors, nil)

	result, err := client.Embed(ctx, texts)

	require.NoError(t, err)
	assert.Equal(t, vectors, result)
}

func TestClient_Embed_EmptyBatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	result, err := client.Embed(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, result)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings")
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	embedding, err := client.GenerateEmbedding(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	text := "Test text"
	apiErr := errors.New("connection refused")

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.ErrorIs(t, err, apiErr)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	text := "Test text"

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return([][]float32{make([]float32, 1536)}, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_CountMismatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"a", "b"}
	mockAPI.On("CreateEmbeddings", ctx, texts).Return([][]float32{testVector(DefaultEmbeddingDimensions, 0)}, nil)

	_, err := client.Embed(ctx, texts)

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:11434/v1")

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
	assert.NotNil(t, client.chat)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
}

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Model string   `json:"model"`
				Input []string `json:"input"`
			}
			assert.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, DefaultEmbeddingModel, req.Model)

			// Answer in reverse order to exercise index-based reordering.
			data := make([]map[string]interface{}, 0, len(req.Input))
			for i := len(req.Input) - 1; i >= 0; i-- {
				data = append(data, map[string]interface{}{
					"object":    "embedding",
					"index":     i,
					"embedding": testVector(DefaultEmbeddingDimensions, float32(i)),
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "list",
				"model":  req.Model,
				"data":   data,
			})
		case "/v1/chat/completions":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			assert.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, DefaultChatModel, req.Model)
			if assert.Len(t, req.Messages, 2) {
				assert.Equal(t, RoleSystem, req.Messages[0].Role)
			}

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"model":  req.Model,
				"choices": []map[string]interface{}{{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]string{
						"role":    "assistant",
						"content": "Dmitri Mendeleev.",
					},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOpenAIAdapter_Embed_OverHTTP(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.Close()

	client := NewClient(srv.URL + "/v1")

	vectors, err := client.Embed(context.Background(), []string{"zero", "one", "two"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Len(t, v, DefaultEmbeddingDimensions)
		assert.InDelta(t, float32(i), v[0], 1e-6)
	}
}

func TestOpenAIAdapter_Complete_OverHTTP(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.Close()

	client := NewClient(srv.URL + "/v1")

	text, err := client.Complete(context.Background(), []ChatMessage{
		{Role: RoleSystem, Content: "Answer from notes only."},
		{Role: RoleUser, Content: "Who created the first periodic table?"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Dmitri Mendeleev.", text)
}

func TestOpenAIAdapter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/v1")

	_, err := client.Embed(context.Background(), []string{"text"})

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}
