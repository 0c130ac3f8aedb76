package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cloo-solutions/notesqa/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL points at a local Ollama server's OpenAI-compatible API
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = "all-minilm"
	// DefaultEmbeddingDimensions is the expected dimension of all-minilm embeddings
	DefaultEmbeddingDimensions = domain.EmbeddingDimensions
	// DefaultChatModel is the model used for answer generation
	DefaultChatModel = "llama3"
	// placeholderAPIKey is sent when none is configured; Ollama ignores it.
	placeholderAPIKey = "ollama"
)

const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoEmbeddingData is returned when the API answers without vectors
	ErrNoEmbeddingData = errors.New("no embedding data returned")
	// ErrNoChoices is returned when a chat completion has no choices
	ErrNoChoices = errors.New("no completion choices returned")
)

// ChatMessage is a single role-tagged message sent to the chat model
type ChatMessage struct {
	Role    string
	Content string
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatAPI defines the interface for chat completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, messages []ChatMessage) (string, error)
}

// Client wraps the OpenAI-compatible API client
type Client struct {
	api        EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &OpenAIAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the embeddings endpoint with the whole batch and
// returns the vectors in input order.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbeddingData
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, item := range data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// CreateChatCompletion sends messages to the chat model and returns the first choice
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    a.chatModel,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	BaseURL             string
	APIKey              string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChatModel           string
}

// NewClient creates a new client against the given base URL using defaults.
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(Config{BaseURL: baseURL})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewOpenAIAdapter(cfg)
	return &Client{
		api:        adapter,
		chat:       adapter,
		dimensions: dimensions,
	}
}

// Dimensions returns the vector length every embedding is checked against
func (c *Client) Dimensions() int {
	if c.dimensions <= 0 {
		return DefaultEmbeddingDimensions
	}
	return c.dimensions
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// Embed generates one embedding per text, preserving order. Failures are
// wrapped so that errors.Is(err, domain.ErrEmbedding) holds.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	vectors, err := c.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, domain.WrapEmbeddingError(fmt.Errorf("failed to create embedding: %w", err))
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapEmbeddingError(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}

	expected := c.Dimensions()
	for i, v := range vectors {
		if len(v) != expected {
			return nil, domain.WrapEmbeddingError(fmt.Errorf("%w: vector %d has %d, expected %d", ErrWrongDimensions, i, len(v), expected))
		}
	}

	return vectors, nil
}

// Complete runs a chat completion for the given messages
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.chat == nil {
		return "", errors.New("chat model not configured")
	}
	return c.chat.CreateChatCompletion(ctx, messages)
}
