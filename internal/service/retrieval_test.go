package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingClient mocks the embedding backend
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockChunkSearcher mocks the chunk index search
type MockChunkSearcher struct {
	mock.Mock
}

func (m *MockChunkSearcher) NearestDocuments(ctx context.Context, query []float32, threshold float64, limit int) ([]domain.DocumentMatch, error) {
	args := m.Called(ctx, query, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentMatch), args.Error(1)
}

func testVector(seed float32) []float32 {
	v := make([]float32, domain.EmbeddingDimensions)
	for i := range v {
		v[i] = seed
	}
	return v
}

func TestRetriever_StrictMatch(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	index := new(MockChunkSearcher)
	retriever := NewRetriever(embedder, index, DefaultRetrievalConfig())

	query := testVector(0.1)
	embedder.On("Embed", mock.Anything, []string{"Who created the periodic table?"}).Return([][]float32{query}, nil)
	index.On("NearestDocuments", mock.Anything, query, 0.8, 15).Return([]domain.DocumentMatch{
		{DocumentID: "doc-a", ChunkCount: 3, MeanDistance: 0.31},
		{DocumentID: "doc-b", ChunkCount: 1, MeanDistance: 0.55},
	}, nil)

	id, err := retriever.FindBestDocument(context.Background(), "Who created the periodic table?", 0)

	require.NoError(t, err)
	assert.Equal(t, "doc-a", id)
	index.AssertNumberOfCalls(t, "NearestDocuments", 1)
}

func TestRetriever_FallsBackToRelaxedThreshold(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	index := new(MockChunkSearcher)
	retriever := NewRetriever(embedder, index, DefaultRetrievalConfig())

	query := testVector(0.2)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([][]float32{query}, nil)
	index.On("NearestDocuments", mock.Anything, query, 0.8, 5).Return([]domain.DocumentMatch{}, nil)
	index.On("NearestDocuments", mock.Anything, query, 1.0, 5).Return([]domain.DocumentMatch{
		{DocumentID: "doc-c", ChunkCount: 2, MeanDistance: 0.9},
	}, nil)

	id, err := retriever.FindBestDocument(context.Background(), "something vague", 5)

	require.NoError(t, err)
	assert.Equal(t, "doc-c", id)
	index.AssertExpectations(t)
}

func TestRetriever_NoMatch(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	index := new(MockChunkSearcher)
	retriever := NewRetriever(embedder, index, RetrievalConfig{})

	embedder.On("Embed", mock.Anything, mock.Anything).Return([][]float32{testVector(0.3)}, nil)
	index.On("NearestDocuments", mock.Anything, mock.Anything, mock.Anything, 15).Return([]domain.DocumentMatch{}, nil)

	id, err := retriever.FindBestDocument(context.Background(), "unrelated", 0)

	assert.Empty(t, id)
	assert.ErrorIs(t, err, domain.ErrRetrievalEmpty)
	assert.Contains(t, err.Error(), "no similar document found")
	index.AssertNumberOfCalls(t, "NearestDocuments", 2)
}

func TestRetriever_EmbeddingErrorPropagates(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	index := new(MockChunkSearcher)
	retriever := NewRetriever(embedder, index, DefaultRetrievalConfig())

	embedErr := domain.WrapEmbeddingError(errors.New("connection refused"))
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, embedErr)

	_, err := retriever.FindBestDocument(context.Background(), "question", 0)

	assert.Equal(t, embedErr, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	index.AssertNotCalled(t, "NearestDocuments")
}

func TestRetriever_SearchError(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	index := new(MockChunkSearcher)
	retriever := NewRetriever(embedder, index, DefaultRetrievalConfig())

	embedder.On("Embed", mock.Anything, mock.Anything).Return([][]float32{testVector(0.4)}, nil)
	index.On("NearestDocuments", mock.Anything, mock.Anything, 0.8, 15).Return(nil, errors.New("database unavailable"))

	_, err := retriever.FindBestDocument(context.Background(), "question", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search chunks")
	index.AssertNumberOfCalls(t, "NearestDocuments", 1)
}
