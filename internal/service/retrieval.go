package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkSearcher finds documents whose chunks lie near a query vector
type ChunkSearcher interface {
	NearestDocuments(ctx context.Context, query []float32, threshold float64, limit int) ([]domain.DocumentMatch, error)
}

// RetrievalConfig holds the cosine-distance thresholds tried in order and the
// number of documents each tier may return.
type RetrievalConfig struct {
	StrictThreshold  float64
	RelaxedThreshold float64
	Limit            int
}

// DefaultRetrievalConfig provides the standard thresholds.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		StrictThreshold:  0.8,
		RelaxedThreshold: 1.0,
		Limit:            15,
	}
}

// Retriever picks the single document most relevant to a question.
type Retriever struct {
	embedder EmbeddingClient
	index    ChunkSearcher
	cfg      RetrievalConfig
}

// NewRetriever creates a Retriever. Zero-valued config fields take the defaults.
func NewRetriever(embedder EmbeddingClient, index ChunkSearcher, cfg RetrievalConfig) *Retriever {
	defaults := DefaultRetrievalConfig()
	if cfg.StrictThreshold <= 0 {
		cfg.StrictThreshold = defaults.StrictThreshold
	}
	if cfg.RelaxedThreshold <= 0 {
		cfg.RelaxedThreshold = defaults.RelaxedThreshold
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	return &Retriever{embedder: embedder, index: index, cfg: cfg}
}

// FindBestDocument embeds the question and searches at the strict threshold,
// falling back to the relaxed one. It returns domain.ErrRetrievalEmpty when
// neither tier matches. A non-positive limit uses the configured one.
func (r *Retriever) FindBestDocument(ctx context.Context, question string, limit int) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.FindBestDocument", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	if limit <= 0 {
		limit = r.cfg.Limit
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", err
	}
	if len(vectors) != 1 {
		return "", domain.WrapEmbeddingError(fmt.Errorf("expected 1 query embedding, got %d", len(vectors)))
	}
	query := vectors[0]

	for _, tier := range []struct {
		name      string
		threshold float64
	}{
		{name: "strict", threshold: r.cfg.StrictThreshold},
		{name: "relaxed", threshold: r.cfg.RelaxedThreshold},
	} {
		matches, err := r.index.NearestDocuments(ctx, query, tier.threshold, limit)
		if err != nil {
			span.SetError(err)
			return "", fmt.Errorf("failed to search chunks: %w", err)
		}

		telemetry.AddBreadcrumbWithData(ctx, "retrieval", tier.name+" threshold search", map[string]interface{}{
			"threshold": tier.threshold,
			"matches":   len(matches),
		})

		if len(matches) > 0 {
			span.SetTag("retrieval.tier", tier.name)
			return matches[0].DocumentID, nil
		}
	}

	span.SetTag("retrieval.tier", "none")
	return "", domain.ErrRetrievalEmpty
}
