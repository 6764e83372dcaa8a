package domain

import (
	"context"
	"time"
)

// Embedder is the raw provider contract shared by the decorator chain.
// It receives text that was already normalized.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingMetadata is stored next to a vector. It is replaced wholesale on
// re-embedding, never merged.
type EmbeddingMetadata struct {
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Dimensions      int       `json:"dimensions"`
	Text            string    `json:"text"`
	OriginalLength  int       `json:"originalLength"`
	ProcessedLength int       `json:"processedLength"`
}

// Embedding is the output of the embedding client for one input text.
type Embedding struct {
	Vector   []float32
	Metadata EmbeddingMetadata
	Tokens   int
}

// NormalizedText returns the text that was actually sent to the provider.
func (e Embedding) NormalizedText() string { return e.Metadata.Text }

// OriginalLength returns the rune length of the raw input.
func (e Embedding) OriginalLength() int { return e.Metadata.OriginalLength }

// NormalizedLength returns the rune length of the normalized text.
func (e Embedding) NormalizedLength() int { return e.Metadata.ProcessedLength }
