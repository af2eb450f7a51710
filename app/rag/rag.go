package rag

import "context"

// Document is a unit of ingest: an id plus the raw text to be chunked,
// embedded and indexed. Re-indexing the same id overwrites its chunks.
type Document struct {
	ID     string
	Title  string
	Source string
	URL    string
	Text   string
}

// Entry is one indexed chunk: identity, retrievable text and its vector.
type Entry struct {
	DocumentID string
	ChunkID    string
	Text       string
	Vector     []float32
}

// Hit is a scored retrieval candidate. Score is cosine similarity, higher is
// more relevant.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Answer is the result of a grounded ask: the question, the generated (or
// fallback) answer, and the retrieval hits it was grounded on.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Sources  []Hit  `json:"sources"`
}

// Embedder turns text into a fixed-dimension vector. Vectors are expected to
// be unit-norm so cosine similarity reduces to a dot product.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator produces free text from a prompt. Implementations return an empty
// string, never an error, when the underlying model yields nothing usable.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) string
}

// vectorStore is the dual-backend index contract. Both implementations rank
// by cosine similarity, descending, truncated to k.
type vectorStore interface {
	UpsertBatch(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Close() error
}
