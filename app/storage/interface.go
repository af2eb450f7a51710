package storage

import (
	"context"
	"time"
)

// Document is the raw ingested text plus its metadata, kept so a document can
// be inspected or re-indexed after chunking.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Source    string    `json:"source" db:"source"`
	URL       string    `json:"url" db:"url"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Interaction is one answered question, kept for the history endpoint.
type Interaction struct {
	ID        int64     `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Sources   string    `json:"sources" db:"sources"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DocumentStore interface {
	UpsertDocuments(ctx context.Context, docs []Document) (int, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
}

type HistoryStore interface {
	SaveInteraction(ctx context.Context, interaction Interaction) error
	RecentInteractions(ctx context.Context, limit int) ([]Interaction, error)
}
