package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLiteStore backs both the document store and the interaction history with
// a single sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ DocumentStore = &SQLiteStore{}
	_ HistoryStore  = &SQLiteStore{}
)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		projectDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dbPath = filepath.Join(projectDir, "data", "goaskai.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            source TEXT NOT NULL DEFAULT 'manual',
            url TEXT NOT NULL DEFAULT '',
            text TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );
        CREATE TABLE IF NOT EXISTS interactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            sources TEXT NOT NULL DEFAULT '[]',
            created_at TIMESTAMP NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions (created_at);
    `)
	if err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Printf("📂 SQLite store ready at %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertDocuments writes documents keyed by id, so re-ingesting the same id
// replaces the stored text instead of duplicating it.
func (s *SQLiteStore) UpsertDocuments(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC().Format(timeLayout)
	count := 0
	for _, doc := range docs {
		if doc.ID == "" || doc.Text == "" {
			continue
		}
		source := doc.Source
		if source == "" {
			source = "manual"
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO documents (id, title, source, url, text, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			     title = excluded.title,
			     source = excluded.source,
			     url = excluded.url,
			     text = excluded.text,
			     updated_at = excluded.updated_at`,
			doc.ID, doc.Title, source, doc.URL, doc.Text, now, now,
		)
		if err != nil {
			return count, fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, source, url, text, created_at, updated_at FROM documents WHERE id = ?`, id)

	var doc Document
	var createdAt, updatedAt string
	err := row.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.URL, &doc.Text, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	doc.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, source, url, text, created_at, updated_at FROM documents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var createdAt, updatedAt string
		if err = rows.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.URL, &doc.Text, &createdAt, &updatedAt); err != nil {
			log.Printf("⚠️ Error scanning document row: %v", err)
			continue
		}
		doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		doc.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *SQLiteStore) SaveInteraction(ctx context.Context, interaction Interaction) error {
	sources := interaction.Sources
	if sources == "" {
		sources = "[]"
	}
	createdAt := interaction.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (question, answer, sources, created_at) VALUES (?, ?, ?, ?)`,
		interaction.Question, interaction.Answer, sources, createdAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save interaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentInteractions(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, sources, created_at
		 FROM interactions
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Interaction
	for rows.Next() {
		var it Interaction
		var createdAt string
		if err = rows.Scan(&it.ID, &it.Question, &it.Answer, &it.Sources, &createdAt); err != nil {
			log.Printf("⚠️ Error scanning interaction row: %v", err)
			continue
		}
		it.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		history = append(history, it)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
