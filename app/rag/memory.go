package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force in-process vector index. Entries are keyed by
// chunk id so repeated indexing overwrites in place, and ranking ties keep
// insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	entries   map[string]Entry
}

var _ vectorStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) UpsertBatch(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if entry.ChunkID == "" {
			return fmt.Errorf("entry for document %s has no chunk id", entry.DocumentID)
		}
		if s.dimension == 0 {
			s.dimension = len(entry.Vector)
		}
		if len(entry.Vector) != s.dimension {
			return fmt.Errorf("chunk %s: vector dimension %d does not match store dimension %d",
				entry.ChunkID, len(entry.Vector), s.dimension)
		}
		if _, exists := s.entries[entry.ChunkID]; !exists {
			s.order = append(s.order, entry.ChunkID)
		}
		s.entries[entry.ChunkID] = entry
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.order) == 0 {
		return nil, nil
	}

	scored := make([]Hit, 0, len(s.order))
	for _, chunkID := range s.order {
		entry := s.entries[chunkID]
		scored = append(scored, Hit{
			ID:    entry.ChunkID,
			Score: cosine(vector, entry.Vector),
			Text:  entry.Text,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of distinct entries, used by tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cosine is dot(a,b)/(‖a‖·‖b‖), defined as 0 when either side is empty or has
// zero norm.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
