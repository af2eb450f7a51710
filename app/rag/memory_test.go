package rag

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStoreRanking(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.UpsertBatch(ctx, []Entry{
		{DocumentID: "d", ChunkID: "a", Text: "alpha", Vector: []float32{1, 0}},
		{DocumentID: "d", ChunkID: "b", Text: "beta", Vector: []float32{0, 1}},
		{DocumentID: "d", ChunkID: "c", Text: "gamma", Vector: []float32{0.9, 0.1}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ID != "a" || hits[1].ID != "c" || hits[2].ID != "b" {
		t.Fatalf("wrong ranking: %q %q %q", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	if hits[0].Score < hits[1].Score || hits[1].Score < hits[2].Score {
		t.Fatalf("scores are not descending: %v", hits)
	}
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Fatalf("identical vectors should score 1, got %f", hits[0].Score)
	}
}

func TestMemoryStoreTruncatesToK(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertBatch(ctx, []Entry{
		{ChunkID: "a", Vector: []float32{1, 0}},
		{ChunkID: "b", Vector: []float32{0, 1}},
	})

	hits, err := s.Query(ctx, []float32{1, 0}, 1)
	if err != nil || len(hits) != 1 || hits[0].ID != "a" {
		t.Fatalf("expected single best hit, got %v (err=%v)", hits, err)
	}

	hits, _ = s.Query(ctx, []float32{1, 0}, 50)
	if len(hits) != 2 {
		t.Fatalf("k beyond size should return everything, got %d", len(hits))
	}
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.UpsertBatch(ctx, []Entry{{ChunkID: "x", Text: "old", Vector: []float32{1, 0}}})
	_ = s.UpsertBatch(ctx, []Entry{{ChunkID: "x", Text: "new", Vector: []float32{1, 0}}})

	if s.Len() != 1 {
		t.Fatalf("re-upserting the same chunk id must not duplicate, len=%d", s.Len())
	}
	hits, _ := s.Query(ctx, []float32{1, 0}, 1)
	if hits[0].Text != "new" {
		t.Fatalf("expected overwritten text, got %q", hits[0].Text)
	}
}

func TestMemoryStoreTieKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertBatch(ctx, []Entry{
		{ChunkID: "first", Vector: []float32{1, 0}},
		{ChunkID: "second", Vector: []float32{1, 0}},
	})

	hits, _ := s.Query(ctx, []float32{1, 0}, 2)
	if hits[0].ID != "first" || hits[1].ID != "second" {
		t.Fatalf("tied scores should keep insertion order, got %q %q", hits[0].ID, hits[1].ID)
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertBatch(ctx, []Entry{{ChunkID: "a", Vector: []float32{1, 0}}})

	err := s.UpsertBatch(ctx, []Entry{{ChunkID: "b", Vector: []float32{1, 2, 3}}})
	if err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestMemoryStoreEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	hits, err := s.Query(ctx, []float32{1, 0}, 5)
	if err != nil || hits != nil {
		t.Fatalf("empty store should return nothing, got %v (err=%v)", hits, err)
	}
	if hits, _ = s.Query(ctx, []float32{1, 0}, 0); hits != nil {
		t.Fatalf("k<=0 should return nothing")
	}
}

func TestCosineEdgeCases(t *testing.T) {
	if got := cosine(nil, []float32{1}); got != 0 {
		t.Fatalf("empty vector should score 0, got %f", got)
	}
	if got := cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero-norm vector should score 0, got %f", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors should score 0, got %f", got)
	}
	if got := cosine([]float32{3, 0}, []float32{7, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("parallel vectors should score 1, got %f", got)
	}
}
