package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Namespace for deriving point ids from (document_id, chunk_id), so indexing
// the same chunk twice overwrites the point instead of duplicating it.
var pointNamespace = uuid.MustParse("7b1e3d52-9c61-4a0f-8c2d-5f4a9b0e6c13")

// QdrantStore is the external-service vector index. The backing collection is
// created lazily on first use, configured with the embedding dimensionality
// and cosine distance.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize int

	ensureOnce sync.Once
	ensureErr  error
}

var _ vectorStore = &QdrantStore{}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	VectorSize int
}

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("qdrant store requires a positive vector size, got %d", cfg.VectorSize)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
	}, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.client.CollectionExists(ctx, s.collection)
		if err != nil {
			s.ensureErr = fmt.Errorf("check collection %s: %w", s.collection, err)
			return
		}
		if exists {
			return
		}
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(s.vectorSize),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			s.ensureErr = fmt.Errorf("create collection %s: %w", s.collection, err)
		}
	})
	return s.ensureErr
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// PointID derives the stable qdrant point id for a chunk.
func PointID(documentID, chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(documentID+":"+chunkID)).String()
}

func (s *QdrantStore) UpsertBatch(ctx context.Context, entries []Entry) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, entry := range entries {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(entry.DocumentID, entry.ChunkID)),
			Vectors: qdrant.NewVectors(entry.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id": entry.DocumentID,
				"chunk_id":    entry.ChunkID,
				"text":        entry.Text,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), s.collection, err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}

	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		hits = append(hits, Hit{
			ID:    payloadString(point.Payload, "chunk_id", pointIDString(point.Id)),
			Score: float64(point.Score),
			Text:  payloadString(point.Payload, "text", ""),
		})
	}
	return hits, nil
}

func payloadString(payload map[string]*qdrant.Value, key, fallback string) string {
	value, ok := payload[key]
	if !ok {
		return fallback
	}
	if s := value.GetStringValue(); s != "" {
		return s
	}
	return fallback
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch x := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return x.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", x.Num)
	}
	return ""
}
