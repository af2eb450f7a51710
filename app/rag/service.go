package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"GoAskAI/app/chunker"
	"GoAskAI/app/storage"
	"GoAskAI/app/utils"
)

const (
	DefaultTopK = 5
	MaxTopK     = 10

	answerMaxTokens   = 256
	answerTemperature = 0.1

	// Fixed answers for the degraded paths. Ask never fails on a missing
	// collaborator or an empty index; it answers with one of these instead.
	notConfiguredAnswer = "The language model is not configured, so no answer can be generated. Retrieval via /search still works."
	noContextAnswer     = "I couldn't find relevant information in the indexed documents."
	dontKnowAnswer      = "I don't know."
)

// Service is the retrieval orchestrator: it owns the document → chunk →
// vector lifecycle on the write path and retrieval plus answer composition on
// the read path. Collaborators other than the embedder and the store are
// optional and checked at every call site.
type Service struct {
	chunker   *chunker.Chunker
	embedder  Embedder
	generator Generator
	store     vectorStore
	docs      storage.DocumentStore
	history   storage.HistoryStore

	mu      sync.Mutex
	catalog map[string][]string // document id -> chunk ids, for diagnostics
}

func NewService(ch *chunker.Chunker, embedder Embedder, store vectorStore) *Service {
	if ch == nil {
		ch = chunker.New(chunker.DefaultOptions())
	}
	return &Service{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		catalog:  make(map[string][]string),
	}
}

// WithGenerator attaches the optional LLM port.
func (s *Service) WithGenerator(generator Generator) *Service {
	s.generator = generator
	return s
}

// WithStores attaches the optional document and history stores.
func (s *Service) WithStores(docs storage.DocumentStore, history storage.HistoryStore) *Service {
	s.docs = docs
	s.history = history
	return s
}

func (s *Service) Close() error {
	return s.store.Close()
}

// Index chunks, embeds and upserts each document and returns the number of
// chunks written. Empty or whitespace-only documents contribute zero chunks.
// Indexing the same document id again overwrites its chunks in place.
func (s *Service) Index(ctx context.Context, docs []Document) (int, error) {
	total := 0
	for _, doc := range docs {
		chunks := s.chunker.Chunk(doc.ID, doc.Text)
		if len(chunks) == 0 {
			log.Printf("⚠️ Document %q produced no chunks, skipping", doc.ID)
			continue
		}

		entries := make([]Entry, 0, len(chunks))
		chunkIDs := make([]string, 0, len(chunks))
		for _, ch := range chunks {
			vector, err := s.embedder.EmbedText(ctx, ch.Text)
			if err != nil {
				return total, fmt.Errorf("embed chunk %s: %w", ch.ID, err)
			}
			entries = append(entries, Entry{
				DocumentID: doc.ID,
				ChunkID:    ch.ID,
				Text:       ch.Text,
				Vector:     vector,
			})
			chunkIDs = append(chunkIDs, ch.ID)
		}

		if err := s.store.UpsertBatch(ctx, entries); err != nil {
			return total, fmt.Errorf("index document %s: %w", doc.ID, err)
		}

		if s.docs != nil {
			if _, err := s.docs.UpsertDocuments(ctx, []storage.Document{{
				ID:     doc.ID,
				Title:  doc.Title,
				Source: doc.Source,
				URL:    doc.URL,
				Text:   doc.Text,
			}}); err != nil {
				log.Printf("⚠️ Error persisting document %s: %v", doc.ID, err)
			}
		}

		s.mu.Lock()
		s.catalog[doc.ID] = chunkIDs
		s.mu.Unlock()

		total += len(chunks)
		log.Printf("✅ Indexed document %s as %d chunk(s)", doc.ID, len(chunks))
	}
	return total, nil
}

// Search embeds the query once and returns the top-k chunks by cosine
// similarity. An empty query or an empty index yields an empty result, not an
// error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	k = clampTopK(k)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query %q: %w", query, err)
	}
	hits, err := s.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return hits, nil
}

// Ask retrieves context for the question and delegates to the generator for a
// grounded answer. Every degraded path returns a fixed answer instead of an
// error: no generator, no hits, or an unusable generation.
func (s *Service) Ask(ctx context.Context, question string, k int) (Answer, error) {
	if s.generator == nil {
		log.Printf("⚠️ Ask called without a configured generator")
		return Answer{Question: question, Answer: notConfiguredAnswer, Sources: []Hit{}}, nil
	}

	hits, err := s.Search(ctx, question, k)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{Question: question, Answer: noContextAnswer, Sources: []Hit{}}, nil
	}

	prompt := buildPrompt(question, hits)
	text := strings.TrimSpace(s.generator.Generate(ctx, prompt, answerMaxTokens, answerTemperature))
	if text == "" {
		log.Printf("⚠️ Generator returned nothing usable for question %q", question)
		text = dontKnowAnswer
	}

	answer := Answer{Question: question, Answer: text, Sources: hits}
	s.recordInteraction(ctx, answer)
	return answer, nil
}

// CorpusTree renders the indexed documents and their chunk ids as a tree.
func (s *Service) CorpusTree() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	docIDs := make([]string, 0, len(s.catalog))
	for id := range s.catalog {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	return utils.BuildCorpusTree(docIDs, s.catalog)
}

func (s *Service) recordInteraction(ctx context.Context, answer Answer) {
	if s.history == nil {
		return
	}
	sources, err := json.Marshal(answer.Sources)
	if err != nil {
		sources = []byte("[]")
	}
	if err := s.history.SaveInteraction(ctx, storage.Interaction{
		Question:  answer.Question,
		Answer:    answer.Answer,
		Sources:   string(sources),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("⚠️ Error saving interaction history: %v", err)
	}
}

func clampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// buildPrompt composes the grounded-answer prompt: an enumerated context
// block followed by strict answering instructions.
func buildPrompt(question string, hits []Hit) string {
	var b strings.Builder
	b.WriteString("You are a careful assistant. Answer the question using ONLY the context snippets below.\n\nContext:\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d] (score=%.4f, id=%s) %s\n", i+1, hit.Score, hit.ID, hit.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nInstructions: answer strictly from the context, cite the snippet numbers you used like [1], and reply \"I don't know.\" if the context does not contain the answer.")
	return b.String()
}
