package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"GoAskAI/app/rag"
	"GoAskAI/app/storage"
	"GoAskAI/app/utils"
	"GoAskAI/app/webloader"
)

const maxHistoryLimit = 100

// Server exposes the retrieval pipeline over HTTP. The loader and history
// store are optional; their endpoints degrade when absent.
type Server struct {
	svc     *rag.Service
	loader  *webloader.Loader
	docs    storage.DocumentStore
	history storage.HistoryStore
	appName string
	debug   bool
}

func NewServer(svc *rag.Service, loader *webloader.Loader, docs storage.DocumentStore, history storage.HistoryStore, appName string, debug bool) *Server {
	return &Server{
		svc:     svc,
		loader:  loader,
		docs:    docs,
		history: history,
		appName: appName,
		debug:   debug,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /index", s.handleIndex)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /ask", s.handleAsk)
	mux.HandleFunc("POST /ingest/url", s.handleIngestURL)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /corpus", s.handleCorpus)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"app_name": s.appName,
		"debug":    s.debug,
	})
}

type indexItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var items []indexItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode index request: %w", err))
		return
	}

	docs := make([]rag.Document, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			writeError(w, http.StatusBadRequest, errors.New("every document needs an id"))
			return
		}
		docs = append(docs, rag.Document{ID: item.ID, Text: item.Text, Source: "manual"})
	}

	indexed, err := s.svc.Index(r.Context(), docs)
	if err != nil {
		log.Printf("🚨 Index request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexed": indexed})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k := parseK(r.URL.Query().Get("k"))

	hits, err := s.svc.Search(r.Context(), query, k)
	if err != nil {
		log.Printf("🚨 Search request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, roundHits(hits))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")
	if question == "" {
		writeError(w, http.StatusBadRequest, errors.New("query parameter q is required"))
		return
	}
	k := parseK(r.URL.Query().Get("k"))

	answer, err := s.svc.Ask(r.Context(), question, k)
	if err != nil {
		log.Printf("🚨 Ask request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	answer.Sources = roundHits(answer.Sources)
	writeJSON(w, http.StatusOK, answer)
}

type ingestURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("web ingest is not configured"))
		return
	}

	var req ingestURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("body must be {\"url\": \"...\"}"))
		return
	}

	title, text, err := s.loader.Fetch(r.Context(), req.URL)
	if err != nil {
		log.Printf("⚠️ Ingest failed for url=%q: %v", req.URL, err)
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("ingest rejected: %w", err))
		return
	}

	docID := utils.HashID(req.URL)
	indexed, err := s.svc.Index(r.Context(), []rag.Document{{
		ID:     docID,
		Title:  title,
		Source: "web",
		URL:    req.URL,
		Text:   text,
	}})
	if err != nil {
		log.Printf("🚨 Indexing fetched page %q failed: %v", req.URL, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"doc_id":         docID,
		"title":          title,
		"indexed_chunks": indexed,
		"url":            req.URL,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("document store is not configured"))
		return
	}

	docs, err := s.docs.ListDocuments(r.Context())
	if err != nil {
		log.Printf("🚨 List documents failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if docs == nil {
		docs = []storage.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(docs), "items": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("document store is not configured"))
		return
	}

	id := r.PathValue("id")
	doc, err := s.docs.GetDocument(r.Context(), id)
	if err != nil {
		log.Printf("🚨 Get document %q failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history store is not configured"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	items, err := s.history.RecentInteractions(r.Context(), limit)
	if err != nil {
		log.Printf("🚨 History request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []storage.Interaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "items": items})
}

func (s *Server) handleCorpus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.svc.CorpusTree())
}

func parseK(raw string) int {
	k, err := strconv.Atoi(raw)
	if err != nil {
		return rag.DefaultTopK
	}
	if k < 1 {
		return 1
	}
	if k > rag.MaxTopK {
		return rag.MaxTopK
	}
	return k
}

// roundHits fixes score precision at the API boundary so responses are stable
// across backends.
func roundHits(hits []rag.Hit) []rag.Hit {
	rounded := make([]rag.Hit, len(hits))
	for i, hit := range hits {
		hit.Score = math.Round(hit.Score*10000) / 10000
		rounded[i] = hit
	}
	return rounded
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("⚠️ Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
