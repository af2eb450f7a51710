package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"GoAskAI/app/api"
	"GoAskAI/app/chunker"
	"GoAskAI/app/clients"
	"GoAskAI/app/configs"
	"GoAskAI/app/models"
	"GoAskAI/app/rag"
	"GoAskAI/app/storage"
	"GoAskAI/app/webloader"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ No .env file loaded: %v", err)
	}

	cfg, err := configs.Load(*configPath)
	if err != nil {
		log.Fatalf("🚨 Error loading config: %v", err)
	}

	ch := chunker.New(chunker.Options{
		MinChunkSize:        cfg.Chunker.MinChunkSize,
		TargetChunkSize:     cfg.Chunker.TargetChunkSize,
		MaxChunkSize:        cfg.Chunker.MaxChunkSize,
		OverlapBlocks:       cfg.Chunker.OverlapBlocks,
		PseudoParagraphSize: cfg.Chunker.PseudoParagraphSize,
	})

	llm := models.NewLLMClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.EmbeddingsModel)

	var service *rag.Service
	switch cfg.VectorStore.Backend {
	case "qdrant":
		qs, err := rag.NewQdrantStore(rag.QdrantConfig{
			Host:       cfg.VectorStore.Qdrant.Host,
			Port:       cfg.VectorStore.Qdrant.Port,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			VectorSize: cfg.VectorStore.Dimension,
		})
		if err != nil {
			log.Fatalf("🚨 Error connecting to qdrant: %v", err)
		}
		service = rag.NewService(ch, llm, qs)
		log.Printf("📦 Vector backend: qdrant (%s:%d/%s)", cfg.VectorStore.Qdrant.Host, cfg.VectorStore.Qdrant.Port, cfg.VectorStore.Qdrant.Collection)
	default:
		service = rag.NewService(ch, llm, rag.NewMemoryStore())
		log.Printf("📦 Vector backend: memory")
	}
	defer service.Close()

	if cfg.LLM.Enabled {
		service.WithGenerator(llm)
	} else {
		log.Printf("⚠️ LLM disabled, /ask will answer in degraded mode")
	}

	var docs storage.DocumentStore
	var history storage.HistoryStore
	if cfg.Storage.Enabled {
		db, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("🚨 Error opening sqlite store: %v", err)
		}
		defer db.Close()
		service.WithStores(db, db)
		docs = db
		history = db
	}

	registry := clients.NewRegistry()
	defer registry.CloseAll()
	if cfg.Discord.Enabled {
		client, err := clients.CreateClient(cfg.Discord)
		if err != nil {
			log.Fatalf("🚨 Error creating discord client: %v", err)
		}
		if err := registry.Register(client, service); err != nil {
			log.Fatalf("🚨 Error registering discord client: %v", err)
		}
	}

	server := api.NewServer(service, webloader.NewLoader(), docs, history, cfg.App.Name, cfg.App.Debug)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 %s listening on %s", cfg.App.Name, cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("🚨 HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("👋 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Error during shutdown: %v", err)
	}
}
