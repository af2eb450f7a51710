package configs

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded once at startup and
// passed explicitly to the components that need it.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Storage     StorageConfig     `yaml:"storage"`
	Discord     DiscordConfig     `yaml:"discord"`
}

type AppConfig struct {
	Name  string `yaml:"name"`
	Debug bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LLMConfig configures the OpenAI-compatible server used for generation and
// embeddings. Enabled=false leaves the ask endpoint in degraded mode while
// retrieval keeps working.
type LLMConfig struct {
	Enabled         bool   `yaml:"enabled"`
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key,omitempty"`
	Model           string `yaml:"model"`
	EmbeddingsModel string `yaml:"embeddings_model"`
}

type VectorStoreConfig struct {
	Backend   string       `yaml:"backend" validate:"oneof=memory qdrant"`
	Dimension int          `yaml:"dimension" validate:"gt=0"`
	Qdrant    QdrantConfig `yaml:"qdrant,omitempty"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection"`
}

// ChunkerConfig exposes the segmentation thresholds; zero values fall back to
// the chunker defaults.
type ChunkerConfig struct {
	MinChunkSize        int `yaml:"min_chunk_size"`
	TargetChunkSize     int `yaml:"target_chunk_size"`
	MaxChunkSize        int `yaml:"max_chunk_size"`
	OverlapBlocks       int `yaml:"overlap_blocks"`
	PseudoParagraphSize int `yaml:"pseudo_paragraph_size"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
}

// Load reads the YAML config at path, expanding ${VAR} references from the
// environment first. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		App:    AppConfig{Name: "GoAskAI", Debug: true},
		Server: ServerConfig{Addr: ":8080"},
		LLM: LLMConfig{
			Enabled:         true,
			BaseURL:         "http://localhost:1234",
			Model:           "qwen3:4b",
			EmbeddingsModel: "text-embedding-nomic-embed-text-v1.5",
		},
		VectorStore: VectorStoreConfig{
			Backend:   "memory",
			Dimension: 384,
			Qdrant:    QdrantConfig{Host: "localhost", Port: 6334, Collection: "documents"},
		},
		Storage: StorageConfig{Enabled: false},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = def.VectorStore.Backend
	}
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = def.VectorStore.Dimension
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = def.VectorStore.Qdrant.Host
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = def.VectorStore.Qdrant.Port
	}
	if cfg.VectorStore.Qdrant.Collection == "" {
		cfg.VectorStore.Qdrant.Collection = def.VectorStore.Qdrant.Collection
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.EmbeddingsModel == "" {
		cfg.LLM.EmbeddingsModel = def.LLM.EmbeddingsModel
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate configs: %w", err)
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return errors.New("discord is enabled but no token is configured")
	}
	return nil
}
