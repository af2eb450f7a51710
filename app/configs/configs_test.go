package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.VectorStore.Backend != "memory" || cfg.VectorStore.Dimension != 384 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFillsPartialConfig(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.VectorStore.Backend != "memory" || cfg.LLM.BaseURL == "" {
		t.Fatalf("defaults were not applied: %+v", cfg)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DISCORD_TOKEN", "tok-123")
	path := writeConfig(t, `
discord:
  enabled: true
  token: ${TEST_DISCORD_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Discord.Token != "tok-123" {
		t.Fatalf("token = %q, env var was not expanded", cfg.Discord.Token)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "vector_store:\n  backend: elastic\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a validation error for an unknown backend")
	}
}

func TestLoadRejectsDiscordWithoutToken(t *testing.T) {
	path := writeConfig(t, "discord:\n  enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error when discord is enabled without a token")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a map\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestQdrantDefaults(t *testing.T) {
	path := writeConfig(t, "vector_store:\n  backend: qdrant\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q := cfg.VectorStore.Qdrant
	if q.Host != "localhost" || q.Port != 6334 || q.Collection != "documents" {
		t.Fatalf("qdrant defaults missing: %+v", q)
	}
}
