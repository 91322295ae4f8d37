package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BufferPoolSize <= 0 {
		t.Fatalf("BufferPoolSize = %d, want > 0", cfg.BufferPoolSize)
	}
	if cfg.ReplacerK <= 0 {
		t.Fatalf("ReplacerK = %d, want > 0", cfg.ReplacerK)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.LeafMaxSize != Default().LeafMaxSize {
		t.Fatalf("LeafMaxSize = %d, want %d", cfg.LeafMaxSize, Default().LeafMaxSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticketdb.yaml")
	contents := "data_dir: /var/lib/ticketdb\nbuffer_pool_size: 512\nreplacer_k: 3\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/ticketdb" {
		t.Fatalf("DataDir = %q, want /var/lib/ticketdb", cfg.DataDir)
	}
	if cfg.BufferPoolSize != 512 {
		t.Fatalf("BufferPoolSize = %d, want 512", cfg.BufferPoolSize)
	}
	if cfg.ReplacerK != 3 {
		t.Fatalf("ReplacerK = %d, want 3", cfg.ReplacerK)
	}
	// Unset fields in the file keep their defaults.
	if cfg.LeafMaxSize != Default().LeafMaxSize {
		t.Fatalf("LeafMaxSize = %d, want default %d", cfg.LeafMaxSize, Default().LeafMaxSize)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/ticketdb.yaml"); err == nil {
		t.Fatal("Load(missing file) = nil error, want error")
	}
}
