package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desguapro/catalog-sync/internal/config"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("SUPPLIER_BASE_URL", "https://supplier.example.com/api")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Supplier.PageSize != 1000 || cfg.Supplier.MaxRetries != 3 {
		t.Fatalf("unexpected supplier defaults: %+v", cfg.Supplier)
	}
	if cfg.Recovery.StaleThreshold != 30*time.Minute {
		t.Fatalf("unexpected stale threshold: %v", cfg.Recovery.StaleThreshold)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
database:
  url: postgres://file/catalog
supplier:
  base_url: https://file.example.com
  page_size: 250
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://env/catalog")
	t.Setenv("SUPPLIER_PAGE_SIZE", "500")
	t.Setenv("SYNC_STALE_THRESHOLD", "45m")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected file port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://env/catalog" {
		t.Fatalf("expected env to override file, got %s", cfg.Database.URL)
	}
	if cfg.Supplier.PageSize != 500 {
		t.Fatalf("expected env page size 500, got %d", cfg.Supplier.PageSize)
	}
	if cfg.Recovery.StaleThreshold != 45*time.Minute {
		t.Fatalf("expected 45m stale threshold, got %v", cfg.Recovery.StaleThreshold)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPPLIER_BASE_URL", "https://supplier.example.com/api")

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error without database url")
	}
}
