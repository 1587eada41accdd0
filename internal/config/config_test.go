package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CATALOG_CACHE_TTL_SECONDS", "")
	t.Setenv("RESTOCK_ON_CANCEL", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %s", cfg.Address())
	}
	if cfg.CatalogCacheTTLSeconds != 30 {
		t.Fatalf("expected default catalog cache ttl 30, got %d", cfg.CatalogCacheTTLSeconds)
	}
	if cfg.RestockOnCancel {
		t.Fatalf("expected restock-on-cancel to default off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_CACHE_TTL_SECONDS", "120")
	t.Setenv("RESTOCK_ON_CANCEL", "true")
	t.Setenv("SHOP_NAME", "OFICINA TESTE")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.CatalogCacheTTLSeconds != 120 {
		t.Fatalf("expected catalog cache ttl 120, got %d", cfg.CatalogCacheTTLSeconds)
	}
	if !cfg.RestockOnCancel {
		t.Fatalf("expected restock-on-cancel on")
	}
	if cfg.ShopName != "OFICINA TESTE" {
		t.Fatalf("unexpected shop name %s", cfg.ShopName)
	}
}

func TestLoadBadTTLFallsBack(t *testing.T) {
	t.Setenv("CATALOG_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.CatalogCacheTTLSeconds != 30 {
		t.Fatalf("expected fallback ttl 30, got %d", cfg.CatalogCacheTTLSeconds)
	}
}
