package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/pharmanet")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.LowStockThreshold != 10 {
		t.Errorf("expected default low stock threshold 10, got %d", cfg.LowStockThreshold)
	}
	if cfg.CancelCutoffHours != 24 {
		t.Errorf("expected default cancel cutoff 24h, got %d", cfg.CancelCutoffHours)
	}
	if !cfg.IsDev() {
		t.Error("expected default env to be development")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestCancelCutoff(t *testing.T) {
	cfg := &Config{CancelCutoffHours: 24}
	if cfg.CancelCutoff() != 24*time.Hour {
		t.Errorf("expected 24h cutoff, got %v", cfg.CancelCutoff())
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}
	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_PolicyBounds(t *testing.T) {
	cfg := &Config{Env: "development", TaxRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for tax rate >= 1")
	}
	cfg = &Config{Env: "development", LowStockThreshold: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative low stock threshold")
	}
	cfg = &Config{Env: "development", TaxRate: 0.08, DeliveryFee: 2.5, LowStockThreshold: 10, CancelCutoffHours: 24}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
