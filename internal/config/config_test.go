package config

import (
	"testing"
	"time"
)

func TestDefaultVerifierKnobs(t *testing.T) {
	cfg := Default()

	if cfg.Verifier.ConnectTimeout != 30*time.Second {
		t.Errorf("expected 30s connect timeout, got %v", cfg.Verifier.ConnectTimeout)
	}
	if cfg.Verifier.QueryTimeout != 60*time.Second {
		t.Errorf("expected 60s query timeout, got %v", cfg.Verifier.QueryTimeout)
	}
	if cfg.Verifier.MaxConnections != 10 {
		t.Errorf("expected 10 max connections, got %d", cfg.Verifier.MaxConnections)
	}
	if cfg.Verifier.MaxTableWorkers != 5 {
		t.Errorf("expected 5 table workers, got %d", cfg.Verifier.MaxTableWorkers)
	}
	if cfg.Verifier.SampleSize != 5 {
		t.Errorf("expected sample size 5, got %d", cfg.Verifier.SampleSize)
	}
	if cfg.Verifier.SchemaCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m schema cache TTL, got %v", cfg.Verifier.SchemaCacheTTL)
	}
	if cfg.Verifier.NetworkIdleTTL != 5*time.Minute {
		t.Errorf("expected 5m network idle TTL, got %v", cfg.Verifier.NetworkIdleTTL)
	}
	if cfg.Verifier.FileIdleTTL != 30*time.Second {
		t.Errorf("expected 30s file idle TTL, got %v", cfg.Verifier.FileIdleTTL)
	}
	if !cfg.Verifier.Parallel {
		t.Error("parallel verification should default to enabled")
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without a config file should use defaults: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}
