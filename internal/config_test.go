package internal

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.ApprovalTimeout != 60*time.Second {
		t.Errorf("ApprovalTimeout = %v, want 60s", cfg.ApprovalTimeout)
	}
	if cfg.EventsPerSecond != 40 || cfg.EventBurst != 80 {
		t.Errorf("rate limits = (%d, %d), want (40, 80)", cfg.EventsPerSecond, cfg.EventBurst)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APPROVAL_TIMEOUT", "15s")
	t.Setenv("BADGER_PATH", "/tmp/test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ApprovalTimeout != 15*time.Second {
		t.Errorf("ApprovalTimeout = %v, want 15s", cfg.ApprovalTimeout)
	}
	if cfg.BadgerPath != "/tmp/test.db" {
		t.Errorf("BadgerPath = %q", cfg.BadgerPath)
	}
}
