package cakebot

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("cakebot", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DatabasePath != "cakebot.db" {
		t.Fatalf("expected default db path cakebot.db, got %q", cfg.DatabasePath)
	}
	if cfg.DisplayName != "local" {
		t.Fatalf("expected default display name local, got %q", cfg.DisplayName)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("CAKEBOT_DB_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("cakebot", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DatabasePath != "/tmp/flag.db" {
		t.Fatalf("expected flag override /tmp/flag.db, got %q", cfg.DatabasePath)
	}
}
