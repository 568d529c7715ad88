package config

import "testing"

type envTestConfig struct {
	Port int    `env:"CAKEBOT_TEST_PORT" envDefault:"123"`
	Name string `env:"CAKEBOT_TEST_NAME" envDefault:"cakebot"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 || cfg.Name != "cakebot" {
		t.Fatalf("expected tag defaults, got %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("CAKEBOT_TEST_PORT", "8080")
	t.Setenv("CAKEBOT_TEST_NAME", "partybot")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8080 || cfg.Name != "partybot" {
		t.Fatalf("expected environment overrides, got %+v", cfg)
	}
}

func TestParseEnvInvalidValue(t *testing.T) {
	t.Setenv("CAKEBOT_TEST_PORT", "not-an-int")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
