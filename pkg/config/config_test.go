package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNKeepsExplicitValue(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://u:p@localhost:5432/haunt"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensure dsn: %v", err)
	}
	if cfg.DSN != "postgres://u:p@localhost:5432/haunt" {
		t.Fatalf("dsn was rewritten: %s", cfg.DSN)
	}
}

func TestEnsureDSNAssemblesFromLegacyParts(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5432,
		LegacyUser:     "haunt",
		LegacyPassword: "s3cret",
		LegacyName:     "inventory",
		LegacySSLMode:  "require",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensure dsn: %v", err)
	}
	for _, fragment := range []string{"postgres://", "haunt:s3cret@", "db.internal:5432", "/inventory", "sslmode=require"} {
		if !strings.Contains(cfg.DSN, fragment) {
			t.Fatalf("dsn %q missing %q", cfg.DSN, fragment)
		}
	}
}

func TestEnsureDSNReportsMissingLegacyParts(t *testing.T) {
	cfg := DBConfig{LegacyHost: "db.internal"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatal("expected error for missing legacy settings")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("error should name missing vars: %v", err)
	}
}

func TestAppEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Fatal("expected IsDev to be case-insensitive")
	}
	if (AppConfig{Env: "dev"}).IsProd() {
		t.Fatal("dev env reported as prod")
	}
}
