package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRunConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write run config: %v", err)
	}
	return path
}

func TestLoadRunConfigParsesAllFields(t *testing.T) {
	path := writeRunConfig(t, `
catalogue_path: /tmp/catalogue.db
rule_config_path: /tmp/rules.json
similarity_config_path: /tmp/similarity.json
provenance_path: /tmp/provenance.db
timeout_seconds: 45
output_path: /tmp/result.json
`)

	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("loadRunConfig: %v", err)
	}
	if cfg.CataloguePath != "/tmp/catalogue.db" {
		t.Fatalf("unexpected catalogue path: %q", cfg.CataloguePath)
	}
	if cfg.RuleConfigPath != "/tmp/rules.json" {
		t.Fatalf("unexpected rule config path: %q", cfg.RuleConfigPath)
	}
	if cfg.Timeout() != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", cfg.Timeout())
	}
}

func TestLoadRunConfigRequiresCataloguePath(t *testing.T) {
	path := writeRunConfig(t, `rule_config_path: /tmp/rules.json`)

	if _, err := loadRunConfig(path); err == nil {
		t.Fatal("expected error for missing catalogue_path")
	}
}

func TestLoadRunConfigRejectsMissingFile(t *testing.T) {
	if _, err := loadRunConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing run config file")
	}
}

func TestRunConfigTimeoutDefaultsWhenUnset(t *testing.T) {
	cfg := RunConfig{CataloguePath: "/tmp/catalogue.db"}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("expected default 30s timeout, got %v", cfg.Timeout())
	}
}

func TestReadOptionalReturnsNilForEmptyPath(t *testing.T) {
	data, err := readOptional("")
	if err != nil {
		t.Fatalf("readOptional: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil data for empty path, got %v", data)
	}
}

func TestReadOptionalErrorsOnMissingNamedFile(t *testing.T) {
	if _, err := readOptional(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for a named but missing file")
	}
}
