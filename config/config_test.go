package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  host: 127.0.0.1\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.UploadDir != "uploads" || cfg.Storage.ProcessedDir != "processed" {
		t.Fatalf("unexpected default dirs: %s / %s", cfg.Storage.UploadDir, cfg.Storage.ProcessedDir)
	}
	if cfg.Storage.MaxChunkChars != 4000 {
		t.Fatalf("expected default chunk size 4000, got %d", cfg.Storage.MaxChunkChars)
	}
	if len(cfg.Storage.AllowedExtensions) == 0 {
		t.Fatalf("expected default allowed extensions")
	}
	if cfg.Translator.Provider != "google" || cfg.Translator.SourceLanguage != "auto" {
		t.Fatalf("unexpected translator defaults: %+v", cfg.Translator)
	}
	if len(cfg.Languages) == 0 {
		t.Fatalf("expected default language list")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
storage:
  max_chunk_chars: 1000
  allowed_extensions: [".txt"]
translator:
  provider: identity
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.MaxChunkChars != 1000 {
		t.Fatalf("expected chunk size 1000, got %d", cfg.Storage.MaxChunkChars)
	}
	if len(cfg.Storage.AllowedExtensions) != 1 {
		t.Fatalf("expected single extension, got %v", cfg.Storage.AllowedExtensions)
	}
	if cfg.Translator.Provider != "identity" {
		t.Fatalf("expected identity provider, got %s", cfg.Translator.Provider)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestIsLanguageSupported(t *testing.T) {
	cfg := &Config{Languages: []Language{{Code: "ko"}, {Code: "zh-CN"}}}
	if !cfg.IsLanguageSupported("ko") || !cfg.IsLanguageSupported("zh-CN") {
		t.Fatalf("expected configured languages to be supported")
	}
	if cfg.IsLanguageSupported("de") {
		t.Fatalf("unexpected language reported as supported")
	}
}

func TestFontForLanguage(t *testing.T) {
	cfg := &Config{PDF: PDFConfig{
		DefaultFont: "fonts/default.ttf",
		Fonts:       map[string]string{"ko": "fonts/kr.ttf"},
	}}
	if got := cfg.FontForLanguage("ko"); got != "fonts/kr.ttf" {
		t.Fatalf("expected language font, got %s", got)
	}
	if got := cfg.FontForLanguage("fr"); got != "fonts/default.ttf" {
		t.Fatalf("expected default font fallback, got %s", got)
	}
}
