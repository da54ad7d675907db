package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lysyi3m/regcheck/app/registry"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "banks", `
domain: banks
url: "https://www.cbr.ru/Queries/UniDbQuery/DownloadExcel/98547?FromDate={date}&ToDate={date}"
referer: "https://www.cbr.ru/banking_sector/credit/FullCoList/"
local:
  path: "/data/book.xlsx"
settings:
  enabled: true
  refresh_interval: 86400
  timeout: 60
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("banks")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "banks" {
		t.Errorf("Expected name 'banks', got '%s'", config.Name)
	}
	if config.Domain != registry.DomainBanks {
		t.Errorf("Expected domain banks, got '%s'", config.Domain)
	}
	if config.Referer != "https://www.cbr.ru/banking_sector/credit/FullCoList/" {
		t.Errorf("Expected referer to be loaded, got '%s'", config.Referer)
	}
	if config.Local.Sheet != registry.BankLocalSheet {
		t.Errorf("Expected default bank sheet '%s', got '%s'", registry.BankLocalSheet, config.Local.Sheet)
	}
	if config.Settings.Timeout != 60 {
		t.Errorf("Expected timeout 60, got %d", config.Settings.Timeout)
	}
	if !config.Scheduled() {
		t.Error("Expected source with URL and refresh interval to be scheduled")
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "persons", `
domain: watchlist
local:
  path: "/data/persons.xlsx"
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	config, err := configCache.LoadConfig("persons")
	if err != nil {
		t.Fatal(err)
	}

	if config.Settings.Timeout != 40 {
		t.Errorf("Expected default timeout 40, got %d", config.Settings.Timeout)
	}
	if config.Local.Sheet != "" {
		t.Errorf("Expected first sheet for watchlist book, got '%s'", config.Local.Sheet)
	}
	if config.Scheduled() {
		t.Error("Expected upload-only source not to be scheduled")
	}
}

func TestConfigCacheValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"missing domain", "local:\n  path: a.xlsx\n", "domain is required"},
		{"unknown domain", "domain: rss\nlocal:\n  path: a.xlsx\n", "unsupported domain"},
		{"diff is not a source", "domain: diff\nlocal:\n  path: a.xlsx\n", "unsupported domain"},
		{"missing local path", "domain: watchlist\n", "local book path is required"},
		{"registry without url", "domain: mfo\nlocal:\n  path: a.xlsx\n", "registry URL is required"},
		{"negative interval", "domain: mfo\nurl: http://x\nlocal:\n  path: a.xlsx\nsettings:\n  refresh_interval: -1\n", "must be non-negative"},
		{"broken yaml", "domain: [mfo\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeConfig(t, tempDir, "source", tt.content)

			_, err := NewConfigCache(tempDir).LoadConfig("source")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing '%s', got '%v'", tt.errText, err)
			}
		})
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected no error for missing directory, got %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
	if _, err := configCache.GetConfig("banks"); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestConfigCacheEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "mfo", "domain: mfo\nurl: http://x\nlocal:\n  path: a.xlsx\nsettings:\n  enabled: true\n")
	writeConfig(t, tempDir, "banks", "domain: banks\nurl: http://y\nlocal:\n  path: b.xlsx\nsettings:\n  enabled: false\n")

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if len(configCache.GetConfigs()) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configCache.GetConfigs()))
	}
	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["mfo"]; !ok {
		t.Error("Expected mfo to be enabled")
	}
}
