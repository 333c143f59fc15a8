package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-pdf-fields" {
		t.Errorf("Expected default server name to be 'mcp-pdf-fields', got '%s'", cfg.ServerName)
	}
	if cfg.DPI != 200 {
		t.Errorf("Expected default DPI to be 200, got %g", cfg.DPI)
	}
	if cfg.Tolerance != 2 {
		t.Errorf("Expected default tolerance to be 2, got %d", cfg.Tolerance)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Expected default workers to be %d, got %d", runtime.NumCPU(), cfg.Workers)
	}
	if cfg.GeminiModel != DefaultGeminiModel || cfg.HasGemini() {
		t.Errorf("Expected Gemini to be off with model %s, got key set=%t model=%s",
			DefaultGeminiModel, cfg.HasGemini(), cfg.GeminiModel)
	}

	currentDir, _ := os.Getwd()
	if cfg.PDFDirectory != currentDir {
		t.Errorf("Expected default PDF directory to be '%s', got '%s'", currentDir, cfg.PDFDirectory)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "server mode", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "invalid port", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 0 }, wantErr: "port must be"},
		{name: "port ignored in stdio", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: "cannot be empty"},
		{name: "zero file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "must be positive"},
		{name: "low dpi", mutate: func(c *Config) { c.DPI = 10 }, wantErr: "dpi must be"},
		{name: "high dpi", mutate: func(c *Config) { c.DPI = 5000 }, wantErr: "dpi must be"},
		{name: "negative tolerance", mutate: func(c *Config) { c.Tolerance = -1 }, wantErr: "tolerance"},
		{name: "zero tolerance", mutate: func(c *Config) { c.Tolerance = 0 }},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	cfg := validConfig(t)
	cfg.PDFDirectory = filepath.Join(cfg.PDFDirectory, "nested", "pdfs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if info, err := os.Stat(cfg.PDFDirectory); err != nil || !info.IsDir() {
		t.Errorf("Validate() did not create %s", cfg.PDFDirectory)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9090
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}

	if cfg.IsDebug() {
		t.Error("IsDebug() = true for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() = false for debug level")
	}

	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("default mode should be stdio")
	}
	cfg.Mode = ModeServer
	if cfg.IsStdioMode() || !cfg.IsServerMode() {
		t.Error("mode should be server")
	}
}

func TestConfigString_HidesGeminiKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = "secret-key"

	s := cfg.String()
	if strings.Contains(s, "secret-key") {
		t.Errorf("String() leaks the Gemini key: %s", s)
	}
	if !strings.Contains(s, "Gemini: true") || !strings.Contains(s, "DPI: 200") {
		t.Errorf("String() = %s, want Gemini and DPI settings", s)
	}
}
