package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

// withArgs runs LoadFromFlags with the given arguments and restores global
// state afterwards
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})

	os.Args = append([]string{"mcp-pdf-fields"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	cfg, err := withArgs(t, "--dir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.DPI != 200 {
		t.Errorf("LoadFromFlags() DPI = %v, want %v", cfg.DPI, 200)
	}
	if cfg.Tolerance != 2 {
		t.Errorf("LoadFromFlags() Tolerance = %v, want %v", cfg.Tolerance, 2)
	}
	if cfg.GeminiModel != DefaultGeminiModel {
		t.Errorf("LoadFromFlags() GeminiModel = %v, want %v", cfg.GeminiModel, DefaultGeminiModel)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantDPI       float64
		wantTolerance int
		wantWorkers   int
		wantLogLevel  string
	}{
		{
			name:          "detection tuning",
			args:          []string{"--dpi=300", "--tolerance=4", "--workers=3"},
			wantDPI:       300,
			wantTolerance: 4,
			wantWorkers:   3,
			wantLogLevel:  "info",
		},
		{
			name:          "debug logging",
			args:          []string{"--loglevel=debug", "--workers=1"},
			wantDPI:       200,
			wantTolerance: 2,
			wantWorkers:   1,
			wantLogLevel:  "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := withArgs(t, append(tt.args, "--dir="+t.TempDir())...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			if cfg.DPI != tt.wantDPI {
				t.Errorf("LoadFromFlags() DPI = %v, want %v", cfg.DPI, tt.wantDPI)
			}
			if cfg.Tolerance != tt.wantTolerance {
				t.Errorf("LoadFromFlags() Tolerance = %v, want %v", cfg.Tolerance, tt.wantTolerance)
			}
			if cfg.Workers != tt.wantWorkers {
				t.Errorf("LoadFromFlags() Workers = %v, want %v", cfg.Workers, tt.wantWorkers)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	t.Setenv("PDF_FIELDS_MODE", "server")
	t.Setenv("PDF_FIELDS_PORT", "3000")
	t.Setenv("PDF_FIELDS_DIR", t.TempDir())
	t.Setenv("PDF_FIELDS_DPI", "150")
	t.Setenv("PDF_FIELDS_GEMINI_KEY", "from-env")

	cfg, err := withArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.DPI != 150 {
		t.Errorf("LoadFromFlags() DPI = %v, want %v", cfg.DPI, 150)
	}
	if cfg.GeminiAPIKey != "from-env" {
		t.Errorf("LoadFromFlags() GeminiAPIKey = %v, want %v", cfg.GeminiAPIKey, "from-env")
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("PDF_FIELDS_DPI", "150")
	t.Setenv("PDF_FIELDS_WORKERS", "8")

	cfg, err := withArgs(t, "--dpi=100", "--workers=2", "--dir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.DPI != 100 {
		t.Errorf("LoadFromFlags() DPI = %v, want %v (should override env)", cfg.DPI, 100)
	}
	if cfg.Workers != 2 {
		t.Errorf("LoadFromFlags() Workers = %v, want %v (should override env)", cfg.Workers, 2)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "mode", args: []string{"--mode=invalid"}, wantErr: "mode must be either 'stdio' or 'server'"},
		{name: "port", args: []string{"--mode=server", "--port=99999"}, wantErr: "port must be between 1 and 65535"},
		{name: "log level", args: []string{"--loglevel=invalid"}, wantErr: "invalid log level"},
		{name: "dpi", args: []string{"--dpi=0"}, wantErr: "dpi must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := withArgs(t, append(tt.args, "--dir="+t.TempDir())...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := withArgs(t, "--version")
	if err == nil || err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
