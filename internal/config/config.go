package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultDPI         = 200
	DefaultTolerance   = 2
	DefaultGeminiModel = "gemini-2.5-flash"

	// EnvPrefix prefixes every environment variable, e.g. PDF_FIELDS_DPI
	EnvPrefix = "PDF_FIELDS"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF fields server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Detection configuration
	DPI       float64 // raster density of page images
	Tolerance int     // pixels a rule line is grown by before the table test
	Workers   int     // pages analyzed concurrently

	// Field naming; an empty key selects the local namer
	GeminiAPIKey string
	GeminiModel  string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		DPI:          DefaultDPI,
		Tolerance:    DefaultTolerance,
		Workers:      runtime.NumCPU(),
		GeminiModel:  DefaultGeminiModel,
		Version:      "1.0.0",
		ServerName:   "mcp-pdf-fields",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	SetDefaults(cfg)
	DefineFlags(pflag.CommandLine, cfg)
	BindFlags(pflag.CommandLine)
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := Populate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Populate fills cfg from viper, expands the PDF directory and validates the
// result. Flags must already be bound.
func Populate(cfg *Config) error {
	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SetDefaults registers the environment prefix and the defaults of cfg with viper
func SetDefaults(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("dpi", cfg.DPI)
	viper.SetDefault("tolerance", cfg.Tolerance)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("gemini-key", cfg.GeminiAPIKey)
	viper.SetDefault("gemini-model", cfg.GeminiModel)
}

// DefineFlags adds every configuration flag to fs
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Float64("dpi", cfg.DPI, "Resolution page images are rendered at for field detection")
	fs.Int("tolerance", cfg.Tolerance, "Pixels a rule line is grown by before testing it against table borders")
	fs.Int("workers", cfg.Workers, "Pages analyzed concurrently")
	fs.String("gemini-key", cfg.GeminiAPIKey, "Gemini API key for naming fields from labels (optional)")
	fs.String("gemini-model", cfg.GeminiModel, "Gemini model used for naming fields")
}

// BindFlags binds the flags of fs to viper configuration keys
func BindFlags(fs *pflag.FlagSet) {
	for _, key := range keys {
		if f := fs.Lookup(key); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// gemini-key is read from PDF_FIELDS_GEMINI_KEY
var envKeyReplacer = strings.NewReplacer("-", "_")

var keys = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"dpi", "tolerance", "workers", "gemini-key", "gemini-model",
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Fields - A Model Context Protocol server for adding form fields to PDF files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dpi=300 --workers=2                   # detection tuning\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_MODE          Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_HOST          Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_PORT          Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_DIR           PDF directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_MAXFILESIZE   Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_DPI           Page image resolution\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_TOLERANCE     Table border tolerance\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_WORKERS       Concurrent pages\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_GEMINI_KEY    Gemini API key\n")
		fmt.Fprintf(os.Stderr, "  PDF_FIELDS_GEMINI_MODEL  Gemini model\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.DPI = viper.GetFloat64("dpi")
	cfg.Tolerance = viper.GetInt("tolerance")
	cfg.Workers = viper.GetInt("workers")
	cfg.GeminiAPIKey = viper.GetString("gemini-key")
	cfg.GeminiModel = viper.GetString("gemini-model")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.DPI < 36 || c.DPI > 1200 {
		return fmt.Errorf("dpi must be between 36 and 1200, got %g", c.DPI)
	}
	if c.Tolerance < 0 {
		return errors.New("tolerance cannot be negative")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// HasGemini reports whether field naming should use Gemini
func (c *Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// String returns a string representation of the configuration. The Gemini
// key is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"DPI: %g, Tolerance: %d, Workers: %d, Gemini: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.DPI, c.Tolerance, c.Workers, c.HasGemini())
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
