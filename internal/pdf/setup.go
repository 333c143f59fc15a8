package pdf

import (
	"context"
	"fmt"

	"github.com/a3tai/mcp-pdf-fields/internal/config"
	"github.com/a3tai/mcp-pdf-fields/internal/naming"
)

// NewServiceFromConfig creates a service from the application configuration.
// A Gemini key selects the Gemini namer; otherwise fields are named locally.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	var namer naming.Namer = naming.Local{}
	if cfg.HasGemini() {
		g, err := naming.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini namer: %w", err)
		}
		namer = g
	}

	return NewService(ServiceConfig{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.PDFDirectory,
		DPI:         cfg.DPI,
		Tolerance:   cfg.Tolerance,
		Workers:     cfg.Workers,
		Namer:       namer,
		Debug:       cfg.IsDebug(),
	})
}
