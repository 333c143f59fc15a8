package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-fields/internal/config"
	"github.com/a3tai/mcp-pdf-fields/internal/descriptions"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}
	s.registerTools()

	return s, nil
}

const pathDescription = "Full path to the PDF file"

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	fieldSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name":    map[string]interface{}{"type": "string", "description": "Field name; derived from label when empty"},
			"kind":    map[string]interface{}{"type": "string", "enum": []string{"text", "checkbox", "listbox", "choice", "radio"}},
			"x":       map[string]interface{}{"type": "number", "description": "Left edge in PDF points"},
			"y":       map[string]interface{}{"type": "number", "description": "Bottom edge in PDF points"},
			"label":   map[string]interface{}{"type": "string"},
			"options": map[string]interface{}{"type": "object", "description": "Kind specific options such as width, size, value or options"},
		},
		"required": []string{"kind", "x", "y"},
	}
	imagesSchema := map[string]interface{}{"type": "string"}

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_add_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_add_fields")),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
		mcp.WithArray("pages",
			mcp.Description("One list of fields per page, in page order"),
			mcp.Items(map[string]interface{}{"type": "array", "items": fieldSchema}),
		),
		mcp.WithString("layout_path", mcp.Description("YAML or JSON field layout used instead of pages")),
		mcp.WithString("output_path", mcp.Description("Where to write the result; defaults to <name>_fields.pdf")),
	), s.handlePDFAddFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_detect_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_detect_fields")),
		mcp.WithString("path", mcp.Description(pathDescription+"; rendered when no images are given")),
		mcp.WithArray("images", mcp.Description("Page images in page order"), mcp.Items(imagesSchema)),
	), s.handlePDFDetectFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_auto_add_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_auto_add_fields")),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
		mcp.WithArray("images", mcp.Description("Page images in page order"), mcp.Items(imagesSchema)),
		mcp.WithString("output_path", mcp.Description("Where to write the result; defaults to <name>_fields.pdf")),
	), s.handlePDFAutoAddFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_list_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_list_fields")),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	), s.handlePDFListFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	), s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFAddFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFAddFieldsRequest{
		Path:       path,
		LayoutPath: request.GetString("layout_path", ""),
		OutputPath: request.GetString("output_path", ""),
	}
	if raw, ok := request.GetArguments()["pages"]; ok && raw != nil {
		if req.Pages, err = decodePages(raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := s.pdfService.PDFAddFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatPDFAddFieldsResult(result)), nil
}

func (s *Server) handlePDFDetectFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	images, err := stringList(request.GetArguments()["images"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFDetectFieldsRequest{Path: request.GetString("path", ""), Images: images}
	result, err := s.pdfService.PDFDetectFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatPDFDetectFieldsResult(result)), nil
}

func (s *Server) handlePDFAutoAddFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	images, err := stringList(request.GetArguments()["images"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFAutoAddFieldsRequest{
		Path:       path,
		OutputPath: request.GetString("output_path", ""),
		Images:     images,
	}
	result, err := s.pdfService.PDFAutoAddFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatPDFAutoAddFieldsResult(result)), nil
}

func (s *Server) handlePDFListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFListFields(pdf.PDFListFieldsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatPDFListFieldsResult(result)), nil
}

func (s *Server) handlePDFValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	switch {
	case !result.Valid:
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	case result.HasForm:
		responseText = fmt.Sprintf("PDF file %s is valid (%d pages) but already has a form", result.Path, result.Pages)
	case result.Encrypted:
		responseText = fmt.Sprintf("PDF file %s is valid (%d pages) but encrypted: %s (allowed: %s)",
			result.Path, result.Pages, result.Message, strings.Join(result.Permissions, ", "))
	default:
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages, no form)", result.Path, result.Pages)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{},
		s.config.ServerName, s.config.Version, s.config.PDFDirectory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// decodePages converts the JSON pages argument into field requests
func decodePages(raw interface{}) ([][]pdf.FieldRequest, error) {
	var pages [][]pdf.FieldRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &pages,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid pages: %w", err)
	}
	return pages, nil
}

func stringList(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("images must be a list of paths")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok || str == "" {
			return nil, fmt.Errorf("images must be a list of paths")
		}
		out = append(out, str)
	}
	return out, nil
}

// Formatting methods
func (s *Server) formatPDFAddFieldsResult(result *pdf.PDFAddFieldsResult) string {
	if result.OutputPath == "" {
		return fmt.Sprintf("No fields added to %s: %s", result.Path, result.Message)
	}
	text := fmt.Sprintf("Added %d field(s) to %s\n", result.FieldCount, result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	if len(result.Fields) > 0 {
		text += fmt.Sprintf("Fields: %s\n", strings.Join(result.Fields, ", "))
	}
	return text
}

func (s *Server) formatPDFDetectFieldsResult(result *pdf.PDFDetectFieldsResult) string {
	text := "Detected Fields"
	if result.Path != "" {
		text += fmt.Sprintf(" for %s", result.Path)
	}
	text += fmt.Sprintf(" (%g DPI)\n", result.DPI)

	for _, page := range result.Pages {
		text += fmt.Sprintf("\nPage %d (%dx%d pixels)", page.Page, page.Width, page.Height)
		if page.Error != "" {
			text += fmt.Sprintf(": %s\n", page.Error)
			continue
		}
		text += fmt.Sprintf(": %d text field(s), %d checkbox(es), %d checkbox group(s)\n",
			len(page.TextFields), len(page.CheckBoxes), page.Groups)
		for _, b := range page.TextFields {
			text += fmt.Sprintf("  • %s at (%.1f, %.1f) width %.1f pt\n", b.Name, b.Points.X, b.Points.Y, b.Points.W)
		}
		for _, b := range page.CheckBoxes {
			text += fmt.Sprintf("  • %s at (%.1f, %.1f) size %.1f pt", b.Name, b.Points.X, b.Points.Y, b.Points.H)
			if b.Filled {
				text += " [filled]"
			}
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatPDFAutoAddFieldsResult(result *pdf.PDFAutoAddFieldsResult) string {
	text := fmt.Sprintf("Added %d detected field(s) to %s\n", result.FieldCount, result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	if len(result.Fields) > 0 {
		text += fmt.Sprintf("Fields: %s\n", strings.Join(result.Fields, ", "))
	}
	if len(result.PageErrors) > 0 {
		text += "\n⚠️  Pages skipped:\n"
		for _, e := range result.PageErrors {
			text += fmt.Sprintf("  • %s\n", e)
		}
	}
	return text
}

func (s *Server) formatPDFListFieldsResult(result *pdf.PDFListFieldsResult) string {
	if result.FieldCount == 0 {
		return fmt.Sprintf("%s has no form fields (%d pages)", result.Path, result.Pages)
	}
	text := fmt.Sprintf("%d form field(s) in %s (%d pages)\n\n", result.FieldCount, result.Path, result.Pages)
	for i, f := range result.Fields {
		text += fmt.Sprintf("%d. %s (%s) page %d [%.1f %.1f %.1f %.1f]",
			i+1, f.Name, f.Type, f.Page, f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
		if f.Widgets > 1 {
			text += fmt.Sprintf(", %d widgets", f.Widgets)
		}
		if f.Value != "" {
			text += fmt.Sprintf(", value %q", f.Value)
		}
		text += "\n"
	}
	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔍 Detection: %g DPI, field names by %s namer\n", result.DPI, result.Namer)
	text += fmt.Sprintf("🧾 Field Kinds: %s\n\n", strings.Join(result.FieldKinds, ", "))

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += fmt.Sprintf("\n🖼️  Supported Image Formats: %s\n", strings.Join(result.SupportedFormats, ", "))
	}

	text += "\n" + result.UsageGuidance
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF fields MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)
	log.Printf("Starting PDF fields MCP server on %s", s.config.Address())

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(s.config.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		if err := sse.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
