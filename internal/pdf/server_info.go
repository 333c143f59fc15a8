package pdf

import (
	"context"
	"fmt"

	"github.com/a3tai/mcp-pdf-fields/internal/descriptions"
	"github.com/a3tai/mcp-pdf-fields/internal/naming"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
)

// PDFServerInfo returns server information, the available tools and the PDF
// files in the working directory
func (s *Service) PDFServerInfo(ctx context.Context, _ PDFServerInfoRequest, serverName, version, directory string) (*PDFServerInfoResult, error) {
	dir := directory
	if err := s.pathValidator.ValidateDirectory(dir); err != nil {
		dir = s.pathValidator.GetConfiguredDirectory()
	}

	scan, err := s.files.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	kinds := []string{}
	for _, k := range forms.Kinds() {
		kinds = append(kinds, k.String())
	}

	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.maxFileSize,
		DPI:               s.dpi,
		Namer:             namerName(s.namer),
		FieldKinds:        kinds,
		AvailableTools:    availableTools(),
		DirectoryContents: scan.Files,
		UsageGuidance:     s.usageGuidance(scan.Truncated),
		SupportedFormats:  SupportedImageFormats(),
	}, nil
}

// SupportedImageFormats lists the page image formats detection can decode
func SupportedImageFormats() []string {
	return []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}
}

func namerName(n naming.Namer) string {
	switch n.(type) {
	case *naming.Gemini:
		return "gemini"
	default:
		return "local"
	}
}

func availableTools() []ToolInfo {
	const pathParam = "path (required): Full path to the PDF file (supports both absolute and relative paths)"
	return []ToolInfo{
		{
			Name:        "pdf_add_fields",
			Description: descriptions.GetToolDescription("pdf_add_fields"),
			Usage:       "Use this tool to place fields at known positions, given inline or as a YAML/JSON layout file.",
			Parameters: pathParam + ", pages (optional): one list of fields per page, " +
				"layout_path (optional): layout file used instead of pages, output_path (optional): where to write",
		},
		{
			Name:        "pdf_detect_fields",
			Description: descriptions.GetToolDescription("pdf_detect_fields"),
			Usage:       "Use this tool to preview the blanks and checkboxes found on each page.",
			Parameters:  "path (optional): PDF to render, images (optional): page images used instead of rendering",
		},
		{
			Name:        "pdf_auto_add_fields",
			Description: descriptions.GetToolDescription("pdf_auto_add_fields"),
			Usage:       "Use this tool to make a flat form fillable in one step.",
			Parameters:  pathParam + ", images (optional): page images, output_path (optional): where to write",
		},
		{
			Name:        "pdf_list_fields",
			Description: descriptions.GetToolDescription("pdf_list_fields"),
			Usage:       "Use this tool to inspect the fields of a fillable PDF.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check a file is a readable PDF without a form before adding fields.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server settings and the PDF files in the working directory.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance(truncated bool) string {
	guide := fmt.Sprintf(`PDF Fields MCP Server Usage Guide:

1. CHECK THE FILE:
   - Use 'pdf_validate_file' first; fields cannot be added to a file with has_form true

2. ADD FIELDS:
   - 'pdf_auto_add_fields' detects blanks and checkboxes and adds them in one step
   - 'pdf_detect_fields' previews the same detection without writing anything
   - 'pdf_add_fields' places fields at exact positions in PDF points, origin lower-left

3. VERIFY:
   - Use 'pdf_list_fields' on the output file

FIELD NAMES:
- Fields without a name are named from their label by the %s namer
- Detected fields are named page_<n>_field_<k> and page_<n>_check_<k>, counting from 0

IMPORTANT NOTES:
- Page images are expected at %g DPI
- The server can handle files up to %dMB
- Output is written as <name>_fields.pdf unless output_path is given`,
		namerName(s.namer), s.dpi, s.maxFileSize/(1024*1024))
	if truncated {
		guide += "\n- The directory listing was truncated at 100 files"
	}
	return guide
}
