package pdf

import (
	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// FieldRequest describes one field to add. An empty name is derived from the
// label.
type FieldRequest struct {
	Name    string                 `json:"name,omitempty"`
	Kind    string                 `json:"kind"`
	X       float64                `json:"x"`
	Y       float64                `json:"y"`
	Label   string                 `json:"label,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Request Types

// PDFAddFieldsRequest represents a request to add form fields to a PDF file.
// Fields come either inline, one list per page, or from a YAML/JSON layout file.
type PDFAddFieldsRequest struct {
	Path       string           `json:"path"`
	OutputPath string           `json:"output_path,omitempty"`
	Pages      [][]FieldRequest `json:"pages,omitempty"`
	LayoutPath string           `json:"layout_path,omitempty"`
}

// PDFDetectFieldsRequest represents a request to detect field geometry.
// Images are pre-rendered page images; without them Path is rasterized.
type PDFDetectFieldsRequest struct {
	Path   string   `json:"path,omitempty"`
	Images []string `json:"images,omitempty"`
}

// PDFAutoAddFieldsRequest represents a request to detect fields and add them
type PDFAutoAddFieldsRequest struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// PDFListFieldsRequest represents a request to list the form fields of a PDF file
type PDFListFieldsRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// PDFAddFieldsResult represents the result of adding fields
type PDFAddFieldsResult struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path,omitempty"`
	Pages      int      `json:"pages"`
	FieldCount int      `json:"field_count"`
	Fields     []string `json:"fields"`
	Message    string   `json:"message,omitempty"`
}

// DetectedBox is one candidate field in pixel and point space
type DetectedBox struct {
	Name   string            `json:"name"`
	Pixels geometry.PixelBox `json:"pixels"`
	Points geometry.PointBox `json:"points"`
	Filled bool              `json:"filled,omitempty"`
}

// PageDetection is the detection result for one page
type PageDetection struct {
	Page       int           `json:"page"` // 1-based
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	TextFields []DetectedBox `json:"text_fields"`
	CheckBoxes []DetectedBox `json:"checkboxes"`
	Groups     int           `json:"checkbox_groups"`
	Error      string        `json:"error,omitempty"`
}

// PDFDetectFieldsResult represents the result of field detection
type PDFDetectFieldsResult struct {
	Path  string          `json:"path,omitempty"`
	DPI   float64         `json:"dpi"`
	Pages []PageDetection `json:"pages"`
}

// PDFAutoAddFieldsResult represents the result of automatic field addition
type PDFAutoAddFieldsResult struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path"`
	Pages      int      `json:"pages"`
	FieldCount int      `json:"field_count"`
	Fields     []string `json:"fields"`
	PageErrors []string `json:"page_errors,omitempty"`
}

// PDFListFieldsResult represents the form fields of a PDF file
type PDFListFieldsResult struct {
	Path       string            `json:"path"`
	Pages      int               `json:"pages"`
	FieldCount int               `json:"field_count"`
	Fields     []forms.FieldInfo `json:"fields"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid       bool     `json:"valid"`
	Path        string   `json:"path"`
	Pages       int      `json:"pages,omitempty"`
	HasForm     bool     `json:"has_form"`
	Encrypted   bool     `json:"encrypted,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct {
	// No parameters needed for server info
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	DPI               float64    `json:"dpi"`
	Namer             string     `json:"namer"`
	FieldKinds        []string   `json:"field_kinds"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	SupportedFormats  []string   `json:"supported_image_formats"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
