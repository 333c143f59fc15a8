package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/security"
)

// Validator checks that files are PDFs the service can work on
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile reports whether a file is a readable PDF, its page count and
// whether fields can still be added to it
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	facts, err := v.inspect(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // an invalid file is a result, not a failure
	}

	result.Valid = true
	result.Pages = facts.pages
	result.HasForm = facts.hasForm
	if facts.encrypted {
		result.Encrypted = true
		result.Permissions = facts.perms.Allowed()
	}
	switch {
	case facts.hasForm:
		result.Message = "file already has a form; fields cannot be added to it"
	case facts.encrypted && !facts.perms.CanAddFields():
		result.Message = "file is encrypted and does not permit adding form fields"
	case facts.encrypted:
		result.Message = "file is encrypted; decrypt it before adding fields"
	}
	return result, nil
}

// validatePDFFile returns an error unless filePath is a readable PDF
func (v *Validator) validatePDFFile(filePath string) error {
	_, err := v.inspect(filePath)
	return err
}

type fileFacts struct {
	pages     int
	hasForm   bool
	encrypted bool
	perms     security.Permissions
}

func (v *Validator) inspect(filePath string) (fileFacts, error) {
	var facts fileFacts
	if filePath == "" {
		return facts, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return facts, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return facts, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return facts, err
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return facts, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	facts.pages = r.NumPage()
	if facts.pages == 0 {
		return facts, fmt.Errorf("PDF has no pages: %s", filePath)
	}

	trailer := r.Trailer()
	fields := trailer.Key("Root").Key("AcroForm").Key("Fields")
	facts.hasForm = fields.Kind() == pdf.Array && fields.Len() > 0

	if enc := trailer.Key("Encrypt"); !enc.IsNull() {
		facts.encrypted = true
		facts.perms = security.Permissions(int32(enc.Key("P").Int64()))
	}
	return facts, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.validatePDFFile(filePath) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
