package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Form Tools
	PDFAddFieldsDescription = `Add fillable form fields to a PDF at exact positions.

**When to use:** You know where each field belongs, in PDF points from the lower-left corner of the page, and want a fillable copy of the document.

**Why it's useful:** Builds text boxes, checkboxes, dropdowns, list boxes and radio groups with proper appearances, then merges them into the original pages without touching their content.

**Examples:**
• Intake form: "Add a text field 'full_name' at (72, 700) and a checkbox 'agree' at (72, 650) to intake.pdf"
• Reusable layout: "Apply layouts/lease.yaml to lease.pdf"
• Unnamed fields: "Add a text field labelled 'Date of Birth' to page 1" (named users1_birthdate)

**Common workflows:**
1. Manual layout: pdf_detect_fields → adjust boxes → pdf_add_fields
2. Templating: Write a YAML layout once → pdf_add_fields for every copy of the form
3. Verification: pdf_add_fields → pdf_list_fields to confirm names and positions

**Best practices:** Give one list of fields per page, in page order. Files that already contain a form are refused; the output is written next to the input as <name>_fields.pdf unless output_path is set.`

	PDFDetectFieldsDescription = `Find the blanks and checkboxes on the pages of a PDF without changing it.

**When to use:** You want to see where fields would go before adding them, or to review what pdf_auto_add_fields would do.

**Why it's useful:** Finds underscore rules and empty boxes in page images, ignores table borders, and reports every candidate in both pixel and PDF point coordinates.

**Examples:**
• Preview: "Which blanks does application.pdf have?"
• Scanned forms: "Detect fields using the page images scan-1.png and scan-2.png"
• Tuning: "Check which checkboxes on survey.pdf are already ticked"

**Common workflows:**
1. Review: pdf_detect_fields → pick boxes → pdf_add_fields with the point coordinates
2. Diagnosis: pdf_auto_add_fields reports page errors → pdf_detect_fields on those pages

**Best practices:** Page images should be rendered at the server DPI. Without images the PDF is rendered with pdftoppm.`

	PDFAutoAddFieldsDescription = `Detect the blanks and checkboxes on every page and turn them into fillable fields.

**When to use:** You have a flat, printable form and want a fillable version in one step.

**Why it's useful:** Combines detection and field placement. Pages that cannot be analyzed are reported and skipped while the rest of the document still gets its fields.

**Examples:**
• One step: "Make claim-form.pdf fillable"
• Scans: "Make scanned.pdf fillable using the page images page-1.png and page-2.png"

**Common workflows:**
1. Quick conversion: pdf_auto_add_fields → pdf_list_fields → rename or adjust with pdf_add_fields on the original
2. Batch: pdf_server_info to list files → pdf_auto_add_fields for each

**Best practices:** Fields are named page_<n>_field_<k> and page_<n>_check_<k> with n and k counted from 0. Check page_errors in the response.`

	PDFListFieldsDescription = `List the form fields of a PDF with their type, page, position and value.

**When to use:** Inspecting a fillable PDF, or confirming the result of pdf_add_fields or pdf_auto_add_fields.

**Why it's useful:** Walks the whole field tree, including radio groups and fields with several widgets, and reports where each one sits.

**Examples:**
• Audit: "Which fields does w9_fields.pdf have?"
• Filling: "List the fields of application.pdf so I can fill them in"

**Best practices:** Rectangles are in PDF points from the lower-left corner; page numbers start at 1.`

	PDFValidateFileDescription = `Verify a PDF is readable and report whether it already has a form.

**When to use:** Before adding fields, especially in automated workflows or when handling user uploads.

**Why it's useful:** Catches missing, oversized or corrupt files early and tells you whether fields can be added at all.

**Examples:**
• Pre-check: "Can fields be added to contract.pdf?"
• Upload verification: "Check the uploaded form.pdf is valid"

**Best practices:** Fields can only be added to files where has_form is false.`

	PDFServerInfoDescription = `Get server configuration, available tools and the PDF files in the working directory.

**When to use:** At the start of a session, to learn the server's directory, limits and detection settings.

**Why it's useful:** Shows which files can be worked on, the field kinds supported and how fields are named.

**Examples:**
• Orientation: "What can this PDF server do?"
• Discovery: "Which PDFs are in the working directory?"

**Best practices:** Directory listings are cached for a few minutes and limited to 100 files.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_add_fields":      PDFAddFieldsDescription,
	"pdf_detect_fields":   PDFDetectFieldsDescription,
	"pdf_auto_add_fields": PDFAutoAddFieldsDescription,
	"pdf_list_fields":     PDFListFieldsDescription,
	"pdf_validate_file":   PDFValidateFileDescription,
	"pdf_server_info":     PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
