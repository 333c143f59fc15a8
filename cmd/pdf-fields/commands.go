package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-fields/internal/config"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf"
)

// newRootCmd builds the command tree. Every subcommand shares the server's
// configuration flags and PDF_FIELDS_* environment variables.
func newRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	config.SetDefaults(cfg)

	root := &cobra.Command{
		Use:           "pdf-fields",
		Short:         "Add fillable form fields to PDF files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Populate(cfg); err != nil {
				return err
			}
			if !cfg.IsDebug() {
				log.SetOutput(io.Discard)
			}
			return nil
		},
	}
	config.DefineFlags(root.PersistentFlags(), cfg)
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		addCmd(cfg),
		detectCmd(cfg),
		autoCmd(cfg),
		listCmd(cfg),
		validateCmd(cfg),
	)
	return root
}

func service(cmd *cobra.Command, cfg *config.Config) (*pdf.Service, error) {
	return pdf.NewServiceFromConfig(cmd.Context(), cfg)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func addCmd(cfg *config.Config) *cobra.Command {
	var layout, out string
	cmd := &cobra.Command{
		Use:   "add <pdf>",
		Short: "Add the fields of a YAML or JSON layout to a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := service(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := s.PDFAddFields(cmd.Context(), pdf.PDFAddFieldsRequest{
				Path:       args[0],
				LayoutPath: layout,
				OutputPath: out,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&layout, "layout", "l", "", "field layout file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PDF (default: <name>_fields.pdf)")
	_ = cmd.MarkFlagRequired("layout")
	return cmd
}

func detectCmd(cfg *config.Config) *cobra.Command {
	var images []string
	cmd := &cobra.Command{
		Use:   "detect [pdf]",
		Short: "Print the field boxes found on every page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := service(cmd, cfg)
			if err != nil {
				return err
			}
			req := pdf.PDFDetectFieldsRequest{Images: images}
			if len(args) == 1 {
				req.Path = args[0]
			}
			res, err := s.PDFDetectFields(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringSliceVar(&images, "images", nil, "page images in page order, used instead of rendering the PDF")
	return cmd
}

func autoCmd(cfg *config.Config) *cobra.Command {
	var images []string
	var out string
	cmd := &cobra.Command{
		Use:   "auto <pdf>",
		Short: "Detect fields on every page and add them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := service(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := s.PDFAutoAddFields(cmd.Context(), pdf.PDFAutoAddFieldsRequest{
				Path:       args[0],
				OutputPath: out,
				Images:     images,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringSliceVar(&images, "images", nil, "page images in page order, used instead of rendering the PDF")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PDF (default: <name>_fields.pdf)")
	return cmd
}

func listCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list <pdf>",
		Short: "List the form fields of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := service(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := s.PDFListFields(pdf.PDFListFieldsRequest{Path: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func validateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pdf>",
		Short: "Check a PDF is readable and has no form yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := service(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := s.PDFValidateFile(pdf.PDFValidateFileRequest{Path: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}
