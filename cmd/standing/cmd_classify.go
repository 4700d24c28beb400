package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

func newClassifyCmd() *cobra.Command {
	var inputPath string
	var indent bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a JSON array of learning results",
		Long:  "Reads a JSON array of learning results from a file or stdin and writes the annotated array to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runClassify(cmd, in, indent)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&inputPath, "file", "f", "", "JSON input file (default stdin)")
	f.BoolVar(&indent, "indent", false, "Indent JSON output")
	return cmd
}

func runClassify(cmd *cobra.Command, in io.Reader, indent bool) error {
	var records []domain.AcademicRecord
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}

	app, err := newApp(cmd.Context(), "standing-cli")
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.ProcessUC.Process(cmd.Context(), domain.SourceCLI, records)
	if err != nil {
		return err
	}

	out := result.Records
	if out == nil {
		out = []domain.AcademicRecord{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
