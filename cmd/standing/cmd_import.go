package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/infrastructure/spreadsheet"
)

type importOptions struct {
	file   string
	sheets []string
	out    string
}

func newImportCmd() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a registrar workbook and fill in academic standing",
		Long: `Reads the listed sheets of a registrar workbook, sorts rows by student id and
semester, fills the XLHV column and writes CSV (UTF-8 with BOM) or XLSX.
The output format follows the --out extension; without --out CSV goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Workbook path (required)")
	f.StringSliceVar(&opts.sheets, "sheets", spreadsheet.DefaultSheets, "Sheets to read, in order")
	f.StringVarP(&opts.out, "out", "o", "", "Output path (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	format, err := outputFormat(opts.out)
	if err != nil {
		return err
	}

	in, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer in.Close()

	rows, err := spreadsheet.ReadWorkbook(in, opts.sheets)
	if err != nil {
		return err
	}
	spreadsheet.SortRows(rows)

	app, err := newApp(cmd.Context(), "standing-cli")
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.ProcessUC.Process(cmd.Context(), domain.SourceCLI, spreadsheet.Records(rows))
	if err != nil {
		return err
	}
	if err := spreadsheet.ApplyStandings(rows, result.Records); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == "xlsx" {
		err = spreadsheet.WriteXLSX(out, "Data", rows)
	} else {
		err = spreadsheet.WriteCSV(out, rows)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d rows, %d students, %d warnings, batch %s\n",
		result.Summary.Records, result.Summary.Students, result.Summary.Warnings, result.Summary.BatchID)
	return nil
}

func outputFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".csv":
		return "csv", nil
	case ".xlsx":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("unsupported output extension %q (want .csv or .xlsx)", ext)
	}
}
