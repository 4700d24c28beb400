// Package spreadsheet converts the registrar's result workbooks to and from
// academic records. Columns are positional; header text is ignored on read.
package spreadsheet

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// Columns is the fixed workbook layout.
var Columns = []string{
	"ID", "Nganh", "Gioi tinh", "Doi tuong", "Khu vuc",
	"Khoi TS", "Diem TS", "Hoc Ky", "DKHK", "TBHK",
	"TCTL", "TBTL", "XLHV", "Diem TN", "KET QUA",
}

// DefaultSheets are read when no sheet list is given.
var DefaultSheets = []string{"Data1", "Data2", "Data3", "Data4"}

// Row is one workbook line. Outcome holds the KET QUA column, which has no
// counterpart in AcademicRecord.
type Row struct {
	Record  domain.AcademicRecord
	Outcome string
}

// ReadWorkbook concatenates the rows of sheets, skipping each header line
// and blank lines.
func ReadWorkbook(r io.Reader, sheets []string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer f.Close()

	if len(sheets) == 0 {
		sheets = DefaultSheets
	}
	available := f.GetSheetList()

	var out []Row
	for _, sheet := range sheets {
		if !slices.Contains(available, sheet) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read workbook", fmt.Errorf("sheet %q not found", sheet))
		}
		cells, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for i, cols := range cells {
			if i == 0 || isBlank(cols) {
				continue
			}
			out = append(out, rowFromCells(cols))
		}
	}
	return out, nil
}

func rowFromCells(cols []string) Row {
	cell := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	return Row{
		Record: domain.AcademicRecord{
			StudentID:          cell(0),
			Major:              cell(1),
			Gender:             cell(2),
			TargetCategory:     cell(3),
			Region:             cell(4),
			AdmissionBlock:     cell(5),
			AdmissionScore:     cell(6),
			Semester:           cell(7),
			RegisteredCredits:  cell(8),
			SemesterAverage:    cell(9),
			AccumulatedCredits: cell(10),
			CumulativeAverage:  cell(11),
			AcademicProcessing: cell(12),
			FinalScore:         cell(13),
		},
		Outcome: cell(14),
	}
}

func (r Row) cells() []string {
	rec := r.Record
	return []string{
		rec.StudentID, rec.Major, rec.Gender, rec.TargetCategory, rec.Region,
		rec.AdmissionBlock, rec.AdmissionScore, rec.Semester, rec.RegisteredCredits, rec.SemesterAverage,
		rec.AccumulatedCredits, rec.CumulativeAverage, rec.AcademicProcessing, rec.FinalScore, r.Outcome,
	}
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SortRows orders rows by student id, then semester. Numeric ids come
// first in numeric order; rows without a numeric semester go last within a
// student.
func SortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := compareIDs(a.Record.StudentID, b.Record.StudentID); c != 0 {
			return c
		}
		return compareSemesters(a.Record.Semester, b.Record.Semester)
	})
}

func compareIDs(a, b string) int {
	na, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	nb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func compareSemesters(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return 0
	}
}

// ApplyStandings copies the academic processing labels of processed,
// which must list the same records in the same order, onto rows.
func ApplyStandings(rows []Row, processed []domain.AcademicRecord) error {
	if len(rows) != len(processed) {
		return fmt.Errorf("apply standings: %d rows, %d records", len(rows), len(processed))
	}
	for i := range rows {
		got := processed[i]
		if got.StudentID != rows[i].Record.StudentID || got.Semester != rows[i].Record.Semester {
			return fmt.Errorf("apply standings: row %d is %s/%s, record is %s/%s",
				i, rows[i].Record.StudentID, rows[i].Record.Semester, got.StudentID, got.Semester)
		}
		rows[i].Record.AcademicProcessing = got.AcademicProcessing
	}
	return nil
}

func Records(rows []Row) []domain.AcademicRecord {
	out := make([]domain.AcademicRecord, len(rows))
	for i, row := range rows {
		out[i] = row.Record
	}
	return out
}

// WriteCSV writes UTF-8 with a byte order mark so spreadsheet tools detect
// the encoding.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.cells()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, sheet string, rows []Row) (err error) {
	if sheet == "" {
		sheet = "Data"
	}
	f := excelize.NewFile()
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := writeSheetRow(f, sheet, 1, Columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, sheet, i+2, row.cells()); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, line int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", line, err)
	}
	return nil
}
