package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/infrastructure/spreadsheet"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RUN_LEDGER_ENABLED", "false")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("STANDING_RULES_PATH", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestClassifyCommandReadsStdin(t *testing.T) {
	isolateEnv(t)

	input := `[
		{"id":"S1","semester":"2","registered_credits":"0","semester_average":"3.0","accumulated_credits":"15","cumulative_average":"3.0"},
		{"id":"S1","semester":"1","registered_credits":"15","semester_average":"3.0","accumulated_credits":"15","cumulative_average":"3.0"}
	]`
	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetIn(strings.NewReader(input))
	root.SetOut(&stdout)
	root.SetArgs([]string{"classify"})

	if err := root.Execute(); err != nil {
		t.Fatalf("classify: %v", err)
	}

	var out []domain.AcademicRecord
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Semester != "1" || out[0].AcademicProcessing != "" {
		t.Fatalf("unexpected first record: %+v", out[0])
	}
	if out[1].Semester != "2" || out[1].AcademicProcessing != string(domain.StandingWarning) {
		t.Fatalf("expected non-registration warning on semester 2, got %+v", out[1])
	}
}

func TestClassifyCommandRejectsInvalidJSON(t *testing.T) {
	isolateEnv(t)

	root := newRootCmd()
	root.SetIn(strings.NewReader(`{"id":"S1"}`))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"classify"})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for non-array input")
	}
}

func TestImportCommandWritesCSV(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	workbook := filepath.Join(dir, "results.xlsx")
	rows := []spreadsheet.Row{
		{Record: domain.AcademicRecord{StudentID: "2", Semester: "1", RegisteredCredits: "15", SemesterAverage: "3.1", AccumulatedCredits: "15", CumulativeAverage: "3.1"}, Outcome: "Tot nghiep"},
		{Record: domain.AcademicRecord{StudentID: "1", Semester: "3", RegisteredCredits: "15", SemesterAverage: "2.0", AccumulatedCredits: "45", CumulativeAverage: "1.3"}},
		{Record: domain.AcademicRecord{StudentID: "1", Semester: "1", RegisteredCredits: "15", SemesterAverage: "2.0", AccumulatedCredits: "15", CumulativeAverage: "2.0"}},
	}
	f, err := os.Create(workbook)
	if err != nil {
		t.Fatalf("create workbook: %v", err)
	}
	if err := spreadsheet.WriteXLSX(f, "Data1", rows); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close workbook: %v", err)
	}

	outPath := filepath.Join(dir, "out.csv")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import", "--file", workbook, "--sheets", "Data1", "--out", outPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\ufeff")) {
		t.Fatalf("expected csv to start with a byte order mark")
	}
	lines, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff")))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
	}

	type row struct{ ID, Semester, Standing, Outcome string }
	var got []row
	for _, l := range lines[1:] {
		got = append(got, row{l[0], l[7], l[12], l[14]})
	}
	want := []row{
		{"1", "1", "", ""},
		{"1", "3", "Warning", ""},
		{"2", "1", "", "Tot nghiep"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestImportCommandRejectsUnknownExtension(t *testing.T) {
	isolateEnv(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"import", "--file", "missing.xlsx", "--out", "out.pdf"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unsupported output extension") {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
}
