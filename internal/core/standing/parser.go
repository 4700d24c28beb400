package standing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// ParsedRecord holds the numeric fields the rules need.
type ParsedRecord struct {
	Semester           int
	RegisteredCredits  float64
	SemesterAverage    float64
	AccumulatedCredits float64
	CumulativeAverage  float64
}

// Year returns the year of study: semesters 1-2 are year 1, 3-4 year 2.
func (p ParsedRecord) Year() int {
	return (p.Semester + 1) / 2
}

// ParseRecord extracts every numeric field or fails as a whole.
func ParseRecord(rec domain.AcademicRecord) (ParsedRecord, error) {
	var (
		out ParsedRecord
		err error
	)
	if out.RegisteredCredits, err = parseFloat("registered_credits", rec.RegisteredCredits); err != nil {
		return ParsedRecord{}, err
	}
	if out.SemesterAverage, err = parseFloat("semester_average", rec.SemesterAverage); err != nil {
		return ParsedRecord{}, err
	}
	if out.CumulativeAverage, err = parseFloat("cumulative_average", rec.CumulativeAverage); err != nil {
		return ParsedRecord{}, err
	}
	if out.Semester, err = parseSemester(rec.Semester); err != nil {
		return ParsedRecord{}, err
	}
	if out.AccumulatedCredits, err = parseFloat("accumulated_credits", rec.AccumulatedCredits); err != nil {
		return ParsedRecord{}, err
	}
	return out, nil
}

func parseSemester(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, domain.WrapError(domain.ErrUnclassifiable, "parse semester", fmt.Errorf("field is missing"))
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.WrapError(domain.ErrUnclassifiable, "parse semester", err)
	}
	return n, nil
}

func parseFloat(field, raw string) (float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, domain.WrapError(domain.ErrUnclassifiable, "parse "+field, fmt.Errorf("field is missing"))
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrUnclassifiable, "parse "+field, err)
	}
	return f, nil
}
