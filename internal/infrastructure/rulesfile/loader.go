// Package rulesfile loads standing threshold overrides from YAML:
//
//	first_semester_min_average: 0.8
//	semester_min_average: 1.0
//	cumulative_min_by_year: [1.2, 1.4, 1.6, 1.8]
//
// Omitted keys keep their default values.
package rulesfile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/standing"
)

type fileRules struct {
	FirstSemesterMinAverage *float64  `yaml:"first_semester_min_average"`
	SemesterMinAverage      *float64  `yaml:"semester_min_average"`
	CumulativeMinByYear     []float64 `yaml:"cumulative_min_by_year"`
}

// Load returns the default rule set when path is empty.
func Load(path string) (standing.RuleSet, error) {
	if path == "" {
		return standing.DefaultRuleSet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return standing.RuleSet{}, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (standing.RuleSet, error) {
	var raw fileRules
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return standing.RuleSet{}, domain.WrapError(domain.ErrInvalidInput, "decode rules file", err)
	}

	rs := standing.DefaultRuleSet()
	if raw.FirstSemesterMinAverage != nil {
		rs.FirstSemesterMinAverage = *raw.FirstSemesterMinAverage
	}
	if raw.SemesterMinAverage != nil {
		rs.SemesterMinAverage = *raw.SemesterMinAverage
	}
	if raw.CumulativeMinByYear != nil {
		rs.CumulativeMinByYear = raw.CumulativeMinByYear
	}
	if err := rs.Validate(); err != nil {
		return standing.RuleSet{}, err
	}
	return rs, nil
}
