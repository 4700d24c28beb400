package standing

import (
	"errors"
	"fmt"
	"math"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

const (
	RuleReserved             = "reserved"
	RuleNonRegistration      = "non_registration"
	RuleLowTermAverage       = "low_term_average"
	RuleLowCumulativeAverage = "low_cumulative_average"
)

// RuleSet holds the thresholds compared by the default rules.
type RuleSet struct {
	FirstSemesterMinAverage float64
	SemesterMinAverage      float64
	// CumulativeMinByYear[i] is the minimum cumulative average in year i+1.
	// The last entry also applies to every later year and to years below 1.
	CumulativeMinByYear []float64
}

func DefaultRuleSet() RuleSet {
	return RuleSet{
		FirstSemesterMinAverage: 0.8,
		SemesterMinAverage:      1.0,
		CumulativeMinByYear:     []float64{1.2, 1.4, 1.6, 1.8},
	}
}

func (rs RuleSet) Validate() error {
	if len(rs.CumulativeMinByYear) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate rule set", errors.New("cumulative thresholds are empty"))
	}
	values := append([]float64{rs.FirstSemesterMinAverage, rs.SemesterMinAverage}, rs.CumulativeMinByYear...)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.WrapError(domain.ErrInvalidInput, "validate rule set", fmt.Errorf("threshold %v is not finite", v))
		}
	}
	return nil
}

// CumulativeThreshold returns the minimum cumulative average for a year of study.
func (rs RuleSet) CumulativeThreshold(year int) float64 {
	n := len(rs.CumulativeMinByYear)
	if n == 0 {
		return 0
	}
	if year >= 1 && year <= n {
		return rs.CumulativeMinByYear[year-1]
	}
	return rs.CumulativeMinByYear[n-1]
}

// Rule is one named warning condition. History holds the student's records
// for earlier semesters, oldest first, and must be treated as read-only.
type Rule struct {
	Name  string
	Fires func(current ParsedRecord, history []domain.AcademicRecord) bool
}

// DefaultRules returns the standing rules in evaluation order.
func DefaultRules(rs RuleSet) []Rule {
	return []Rule{
		ReservedRule(),
		NonRegistrationRule(),
		LowTermAverageRule(rs),
		LowCumulativeAverageRule(rs),
	}
}

// ReservedRule never fires. It keeps a slot for a condition that has not
// been defined yet.
func ReservedRule() Rule {
	return Rule{
		Name: RuleReserved,
		Fires: func(ParsedRecord, []domain.AcademicRecord) bool {
			return false
		},
	}
}

func NonRegistrationRule() Rule {
	return Rule{
		Name: RuleNonRegistration,
		Fires: func(cur ParsedRecord, _ []domain.AcademicRecord) bool {
			return cur.RegisteredCredits == 0 && cur.Semester > 1
		},
	}
}

func LowTermAverageRule(rs RuleSet) Rule {
	return Rule{
		Name: RuleLowTermAverage,
		Fires: func(cur ParsedRecord, _ []domain.AcademicRecord) bool {
			switch {
			case cur.Semester == 1:
				return cur.SemesterAverage < rs.FirstSemesterMinAverage
			case cur.Semester > 1:
				return cur.SemesterAverage < rs.SemesterMinAverage
			default:
				return false
			}
		},
	}
}

func LowCumulativeAverageRule(rs RuleSet) Rule {
	return Rule{
		Name: RuleLowCumulativeAverage,
		Fires: func(cur ParsedRecord, _ []domain.AcademicRecord) bool {
			return cur.CumulativeAverage < rs.CumulativeThreshold(cur.Year())
		},
	}
}
