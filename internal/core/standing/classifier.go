package standing

import "github.com/kirillkom/academic-standing/internal/core/domain"

// Evaluation is the full outcome of classifying one record.
type Evaluation struct {
	Standing domain.Standing
	// Classified is false when the record could not be parsed.
	Classified bool
	Triggered  []string
	Err        error
}

type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over rules. With no rules it uses
// DefaultRules(DefaultRuleSet()).
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules(DefaultRuleSet())
	}
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

func (c *Classifier) Classify(current domain.AcademicRecord, history []domain.AcademicRecord) domain.Standing {
	return c.Evaluate(current, history).Standing
}

func (c *Classifier) Evaluate(current domain.AcademicRecord, history []domain.AcademicRecord) Evaluation {
	parsed, err := ParseRecord(current)
	if err != nil {
		// Unclassifiable records get no label and never fail the batch.
		return Evaluation{Standing: domain.StandingNone, Err: err}
	}

	eval := Evaluation{Standing: domain.StandingNone, Classified: true}
	for _, rule := range c.rules {
		if rule.Fires(parsed, history) {
			eval.Triggered = append(eval.Triggered, rule.Name)
		}
	}
	if len(eval.Triggered) > 0 {
		eval.Standing = domain.StandingWarning
	}
	return eval
}

func (c *Classifier) RuleNames() []string {
	names := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		names = append(names, rule.Name)
	}
	return names
}
