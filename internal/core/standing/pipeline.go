package standing

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// Result pairs an annotated record with how it was classified.
type Result struct {
	Record     domain.AcademicRecord
	Evaluation Evaluation
}

// Batch is the processed output, grouped by student in discovery order.
type Batch struct {
	Results  []Result
	Students int
}

func (b Batch) Records() []domain.AcademicRecord {
	out := make([]domain.AcademicRecord, len(b.Results))
	for i, res := range b.Results {
		out[i] = res.Record
	}
	return out
}

// Summary counts labels, parse failures and rule hits.
func (b Batch) Summary() domain.BatchSummary {
	summary := domain.BatchSummary{
		Students: b.Students,
		Records:  len(b.Results),
		RuleHits: map[string]int{},
	}
	for _, res := range b.Results {
		if !res.Evaluation.Classified {
			summary.Unclassifiable++
			continue
		}
		if res.Evaluation.Standing == domain.StandingWarning {
			summary.Warnings++
		}
		for _, name := range res.Evaluation.Triggered {
			summary.RuleHits[name]++
		}
	}
	return summary
}

// GroupByStudent splits records per student id, ordering groups by the
// first appearance of each id.
func GroupByStudent(records []domain.AcademicRecord) [][]domain.AcademicRecord {
	index := make(map[string]int)
	var groups [][]domain.AcademicRecord
	for _, rec := range records {
		i, ok := index[rec.StudentID]
		if !ok {
			i = len(groups)
			index[rec.StudentID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}

// SortBySemester returns a copy ordered by ascending semester. Equal
// semesters keep their input order; records without a parseable semester
// go last.
func SortBySemester(records []domain.AcademicRecord) []domain.AcademicRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b domain.AcademicRecord) int {
		sa, okA := semesterKey(a)
		sb, okB := semesterKey(b)
		switch {
		case okA && okB:
			return sa - sb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

func semesterKey(rec domain.AcademicRecord) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(rec.Semester))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ProcessHistory classifies one student's sorted records left to right.
// Record i sees records [0, i) as its history.
func ProcessHistory(c *Classifier, sorted []domain.AcademicRecord) []Result {
	out := make([]Result, len(sorted))
	for i, rec := range sorted {
		eval := c.Evaluate(rec, sorted[:i:i])
		annotated := rec
		annotated.AcademicProcessing = string(eval.Standing)
		out[i] = Result{Record: annotated, Evaluation: eval}
	}
	return out
}

// Process groups, sorts and classifies a batch. The output has one record
// per input record, grouped by student rather than in input order.
func Process(c *Classifier, records []domain.AcademicRecord) Batch {
	groups := GroupByStudent(records)
	batch := Batch{
		Results:  make([]Result, 0, len(records)),
		Students: len(groups),
	}
	for _, group := range groups {
		batch.Results = append(batch.Results, ProcessHistory(c, SortBySemester(group))...)
	}
	return batch
}

// ProcessConcurrent is Process with students spread over up to workers
// goroutines. Each student is handled by a single goroutine, so the
// result is identical to Process.
func ProcessConcurrent(ctx context.Context, c *Classifier, records []domain.AcademicRecord, workers int) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if workers <= 1 {
		return Process(c, records), nil
	}

	groups := GroupByStudent(records)
	perStudent := make([][]Result, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perStudent[i] = ProcessHistory(c, SortBySemester(group))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	batch := Batch{
		Results:  make([]Result, 0, len(records)),
		Students: len(groups),
	}
	for _, results := range perStudent {
		batch.Results = append(batch.Results, results...)
	}
	return batch, nil
}
