package domain

import "time"

// Standing is the academic-processing label attached to a record.
type Standing string

const (
	StandingNone    Standing = ""
	StandingWarning Standing = "Warning"
)

// AcademicRecord is one student's results for one semester. Numeric
// fields stay text-encoded exactly as received.
type AcademicRecord struct {
	StudentID          string `json:"id"`
	Major              string `json:"major"`
	Gender             string `json:"gender"`
	TargetCategory     string `json:"target"`
	Region             string `json:"region"`
	AdmissionBlock     string `json:"admission_block"`
	AdmissionScore     string `json:"admission_score"`
	Semester           string `json:"semester"`
	RegisteredCredits  string `json:"registered_credits"`
	SemesterAverage    string `json:"semester_average"`
	AccumulatedCredits string `json:"accumulated_credits"`
	CumulativeAverage  string `json:"cumulative_average"`
	FinalScore         string `json:"final_score"`
	AcademicProcessing string `json:"academic_processing"`
}

// BatchSummary describes one processed batch. It carries counts only.
type BatchSummary struct {
	BatchID        string         `json:"batch_id"`
	Source         string         `json:"source"`
	Students       int            `json:"students"`
	Records        int            `json:"records"`
	Warnings       int            `json:"warnings"`
	Unclassifiable int            `json:"unclassifiable"`
	RuleHits       map[string]int `json:"rule_hits"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ProcessingResult is the annotated batch plus its summary.
type ProcessingResult struct {
	Records []AcademicRecord
	Summary BatchSummary
}

const (
	SourceHTTP = "http"
	SourceNATS = "nats"
	SourceCLI  = "cli"
	SourceMCP  = "mcp"
)
