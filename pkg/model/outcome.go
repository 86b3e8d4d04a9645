// pkg/model/outcome.go
package model

import "time"

// StageOutcome summarizes one repair stage over one column
type StageOutcome struct {
	ColumnName string // Column the stage ran on
	StageName  string // Stage that produced the outcome
	Matched    int    // Cells the matcher selected
	Changed    int    // Matched cells whose value changed
	NotCleaned int    // Matched cells left unchanged (ledgered)
	Failed     int    // Matched cells whose transform errored (subset of NotCleaned)
}

// ColumnOutcome summarizes a full pipeline run over one column
type ColumnOutcome struct {
	ColumnName string
	Domain     Domain
	Stages     []StageOutcome
	Duration   time.Duration
}

// Changed returns the total number of cells changed across all stages
func (o ColumnOutcome) Changed() int {
	total := 0
	for _, s := range o.Stages {
		total += s.Changed
	}
	return total
}

// NotCleaned returns the total number of ledgered cells across all stages
func (o ColumnOutcome) NotCleaned() int {
	total := 0
	for _, s := range o.Stages {
		total += s.NotCleaned
	}
	return total
}
