package sinks

import (
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
)

// Event is the payload delivered downstream when an eval suite completes.
type Event struct {
	SuiteID     string    `json:"suite_id"`
	SuiteName   string    `json:"suite_name"`
	PromptID    string    `json:"prompt_id"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewEvent constructs an Event from a completed eval run.
func NewEvent(run domain.EvalRun) Event {
	completed := run.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	return Event{
		SuiteID:     run.SuiteID,
		SuiteName:   run.SuiteName,
		PromptID:    run.PromptID,
		Total:       run.Total,
		Passed:      run.Passed,
		Failed:      run.Failed,
		Score:       run.Score,
		CompletedAt: completed,
	}
}
