package ingest

import (
	"errors"
	"time"

	"ytdb/internal/contentid"
	"ytdb/internal/failure"
)

// Outcome is the result class of one id.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExist     Outcome = "exist"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeInvalidID Outcome = "invalid_id"
	OutcomeFailed    Outcome = "failed"
	OutcomeError     Outcome = "error"
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeSuccess, OutcomeExist, OutcomeSkipped, OutcomeInvalidID, OutcomeFailed, OutcomeError}
}

// ErrUnexpectedOutput reports a fetch that did not leave exactly one media
// file and one info.json sidecar.
var ErrUnexpectedOutput = errors.New("unexpected fetch output")

// Result is the outcome of processing one id. Kind is set for failed,
// skipped and invalid ids; Err is set for failed and error outcomes.
type Result struct {
	Outcome Outcome
	Kind    failure.Kind
	Err     error
}

// ItemError records a per-item error surfaced in the summary.
type ItemError struct {
	ID  contentid.ID
	Err error
}

// Summary aggregates a run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Total    int
	Outcomes map[Outcome]int
	Kinds    map[failure.Kind]int
	Errors   []ItemError
}

func newSummary(runID string) Summary {
	return Summary{
		RunID:    runID,
		Started:  time.Now(),
		Outcomes: make(map[Outcome]int),
		Kinds:    make(map[failure.Kind]int),
	}
}

// Count returns the number of ids with outcome.
func (s Summary) Count(outcome Outcome) int {
	return s.Outcomes[outcome]
}

// Processed returns the number of ids that reached a decision.
func (s Summary) Processed() int {
	total := 0
	for _, count := range s.Outcomes {
		total += count
	}
	return total
}

func (s *Summary) add(id contentid.ID, result Result) {
	s.Outcomes[result.Outcome]++
	if result.Outcome == OutcomeFailed && result.Kind != "" {
		s.Kinds[result.Kind]++
	}
	if result.Outcome == OutcomeError && result.Err != nil {
		s.Errors = append(s.Errors, ItemError{ID: id, Err: result.Err})
	}
}
