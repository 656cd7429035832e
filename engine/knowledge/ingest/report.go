package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// SourceStatus is the outcome of one source.
type SourceStatus string

const (
	SourceCompleted SourceStatus = "completed"
	SourceEmpty     SourceStatus = "empty"
	SourceFailed    SourceStatus = "failed"
)

// SourceReport counts what happened to one source document.
type SourceReport struct {
	Key          string        `json:"key"`
	RegulationID string        `json:"regulation_id"`
	Label        string        `json:"label"`
	Path         string        `json:"path,omitempty"`
	Status       SourceStatus  `json:"status"`
	Pages        int           `json:"pages"`
	Segmented    int           `json:"segmented"`
	Skipped      int           `json:"skipped"`
	Embedded     int           `json:"embedded"`
	Persisted    int           `json:"persisted"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Report summarises a run.
type Report struct {
	RunID        string         `json:"run_id"`
	Status       Status         `json:"status"`
	Sources      []SourceReport `json:"sources"`
	IndexesBuilt bool           `json:"indexes_built"`
	IndexError   string         `json:"index_error,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Source returns the report of the given source key.
func (r *Report) Source(key string) (SourceReport, bool) {
	for _, s := range r.Sources {
		if s.Key == key {
			return s, true
		}
	}
	return SourceReport{}, false
}

func (r *Report) fail(err error) {
	r.Status = StatusFailure
	r.Error = err.Error()
	r.FinishedAt = time.Now().UTC()
}

// finish derives the overall status: success when every source completed and indexes
// were built, failure when no source completed, partial otherwise.
func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
	completed := 0
	for _, s := range r.Sources {
		if s.Status == SourceCompleted {
			completed++
		}
	}
	switch {
	case len(r.Sources) > 0 && completed == 0:
		r.Status = StatusFailure
	case completed == len(r.Sources) && r.IndexesBuilt:
		r.Status = StatusSuccess
	default:
		r.Status = StatusPartial
	}
}
