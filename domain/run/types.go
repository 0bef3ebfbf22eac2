package run

import (
	"sort"
	"time"

	"github.com/luizvinicius2219/planimport/domain/core"
)

// Status is the overall verdict of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial_failure"
	StatusFatal   Status = "fatal"
)

// ExitCode maps a status to the process exit code contract
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	default:
		return 2
	}
}

// FileStatus is the per-file verdict
type FileStatus string

const (
	FileOK      FileStatus = "ok"
	FileSkipped FileStatus = "skipped" // no rule matched, warned and ignored
	FileFailed  FileStatus = "failed"
)

// RejectDetail points at one refused row
type RejectDetail struct {
	File   string `json:"file"`
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

// Counts are the per-file and run-wide row tallies
type Counts struct {
	Read      int `json:"read"`
	Validated int `json:"validated"`
	Rejected  int `json:"rejected"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"` // rows lost when a batch exhausted its retries
}

// Add folds another tally into this one
func (c *Counts) Add(o Counts) {
	c.Read += o.Read
	c.Validated += o.Validated
	c.Rejected += o.Rejected
	c.Inserted += o.Inserted
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Failed += o.Failed
}

// FileReport is the outcome of one source file
type FileReport struct {
	File        string         `json:"file"`
	Status      FileStatus     `json:"status"`
	Error       string         `json:"error,omitempty"`
	Counts      Counts         `json:"counts"`
	Tables      []string       `json:"tables,omitempty"` // distinct target tables touched
	Rejects     []RejectDetail `json:"rejects,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
	Duration    time.Duration  `json:"-"`
	DurationMs  int64          `json:"duration_ms"`
}

// Touch records that the file loaded into a target table
func (f *FileReport) Touch(table string) {
	for _, t := range f.Tables {
		if t == table {
			return
		}
	}
	f.Tables = append(f.Tables, table)
	sort.Strings(f.Tables)
}

// Finish stamps when the file was processed and for how long
func (f *FileReport) Finish(started time.Time) {
	f.ProcessedAt = started
	f.Duration = time.Since(started)
	f.DurationMs = f.Duration.Milliseconds()
}

// Outcome is the full report of one ingestion run
type Outcome struct {
	RunID      core.RunID    `json:"run_id"`
	Folder     string        `json:"folder"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
	Files      []*FileReport `json:"files"`
	FatalError string        `json:"fatal_error,omitempty"`
	Status     Status        `json:"status"`
}

// NewOutcome starts the report for a run
func NewOutcome(id core.RunID, folder string, dryRun bool) *Outcome {
	return &Outcome{
		RunID:     id,
		Folder:    folder,
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}
}

// Totals sums the counts of every file
func (o *Outcome) Totals() Counts {
	var c Counts
	for _, f := range o.Files {
		c.Add(f.Counts)
	}
	return c
}

// Finish stamps the duration and settles the final status
func (o *Outcome) Finish() {
	o.Duration = time.Since(o.StartedAt)
	o.DurationMs = o.Duration.Milliseconds()
	o.Status = o.computeStatus()
}

// computeStatus settles the verdict. A fatal error with no completed file
// is a fatal run; otherwise any failure or reject downgrades the run to
// partial failure.
func (o *Outcome) computeStatus() Status {
	if o.FatalError != "" {
		for _, f := range o.Files {
			if f.Status == FileOK {
				return StatusPartial
			}
		}
		return StatusFatal
	}
	for _, f := range o.Files {
		if f.Status == FileFailed || f.Counts.Rejected > 0 || f.Counts.Failed > 0 {
			return StatusPartial
		}
	}
	return StatusSuccess
}
