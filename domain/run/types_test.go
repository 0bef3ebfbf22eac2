package run

import (
	"testing"
	"time"

	"github.com/luizvinicius2219/planimport/domain/core"
)

func outcomeWith(files ...*FileReport) *Outcome {
	o := NewOutcome(core.NewRunID(), "./planilhas", false)
	o.Files = files
	return o
}

func TestStatusSuccess(t *testing.T) {
	// an empty folder is a successful run
	o := outcomeWith()
	o.Finish()
	if o.Status != StatusSuccess {
		t.Errorf("empty run status = %s", o.Status)
	}
	if o.Status.ExitCode() != 0 {
		t.Errorf("exit code = %d", o.Status.ExitCode())
	}

	o = outcomeWith(
		&FileReport{File: "a.xlsx", Status: FileOK, Counts: Counts{Read: 10, Validated: 10, Inserted: 10}},
		&FileReport{File: "notes.xlsx", Status: FileSkipped},
	)
	o.Finish()
	if o.Status != StatusSuccess {
		t.Errorf("clean run status = %s", o.Status)
	}
}

func TestStatusPartialFailure(t *testing.T) {
	cases := []struct {
		name string
		file FileReport
	}{
		{"rejected rows", FileReport{Status: FileOK, Counts: Counts{Read: 5, Validated: 4, Rejected: 1}}},
		{"unreadable file", FileReport{Status: FileFailed, Error: "source unreadable"}},
		{"failed batch rows", FileReport{Status: FileFailed, Counts: Counts{Failed: 50}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.file
			o := outcomeWith(&f)
			o.Finish()
			if o.Status != StatusPartial {
				t.Errorf("status = %s", o.Status)
			}
			if o.Status.ExitCode() != 1 {
				t.Errorf("exit code = %d", o.Status.ExitCode())
			}
		})
	}
}

func TestStatusFatal(t *testing.T) {
	// setup failure before any file
	o := outcomeWith()
	o.FatalError = "database unreachable"
	o.Finish()
	if o.Status != StatusFatal {
		t.Errorf("status = %s", o.Status)
	}
	if o.Status.ExitCode() != 2 {
		t.Errorf("exit code = %d", o.Status.ExitCode())
	}

	// exhaustion on the very first file, nothing completed
	o = outcomeWith(&FileReport{File: "a.xlsx", Status: FileFailed, Counts: Counts{Failed: 100}})
	o.FatalError = "retries exhausted"
	o.Finish()
	if o.Status != StatusFatal {
		t.Errorf("status = %s", o.Status)
	}

	// exhaustion after one file already landed downgrades to partial
	o = outcomeWith(
		&FileReport{File: "a.xlsx", Status: FileOK, Counts: Counts{Inserted: 5}},
		&FileReport{File: "b.xlsx", Status: FileFailed, Counts: Counts{Failed: 100}},
	)
	o.FatalError = "retries exhausted"
	o.Finish()
	if o.Status != StatusPartial {
		t.Errorf("status = %s", o.Status)
	}
}

func TestTotals(t *testing.T) {
	o := outcomeWith(
		&FileReport{Status: FileOK, Counts: Counts{Read: 10, Validated: 9, Rejected: 1, Inserted: 5, Updated: 3, Skipped: 1}},
		&FileReport{Status: FileOK, Counts: Counts{Read: 4, Validated: 4, Inserted: 4}},
	)
	got := o.Totals()
	want := Counts{Read: 14, Validated: 13, Rejected: 1, Inserted: 9, Updated: 3, Skipped: 1}
	if got != want {
		t.Errorf("Totals = %+v, want %+v", got, want)
	}
}

func TestFileReportTouch(t *testing.T) {
	f := &FileReport{File: "vendas.csv"}
	f.Touch("vendas_b2")
	f.Touch("vendas_a1")
	f.Touch("vendas_b2")
	if len(f.Tables) != 2 || f.Tables[0] != "vendas_a1" || f.Tables[1] != "vendas_b2" {
		t.Errorf("Tables = %v", f.Tables)
	}
}

func TestFinishStampsDuration(t *testing.T) {
	f := &FileReport{}
	f.Finish(time.Now().Add(-5 * time.Millisecond))
	if f.Duration <= 0 || f.DurationMs < 0 {
		t.Errorf("duration not stamped: %v / %d", f.Duration, f.DurationMs)
	}
	if f.ProcessedAt.IsZero() {
		t.Error("ProcessedAt not stamped")
	}
}
