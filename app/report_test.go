package app

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/run"
)

func sampleOutcome() *run.Outcome {
	o := run.NewOutcome(core.NewRunID(), "./planilhas", false)
	o.Files = []*run.FileReport{
		{
			File:   "clientes.xlsx",
			Status: run.FileOK,
			Counts: run.Counts{Read: 3, Validated: 2, Rejected: 1, Inserted: 1, Updated: 1},
			Tables: []string{"clientes"},
			Rejects: []run.RejectDetail{
				{File: "clientes.xlsx", Sheet: "Plan1", Row: 4, Column: "saldo", Reason: "expected decimal, got \"abc\""},
			},
		},
		{File: "notas.csv", Status: run.FileSkipped, Error: "no schema rule matches"},
	}
	o.Finish()
	return o
}

func TestWriteSummary(t *testing.T) {
	o := sampleOutcome()
	var buf strings.Builder
	WriteSummary(&buf, o)
	out := buf.String()

	assert.Contains(t, out, "planimport run "+o.RunID.String())
	assert.Contains(t, out, "folder: ./planilhas")
	assert.Contains(t, out, "rejected rows (1):")
	assert.Contains(t, out, "clientes.xlsx")
	assert.Contains(t, out, "row 4")
	assert.Contains(t, out, "column saldo")
	assert.Contains(t, out, "no schema rule matches")
	assert.Contains(t, out, "totals: read 3  validated 2  rejected 1  inserted 1  updated 1  skipped 0  failed 0")
	assert.Contains(t, out, "status: partial_failure (exit 1)")
}

func TestWriteSummaryDryRun(t *testing.T) {
	o := run.NewOutcome(core.NewRunID(), "./planilhas", true)
	o.Finish()
	var buf strings.Builder
	WriteSummary(&buf, o)

	assert.Contains(t, buf.String(), "dry run")
	assert.Contains(t, buf.String(), "status: success (exit 0)")
}

func TestWriteSummaryFatal(t *testing.T) {
	o := run.NewOutcome(core.NewRunID(), "./planilhas", false)
	o.FatalError = "database unreachable: connection refused"
	o.Finish()
	var buf strings.Builder
	WriteSummary(&buf, o)

	assert.Contains(t, buf.String(), "fatal: database unreachable")
	assert.Contains(t, buf.String(), "status: fatal (exit 2)")
}

func TestWriteJSONRoundTrips(t *testing.T) {
	o := sampleOutcome()
	var buf strings.Builder
	require.NoError(t, WriteJSON(&buf, o))

	var decoded struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
		Files  []struct {
			File   string `json:"file"`
			Status string `json:"status"`
			Counts struct {
				Read     int `json:"read"`
				Inserted int `json:"inserted"`
			} `json:"counts"`
		} `json:"files"`
		DurationMs int64 `json:"duration_ms"`
	}
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &decoded))

	assert.Equal(t, o.RunID.String(), decoded.RunID)
	assert.Equal(t, string(run.StatusPartial), decoded.Status)
	require.Len(t, decoded.Files, 2)
	assert.Equal(t, "clientes.xlsx", decoded.Files[0].File)
	assert.Equal(t, 3, decoded.Files[0].Counts.Read)
	assert.GreaterOrEqual(t, decoded.DurationMs, int64(0))
}

func TestOutcomeDurationIsStamped(t *testing.T) {
	o := run.NewOutcome(core.NewRunID(), ".", false)
	time.Sleep(2 * time.Millisecond)
	o.Finish()
	assert.GreaterOrEqual(t, o.DurationMs, int64(1))
}
