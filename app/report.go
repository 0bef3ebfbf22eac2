package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/luizvinicius2219/planimport/domain/run"
)

// WriteSummary renders the run outcome for humans: rejects first, then a
// per-file table, then totals and the final status
func WriteSummary(w io.Writer, o *run.Outcome) {
	mode := ""
	if o.DryRun {
		mode = "  (dry run, nothing written)"
	}
	fmt.Fprintf(w, "planimport run %s%s\n", o.RunID, mode)
	fmt.Fprintf(w, "folder: %s\n", o.Folder)

	var rejects []run.RejectDetail
	for _, f := range o.Files {
		rejects = append(rejects, f.Rejects...)
	}
	if len(rejects) > 0 {
		fmt.Fprintf(w, "\nrejected rows (%d):\n", len(rejects))
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, r := range rejects {
			col := ""
			if r.Column != "" {
				col = "column " + r.Column
			}
			fmt.Fprintf(tw, "  %s\t%s\trow %d\t%s\t%s\n", r.File, r.Sheet, r.Row, col, r.Reason)
		}
		tw.Flush()
	}

	if len(o.Files) > 0 {
		fmt.Fprintf(w, "\nfiles (%d):\n", len(o.Files))
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, f := range o.Files {
			switch f.Status {
			case run.FileOK:
				fmt.Fprintf(tw, "  %s\tok\tread %d\tinserted %d\tupdated %d\tskipped %d\trejected %d\tfailed %d\n",
					f.File, f.Counts.Read, f.Counts.Inserted, f.Counts.Updated,
					f.Counts.Skipped, f.Counts.Rejected, f.Counts.Failed)
			default:
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.File, f.Status, f.Error)
			}
		}
		tw.Flush()
	}

	if o.FatalError != "" {
		fmt.Fprintf(w, "\nfatal: %s\n", o.FatalError)
	}

	t := o.Totals()
	fmt.Fprintf(w, "\ntotals: read %d  validated %d  rejected %d  inserted %d  updated %d  skipped %d  failed %d\n",
		t.Read, t.Validated, t.Rejected, t.Inserted, t.Updated, t.Skipped, t.Failed)
	fmt.Fprintf(w, "status: %s (exit %d) in %s\n", o.Status, o.Status.ExitCode(), o.Duration.Round(time.Millisecond))
}

// WriteJSON emits the outcome as one JSON document
func WriteJSON(w io.Writer, o *run.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}
