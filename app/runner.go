package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/run"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/ports"
)

// rowBuffer bounds how far the reader goroutine runs ahead of validation
const rowBuffer = 256

// RunConfig carries the per-run settings the service needs
type RunConfig struct {
	Folder       string
	BatchSize    int
	Locale       record.Locale
	AbortOnError bool
	DryRun       bool
}

// ImportService drives one ingestion run: scan the folder, stream each
// file through validation, plan the changes, and load them batch by batch.
// Files are strictly sequential; within a file, reading overlaps
// validation through a bounded channel.
type ImportService struct {
	contract *schema.Contract
	sources  map[source.FileKind]ports.RowSource
	scanner  *Scanner
	loader   *Loader
	store    ports.TargetStore
	cfg      RunConfig
	log      *slog.Logger
}

// NewImportService wires an import service over the given readers and store
func NewImportService(contract *schema.Contract, sources map[source.FileKind]ports.RowSource, store ports.TargetStore, policy RetryPolicy, cfg RunConfig, log *slog.Logger) *ImportService {
	return &ImportService{
		contract: contract,
		sources:  sources,
		scanner:  NewScanner(sources, log),
		loader:   NewLoader(store, policy, cfg.DryRun, log),
		store:    store,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one full ingestion and reports what happened. The outcome
// always comes back finished, whatever went wrong.
func (s *ImportService) Run(ctx context.Context) *run.Outcome {
	outcome := run.NewOutcome(core.NewRunID(), s.cfg.Folder, s.cfg.DryRun)
	log := s.log.With("run_id", outcome.RunID.Short())
	log.Info("run starting", "folder", s.cfg.Folder, "dry_run", s.cfg.DryRun)

	if err := s.store.Ping(ctx); err != nil {
		outcome.FatalError = fmt.Sprintf("database unreachable: %v", err)
		log.Error("database unreachable", "error", err)
		outcome.Finish()
		return outcome
	}

	files, err := s.scanner.Scan(ctx, s.cfg.Folder)
	if err != nil {
		outcome.FatalError = err.Error()
		log.Error("folder scan failed", "error", err)
		outcome.Finish()
		return outcome
	}

	mapper := NewMapper()
	var halt error
	for _, scanned := range files {
		if halt != nil {
			outcome.Files = append(outcome.Files, &run.FileReport{
				File:   scanned.File.Name,
				Status: run.FileSkipped,
				Error:  "not processed, run halted",
			})
			continue
		}

		report, err := s.processFile(ctx, log, mapper, scanned)
		outcome.Files = append(outcome.Files, report)
		if err != nil {
			halt = err
			outcome.FatalError = err.Error()
			log.Error("run halted", "file", scanned.File.Name, "error", err)
		}
	}

	outcome.Finish()
	totals := outcome.Totals()
	log.Info("run finished",
		"status", outcome.Status,
		"files", len(outcome.Files),
		"read", totals.Read,
		"inserted", totals.Inserted,
		"updated", totals.Updated,
		"skipped", totals.Skipped,
		"rejected", totals.Rejected,
		"failed", totals.Failed,
		"duration_ms", outcome.DurationMs)
	return outcome
}

// processFile runs one source file end to end. The returned error is
// halt-class only: retry exhaustion, an abort on first error, or
// cancellation. Ordinary file trouble lands in the report instead.
func (s *ImportService) processFile(ctx context.Context, log *slog.Logger, mapper *Mapper, scanned ScannedFile) (*run.FileReport, error) {
	started := time.Now()
	report := &run.FileReport{File: scanned.File.Name, Status: run.FileOK}
	defer report.Finish(started)

	if scanned.Err != nil {
		report.Status = run.FileFailed
		report.Error = scanned.Err.Error()
		log.Warn("file unreadable", "file", scanned.File.Name, "error", scanned.Err)
		if s.cfg.AbortOnError {
			return report, fmt.Errorf("%w: %s is unreadable", core.ErrRunAborted, scanned.File.Name)
		}
		return report, nil
	}

	if !s.contract.MatchesFile(scanned.File.Name) {
		report.Status = run.FileSkipped
		report.Error = "no schema rule matches"
		log.Warn("no rule matches file, skipping", "file", scanned.File.Name)
		return report, nil
	}

	collected, err := s.collectRecords(ctx, log, scanned.File, report)
	if err != nil {
		report.Status = run.FileFailed
		report.Error = err.Error()
		if errors.Is(err, core.ErrRunAborted) || ctx.Err() != nil {
			return report, err
		}
		log.Warn("file read failed", "file", scanned.File.Name, "error", err)
		if s.cfg.AbortOnError {
			return report, fmt.Errorf("%w: reading %s failed", core.ErrRunAborted, scanned.File.Name)
		}
		return report, nil
	}

	if !collected.matched {
		report.Status = run.FileSkipped
		report.Error = "no schema rule matches its sheets"
		log.Warn("no rule matches any sheet, skipping", "file", scanned.File.Name)
		return report, nil
	}

	if err := s.loadRecords(ctx, log, mapper, collected, report); err != nil {
		report.Status = run.FileFailed
		report.Error = err.Error()
		return report, err
	}

	log.Info("file processed",
		"file", scanned.File.Name,
		"read", report.Counts.Read,
		"inserted", report.Counts.Inserted,
		"updated", report.Counts.Updated,
		"skipped", report.Counts.Skipped,
		"rejected", report.Counts.Rejected)
	return report, nil
}

// tableGroup collects one physical table's records, in arrival order
type tableGroup struct {
	table string
	rule  *schema.Table
	recs  []*record.NormalizedRecord
}

// collectedFile is everything validation produced for one source file
type collectedFile struct {
	groups  []*tableGroup
	index   map[string]*tableGroup
	matched bool // at least one sheet had a matching rule
}

func (c *collectedFile) add(rule *schema.Table, rec *record.NormalizedRecord) {
	g := c.index[rec.Table]
	if g == nil {
		g = &tableGroup{table: rec.Table, rule: rule}
		c.index[rec.Table] = g
		c.groups = append(c.groups, g)
	}
	g.recs = append(g.recs, rec)
}

// sheetState tracks validation progress within one sheet
type sheetState struct {
	rule      *schema.Table
	validator *record.Validator
	failed    bool // header unusable, rows are ignored
}

// collectRecords streams the file's rows through validation. A reader
// goroutine feeds a bounded channel; validation consumes it here, so I/O
// overlaps parsing without reordering rows.
func (s *ImportService) collectRecords(ctx context.Context, log *slog.Logger, file source.SourceFile, report *run.FileReport) (*collectedFile, error) {
	reader := s.sources[file.Kind]
	collected := &collectedFile{index: make(map[string]*tableGroup)}
	states := make(map[string]*sheetState)

	visit := func(row source.RawRow) error {
		st, ok := states[row.Sheet]
		if !ok {
			st = &sheetState{rule: s.contract.Match(file.Name, row.Sheet)}
			states[row.Sheet] = st
			if st.rule == nil {
				log.Debug("no rule for sheet", "file", file.Name, "sheet", row.Sheet)
			} else {
				collected.matched = true
			}
		}
		if st.rule == nil || st.failed {
			return nil
		}

		if st.validator == nil {
			if row.IsBlank() {
				return nil
			}
			idx := record.BuildHeaderIndex(row.Cells)
			if missing := idx.MissingRequired(st.rule); len(missing) > 0 {
				st.failed = true
				herr := core.NewHeaderError(row.Sheet, missing)
				report.Counts.Rejected++
				report.Rejects = append(report.Rejects, run.RejectDetail{
					File:   file.Name,
					Sheet:  row.Sheet,
					Row:    row.Row,
					Reason: herr.Error(),
				})
				log.Warn("sheet header unusable",
					"file", file.Name, "sheet", row.Sheet, "missing", missing)
				if s.cfg.AbortOnError {
					return fmt.Errorf("%w: %v", core.ErrRunAborted, herr)
				}
				return nil
			}
			loc := record.LocaleFor(s.cfg.Locale, s.contract.Defaults, st.rule)
			st.validator = record.NewValidator(st.rule, idx, loc)
			return nil
		}

		if row.IsBlank() {
			return nil
		}
		report.Counts.Read++

		rec, err := st.validator.Normalize(row)
		if err != nil {
			report.Counts.Rejected++
			detail := run.RejectDetail{File: file.Name, Sheet: row.Sheet, Row: row.Row, Reason: err.Error()}
			var rej *record.RejectError
			if errors.As(err, &rej) {
				detail.Column = rej.Column
				detail.Reason = rej.Reason
			}
			report.Rejects = append(report.Rejects, detail)
			log.Debug("row rejected",
				"file", file.Name, "sheet", row.Sheet, "row", row.Row, "reason", detail.Reason)
			if s.cfg.AbortOnError {
				return fmt.Errorf("%w: %s sheet %s row %d: %v",
					core.ErrRunAborted, file.Name, row.Sheet, row.Row, err)
			}
			return nil
		}
		report.Counts.Validated++
		collected.add(st.rule, rec)
		return nil
	}

	rows := make(chan source.RawRow, rowBuffer)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return reader.Read(gctx, file, func(row source.RawRow) error {
			select {
			case rows <- row:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})
	g.Go(func() error {
		for row := range rows {
			if err := visit(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collected, nil
}

// loadRecords turns a file's collected records into store changes, one
// target table at a time, in batches
func (s *ImportService) loadRecords(ctx context.Context, log *slog.Logger, mapper *Mapper, collected *collectedFile, report *run.FileReport) error {
	for _, group := range collected.groups {
		kept, skips := mapper.Dedup(group.rule, group.recs)
		report.Counts.Skipped += len(skips)
		for _, sk := range skips {
			log.Debug("row superseded by later row",
				"table", group.table, "file", sk.Record.File, "row", sk.Record.Row)
		}

		for start := 0; start < len(kept); start += s.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk := kept[start:min(start+s.cfg.BatchSize, len(kept))]

			existing, err := s.loader.Fetch(ctx, group.table, group.rule, chunk)
			if err != nil {
				if core.IsStructuralError(err) {
					// the table itself is unusable, reject everything bound for it
					s.rejectRows(log, report, group.table, kept[start:], err)
					if s.cfg.AbortOnError {
						return fmt.Errorf("%w: table %s is unusable", core.ErrRunAborted, group.table)
					}
					break
				}
				report.Counts.Failed += len(kept) - start
				return err
			}

			ops := mapper.Plan(group.table, group.rule, chunk, existing)
			res, err := s.loader.Apply(ctx, group.table, group.rule, ops)
			if err != nil {
				// planned skips were already settled, every other row in
				// the group never made it
				for _, op := range ops {
					if op.Kind == change.OpSkip {
						report.Counts.Skipped++
					} else {
						report.Counts.Failed++
					}
				}
				report.Counts.Failed += len(kept) - start - len(chunk)
				return err
			}

			mapper.Commit(group.rule, ops, res)
			report.Counts.Inserted += res.Inserted
			report.Counts.Updated += res.Updated
			report.Counts.Skipped += res.Skipped
			report.Counts.Rejected += len(res.Rejects)
			for _, rej := range res.Rejects {
				report.Rejects = append(report.Rejects, run.RejectDetail{
					File:   rej.Record.File,
					Sheet:  rej.Record.Sheet,
					Row:    rej.Record.Row,
					Reason: rej.Reason,
				})
			}
			report.Touch(group.table)

			if s.cfg.AbortOnError && len(res.Rejects) > 0 {
				return fmt.Errorf("%w: store rejected rows in %s", core.ErrRunAborted, group.table)
			}
		}
	}
	return nil
}

// rejectRows records every given record as rejected for the same cause
func (s *ImportService) rejectRows(log *slog.Logger, report *run.FileReport, table string, recs []*record.NormalizedRecord, cause error) {
	log.Warn("rejecting rows", "table", table, "rows", len(recs), "error", cause)
	for _, rec := range recs {
		report.Counts.Rejected++
		report.Rejects = append(report.Rejects, run.RejectDetail{
			File:   rec.File,
			Sheet:  rec.Sheet,
			Row:    rec.Row,
			Reason: cause.Error(),
		})
	}
}
