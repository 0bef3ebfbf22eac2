package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/ports"
)

// Ensure Store implements the port.
var _ ports.TargetStore = (*Store)(nil)

// ConnSettings is what Open needs to reach the target database
type ConnSettings struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// Store loads batches into MySQL over a single connection. The engine is
// a sequential single writer, so the pool is pinned to one connection and
// at most one transaction is in flight.
type Store struct {
	db  *sqlx.DB
	log *slog.Logger
}

// Open connects to MySQL and verifies the connection
func Open(ctx context.Context, c ConnSettings, log *slog.Logger) (*Store, error) {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", classify(err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(3 * time.Minute)

	return &Store{db: db, log: log}, nil
}

// Ping verifies the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the connection
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchExisting loads the mapped columns of every stored row whose natural
// key matches one of the records, in one batched SELECT
func (s *Store) FetchExisting(ctx context.Context, table string, rule *schema.Table, recs []*record.NormalizedRecord) (ports.ExistingRows, error) {
	if len(recs) == 0 {
		return ports.ExistingRows{}, nil
	}

	query, args, err := buildLookup(table, rule, recs)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup for %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing rows from %s: %w", table, classify(err))
	}
	defer rows.Close()

	existing := make(ports.ExistingRows, len(recs))
	for rows.Next() {
		values, err := scanRow(rows, rule)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		existing[record.KeyString(rule.NaturalKey, values)] = values
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", table, classify(err))
	}
	return existing, nil
}

// ApplyBatch applies ops inside one transaction. Structural per-row faults
// reject the row and the batch still commits; transient faults roll the
// whole batch back.
func (s *Store) ApplyBatch(ctx context.Context, table string, rule *schema.Table, ops []change.Operation) (change.BatchResult, error) {
	var res change.BatchResult

	writes := 0
	for _, op := range ops {
		if op.Kind == change.OpInsert || op.Kind == change.OpUpdate {
			writes++
		}
	}
	if writes == 0 {
		for _, op := range ops {
			if op.Kind == change.OpSkip {
				res.Skipped++
			}
		}
		return res, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return change.BatchResult{}, fmt.Errorf("failed to begin batch for %s: %w", table, classify(err))
	}
	defer tx.Rollback()

	for _, op := range ops {
		switch op.Kind {
		case change.OpSkip:
			res.Skipped++
			continue
		case change.OpInsert, change.OpUpdate:
		default:
			continue
		}

		query, args := buildWrite(table, rule, op)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			cerr := classify(err)
			if !core.IsStructuralError(cerr) {
				return change.BatchResult{}, fmt.Errorf("batch for %s aborted: %w", table, cerr)
			}
			// the row is refused, the rest of the batch goes on
			res.Rejects = append(res.Rejects, op.Rejected(cerr))
			s.log.Warn("row rejected by store",
				"table", table, "file", op.Record.File, "row", op.Record.Row, "error", err)
			continue
		}

		if op.Kind == change.OpInsert {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return change.BatchResult{}, fmt.Errorf("failed to commit batch for %s: %w", table, classify(err))
	}
	return res, nil
}

// buildLookup assembles the batched natural-key SELECT. Single-column keys
// go through sqlx.In; composite keys use row-constructor tuples.
func buildLookup(table string, rule *schema.Table, recs []*record.NormalizedRecord) (string, []any, error) {
	cols := make([]string, len(rule.Columns))
	for i, c := range rule.Columns {
		cols[i] = quoteIdent(c.Name)
	}
	selectList := strings.Join(cols, ", ")

	if len(rule.NaturalKey) == 1 {
		key := rule.NaturalKey[0]
		vals := make([]any, len(recs))
		for i, r := range recs {
			vals[i] = r.Value(key).Arg()
		}
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (?)",
			selectList, quoteIdent(table), quoteIdent(key))
		return sqlx.In(query, vals)
	}

	keyCols := make([]string, len(rule.NaturalKey))
	for i, k := range rule.NaturalKey {
		keyCols[i] = quoteIdent(k)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(rule.NaturalKey)), ",") + ")"
	tuples := strings.TrimSuffix(strings.Repeat(tuple+",", len(recs)), ",")

	args := make([]any, 0, len(recs)*len(rule.NaturalKey))
	for _, r := range recs {
		for _, k := range rule.NaturalKey {
			args = append(args, r.Value(k).Arg())
		}
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE (%s) IN (%s)",
		selectList, quoteIdent(table), strings.Join(keyCols, ","), tuples)
	return query, args, nil
}

// buildWrite assembles the INSERT or UPDATE for one operation
func buildWrite(table string, rule *schema.Table, op change.Operation) (string, []any) {
	if op.Kind == change.OpInsert {
		names := make([]string, len(rule.Columns))
		marks := make([]string, len(rule.Columns))
		args := make([]any, len(rule.Columns))
		for i, c := range rule.Columns {
			names[i] = quoteIdent(c.Name)
			marks[i] = "?"
			args[i] = op.Record.Value(c.Name).Arg()
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
		return query, args
	}

	sets := make([]string, len(op.Changed))
	args := make([]any, 0, len(op.Changed)+len(rule.NaturalKey))
	for i, c := range op.Changed {
		sets[i] = quoteIdent(c) + " = ?"
		args = append(args, op.Record.Value(c).Arg())
	}
	wheres := make([]string, len(rule.NaturalKey))
	for i, k := range rule.NaturalKey {
		wheres[i] = quoteIdent(k) + " = ?"
		args = append(args, op.Record.Value(k).Arg())
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(table), strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return query, args
}

// scanRow reads one result row into typed values by declared column type
func scanRow(rows *sql.Rows, rule *schema.Table) (map[string]record.Value, error) {
	dests := make([]any, len(rule.Columns))
	for i, c := range rule.Columns {
		switch c.Type {
		case schema.TypeInteger:
			dests[i] = new(sql.NullInt64)
		case schema.TypeDecimal:
			dests[i] = new(sql.NullFloat64)
		case schema.TypeDate:
			dests[i] = new(sql.NullTime)
		default:
			dests[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}

	values := make(map[string]record.Value, len(rule.Columns))
	for i, c := range rule.Columns {
		switch d := dests[i].(type) {
		case *sql.NullInt64:
			if d.Valid {
				values[c.Name] = record.NewIntegerValue(d.Int64)
			} else {
				values[c.Name] = record.NullValue()
			}
		case *sql.NullFloat64:
			if d.Valid {
				values[c.Name] = record.NewDecimalValue(d.Float64)
			} else {
				values[c.Name] = record.NullValue()
			}
		case *sql.NullTime:
			if d.Valid {
				values[c.Name] = record.NewDateValue(d.Time)
			} else {
				values[c.Name] = record.NullValue()
			}
		case *sql.NullString:
			if d.Valid {
				values[c.Name] = record.NewStringValue(d.String)
			} else {
				values[c.Name] = record.NullValue()
			}
		}
	}
	return values, nil
}

func quoteIdent(s string) string {
	return "`" + s + "`"
}
