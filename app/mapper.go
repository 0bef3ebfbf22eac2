package app

import (
	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/ports"
)

// Mapper decides what each validated record means for the store: a fresh
// insert, an update of the changed columns, or a skip. It carries the run's
// applied state so a later file sees what an earlier file wrote, in dry
// runs too, where the store itself never changes.
type Mapper struct {
	applied map[string]map[string]map[string]record.Value // table, key, column
}

// NewMapper creates a mapper with no applied state
func NewMapper() *Mapper {
	return &Mapper{applied: make(map[string]map[string]map[string]record.Value)}
}

// Dedup resolves duplicate natural keys within one file's records for one
// target table: the later row wins, each earlier one becomes a superseded
// skip. Winners keep their original order.
func (m *Mapper) Dedup(rule *schema.Table, recs []*record.NormalizedRecord) ([]*record.NormalizedRecord, []change.Operation) {
	winner := make(map[string]*record.NormalizedRecord, len(recs))
	for _, rec := range recs {
		winner[rec.Key(rule.NaturalKey)] = rec
	}

	var kept []*record.NormalizedRecord
	var skips []change.Operation
	for _, rec := range recs {
		if winner[rec.Key(rule.NaturalKey)] == rec {
			kept = append(kept, rec)
		} else {
			skips = append(skips, change.Skip(rec, change.SkipSuperseded))
		}
	}
	return kept, skips
}

// Plan pairs each record with the stored row under the same natural key and
// emits the operation: Insert when absent, Update carrying only the changed
// columns, Skip when identical. Rows applied earlier in the run shadow what
// the store returned.
func (m *Mapper) Plan(table string, rule *schema.Table, recs []*record.NormalizedRecord, existing ports.ExistingRows) []change.Operation {
	ops := make([]change.Operation, 0, len(recs))
	for _, rec := range recs {
		key := rec.Key(rule.NaturalKey)

		prior, found := m.applied[table][key]
		if !found {
			prior, found = existing[key]
		}
		if !found {
			ops = append(ops, change.Insert(rec))
			continue
		}

		var changed []string
		for _, col := range rule.Columns {
			if !rec.Value(col.Name).Equal(prior[col.Name]) {
				changed = append(changed, col.Name)
			}
		}
		if len(changed) == 0 {
			ops = append(ops, change.Skip(rec, change.SkipIdentical))
		} else {
			ops = append(ops, change.Update(rec, changed))
		}
	}
	return ops
}

// Commit folds a batch's applied writes into the run's state. Rows the
// store rejected stay invisible to later files.
func (m *Mapper) Commit(rule *schema.Table, ops []change.Operation, res change.BatchResult) {
	rejected := make(map[*record.NormalizedRecord]bool, len(res.Rejects))
	for _, r := range res.Rejects {
		rejected[r.Record] = true
	}

	for _, op := range ops {
		if op.Kind != change.OpInsert && op.Kind != change.OpUpdate {
			continue
		}
		if rejected[op.Record] {
			continue
		}
		table := op.Record.Table
		if m.applied[table] == nil {
			m.applied[table] = make(map[string]map[string]record.Value)
		}
		m.applied[table][op.Record.Key(rule.NaturalKey)] = op.Record.Values
	}
}
