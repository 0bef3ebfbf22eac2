package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/ports"
)

func mapperRule() *schema.Table {
	return &schema.Table{
		Name:       "clientes",
		FileGlob:   "*",
		NaturalKey: []string{"id"},
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, Required: true},
			{Name: "nome", Type: schema.TypeString, Required: true},
			{Name: "saldo", Type: schema.TypeDecimal},
		},
	}
}

func mapperRec(id int64, nome string, saldo float64, row int) *record.NormalizedRecord {
	return &record.NormalizedRecord{
		Table: "clientes",
		Values: map[string]record.Value{
			"id":    record.NewIntegerValue(id),
			"nome":  record.NewStringValue(nome),
			"saldo": record.NewDecimalValue(saldo),
		},
		File:  "clientes.csv",
		Sheet: "csv",
		Row:   row,
	}
}

func existingRow(id int64, nome string, saldo float64) map[string]record.Value {
	return map[string]record.Value{
		"id":    record.NewIntegerValue(id),
		"nome":  record.NewStringValue(nome),
		"saldo": record.NewDecimalValue(saldo),
	}
}

func TestDedupLaterRowWins(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	first := mapperRec(1, "Ana", 10, 2)
	second := mapperRec(2, "Bia", 20, 3)
	third := mapperRec(1, "Ana Maria", 10, 4)

	kept, skips := m.Dedup(rule, []*record.NormalizedRecord{first, second, third})

	require.Len(t, kept, 2)
	assert.Same(t, second, kept[0])
	assert.Same(t, third, kept[1])

	require.Len(t, skips, 1)
	assert.Equal(t, change.OpSkip, skips[0].Kind)
	assert.Equal(t, "superseded-by-later-row", skips[0].Reason)
	assert.Same(t, first, skips[0].Record)
}

func TestDedupKeepsDistinctKeys(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	recs := []*record.NormalizedRecord{
		mapperRec(1, "Ana", 10, 2),
		mapperRec(2, "Bia", 20, 3),
	}

	kept, skips := m.Dedup(rule, recs)

	assert.Len(t, kept, 2)
	assert.Empty(t, skips)
}

func TestPlanInsertWhenAbsent(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	rec := mapperRec(1, "Ana", 10, 2)

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{rec}, ports.ExistingRows{})

	require.Len(t, ops, 1)
	assert.Equal(t, change.OpInsert, ops[0].Kind)
	assert.Same(t, rec, ops[0].Record)
}

func TestPlanSkipWhenIdentical(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	rec := mapperRec(1, "Ana", 10, 2)
	existing := ports.ExistingRows{"1": existingRow(1, "Ana", 10)}

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{rec}, existing)

	require.Len(t, ops, 1)
	assert.Equal(t, change.OpSkip, ops[0].Kind)
	assert.Equal(t, change.SkipIdentical, ops[0].Reason)
}

func TestPlanUpdateCarriesOnlyChangedColumns(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	rec := mapperRec(1, "Ana Maria", 10, 2)
	existing := ports.ExistingRows{"1": existingRow(1, "Ana", 10)}

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{rec}, existing)

	require.Len(t, ops, 1)
	assert.Equal(t, change.OpUpdate, ops[0].Kind)
	assert.Equal(t, []string{"nome"}, ops[0].Changed)
}

func TestPlanNullAgainstValueIsChange(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	rec := mapperRec(1, "Ana", 10, 2)
	rec.Values["saldo"] = record.NullValue()
	existing := ports.ExistingRows{"1": existingRow(1, "Ana", 10)}

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{rec}, existing)

	require.Len(t, ops, 1)
	assert.Equal(t, change.OpUpdate, ops[0].Kind)
	assert.Equal(t, []string{"saldo"}, ops[0].Changed)
}

func TestCommittedRowsShadowTheStore(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	first := mapperRec(1, "Ana", 10, 2)

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{first}, ports.ExistingRows{})
	m.Commit(rule, ops, change.BatchResult{Inserted: 1})

	// same key again, unchanged content, empty store lookup: the run's own
	// applied state decides
	second := mapperRec(1, "Ana", 10, 9)
	ops = m.Plan("clientes", rule, []*record.NormalizedRecord{second}, ports.ExistingRows{})
	require.Len(t, ops, 1)
	assert.Equal(t, change.OpSkip, ops[0].Kind)

	// changed content becomes an update, not a second insert
	third := mapperRec(1, "Ana Maria", 10, 12)
	ops = m.Plan("clientes", rule, []*record.NormalizedRecord{third}, ports.ExistingRows{})
	require.Len(t, ops, 1)
	assert.Equal(t, change.OpUpdate, ops[0].Kind)
	assert.Equal(t, []string{"nome"}, ops[0].Changed)
}

func TestCommitIgnoresRejectedRows(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	good := mapperRec(1, "Ana", 10, 2)
	bad := mapperRec(2, "Bia", 20, 3)

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{good, bad}, ports.ExistingRows{})
	res := change.BatchResult{Inserted: 1, Rejects: []change.Operation{ops[1].Rejected(assert.AnError)}}
	m.Commit(rule, ops, res)

	// the rejected row stayed invisible: planning it again is another insert
	again := m.Plan("clientes", rule, []*record.NormalizedRecord{bad}, ports.ExistingRows{})
	require.Len(t, again, 1)
	assert.Equal(t, change.OpInsert, again[0].Kind)
}

func TestPlanKeepsTablesSeparate(t *testing.T) {
	rule := mapperRule()
	m := NewMapper()
	rec := mapperRec(1, "Ana", 10, 2)

	ops := m.Plan("clientes", rule, []*record.NormalizedRecord{rec}, ports.ExistingRows{})
	m.Commit(rule, ops, change.BatchResult{Inserted: 1})

	// same key under another physical table is still an insert
	other := mapperRec(1, "Ana", 10, 2)
	other.Table = "clientes_sul"
	ops = m.Plan("clientes_sul", rule, []*record.NormalizedRecord{other}, ports.ExistingRows{})
	require.Len(t, ops, 1)
	assert.Equal(t, change.OpInsert, ops[0].Kind)
}
