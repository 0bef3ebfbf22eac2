package change

import (
	"github.com/luizvinicius2219/planimport/domain/record"
)

// OpKind names what the loader must do with one record
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpSkip   OpKind = "skip"
	OpReject OpKind = "reject"
)

// Skip reasons
const (
	SkipIdentical  = "identical to stored row"
	SkipSuperseded = "superseded-by-later-row"
)

// Operation is one planned row change against a target table
type Operation struct {
	Kind    OpKind                   `json:"kind"`
	Table   string                   `json:"table"`
	Record  *record.NormalizedRecord `json:"record"`
	Changed []string                 `json:"changed,omitempty"` // update: differing columns, declaration order
	Reason  string                   `json:"reason,omitempty"`  // skip and reject: why
}

// Insert plans a fresh row
func Insert(rec *record.NormalizedRecord) Operation {
	return Operation{Kind: OpInsert, Table: rec.Table, Record: rec}
}

// Update plans rewriting the changed columns of an existing row
func Update(rec *record.NormalizedRecord, changed []string) Operation {
	return Operation{Kind: OpUpdate, Table: rec.Table, Record: rec, Changed: changed}
}

// Skip records that the row needs no work
func Skip(rec *record.NormalizedRecord, reason string) Operation {
	return Operation{Kind: OpSkip, Table: rec.Table, Record: rec, Reason: reason}
}

// Rejected returns a reject-kind copy of the operation carrying the
// per-row fault that stopped it
func (o Operation) Rejected(err error) Operation {
	o.Kind = OpReject
	o.Reason = err.Error()
	return o
}

// BatchResult tallies what one committed batch did
type BatchResult struct {
	Inserted int         `json:"inserted"`
	Updated  int         `json:"updated"`
	Skipped  int         `json:"skipped"`
	Rejects  []Operation `json:"rejects,omitempty"` // reject-kind operations from per-row faults
}

// Merge folds another batch's tallies into this one
func (r *BatchResult) Merge(o BatchResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Rejects = append(r.Rejects, o.Rejects...)
}
