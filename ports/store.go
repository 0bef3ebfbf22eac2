package ports

import (
	"context"

	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
)

// ExistingRows holds stored rows by canonical key string, each mapping
// column name to its stored value
type ExistingRows map[string]map[string]record.Value

// TargetStore is the write side of the engine: natural-key lookups and
// transactional batch application against the target database.
type TargetStore interface {
	// Ping verifies the connection before any file is processed
	Ping(ctx context.Context) error

	// FetchExisting loads the mapped columns of the stored rows whose
	// natural keys match any of the given records
	FetchExisting(ctx context.Context, table string, rule *schema.Table, recs []*record.NormalizedRecord) (ExistingRows, error)

	// ApplyBatch applies one batch inside a single transaction.
	// Per-row structural faults reject the row and the rest of the batch
	// still commits; a transient fault rolls the whole batch back and is
	// returned wrapped as a transient store error.
	ApplyBatch(ctx context.Context, table string, rule *schema.Table, ops []change.Operation) (change.BatchResult, error)

	// Close releases the connection
	Close() error
}
