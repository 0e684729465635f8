package catalog

import "context"

// UpdateResult is the per-record outcome of a batched update.
type UpdateResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Store is the remote price store the engine reads from and writes to. It
// is the source of truth; the engine only keeps a copy of the last result.
type Store interface {
	// Search returns the records matching f in a stable order.
	Search(ctx context.Context, f Filter) ([]PriceRecord, error)
	// Create stores rec. The store assigns the id and creation time. A
	// repeated call with the same non-empty idempotency key must not create
	// a second record.
	Create(ctx context.Context, rec PriceRecord, idempotencyKey string) error
	// Update applies patches and reports success per record.
	Update(ctx context.Context, patches []Patch) ([]UpdateResult, error)
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error
}
