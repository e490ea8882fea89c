package domain

import "context"

// Sink is an optional persistent store batches are pushed to after a
// successful in-memory append. Save returns the number of records
// persisted. A sink failure is logged by the caller and never rolls back
// the in-memory stream.
type Sink interface {
	Save(ctx context.Context, batch Batch) (int64, error)
}
