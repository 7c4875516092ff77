package cache

import "context"

// RecordStore is the cache store used by the orchestrator.
// Implemented by memory (dev), Redis and DynamoDB (prod).
type RecordStore interface {
	// Get returns (record, true, nil) on a hit and (Record{}, false, nil) on a
	// confirmed miss. Any failure to read is returned as an error and must
	// not be treated as a miss.
	Get(ctx context.Context, id string) (Record, bool, error)

	// Put writes rec, overwriting any existing record with the same ID.
	Put(ctx context.Context, rec Record) error
}

// ConditionalPutter is implemented by stores that can refuse to overwrite.
type ConditionalPutter interface {
	// PutIfAbsent writes rec only if no record exists for rec.ID and
	// returns ErrRecordExists otherwise.
	PutIfAbsent(ctx context.Context, rec Record) error
}
