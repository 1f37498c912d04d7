package ports

import "context"

// RecordSource supplies the raw delimited record text.
type RecordSource interface {
	Fetch(ctx context.Context) (string, error)
}

// Invalidator is implemented by sources that keep a copy of the records and
// can be told to drop it before the next Fetch.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheService stores opaque blobs. Get returns an error on a miss.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
