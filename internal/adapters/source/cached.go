package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zstd"

	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/pkg/metrics"
)

// CacheKey is where the compressed record text is stored.
const CacheKey = "dropmap:records:v1"

// CachedSource is a read-through cache in front of another source. The text
// is stored zstd-compressed. Cache failures never fail a fetch.
type CachedSource struct {
	inner ports.RecordSource
	cache ports.CacheService
	key   string
	ttl   int
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func NewCachedSource(inner ports.RecordSource, cache ports.CacheService, ttlSeconds int) (*CachedSource, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &CachedSource{inner: inner, cache: cache, key: CacheKey, ttl: ttlSeconds, enc: enc, dec: dec}, nil
}

func (s *CachedSource) Fetch(ctx context.Context) (string, error) {
	if data, err := s.cache.Get(ctx, s.key); err == nil {
		if raw, err := s.dec.DecodeAll(data, nil); err == nil && len(raw) > 0 {
			metrics.CacheHits.WithLabelValues("records").Inc()
			return string(raw), nil
		}
		slog.Warn("discarding undecodable cached records", "key", s.key)
	}
	metrics.CacheMisses.WithLabelValues("records").Inc()

	raw, err := s.inner.Fetch(ctx)
	if err != nil {
		return "", err
	}

	compressed := s.enc.EncodeAll([]byte(raw), nil)
	if err := s.cache.Set(ctx, s.key, compressed, s.ttl); err != nil {
		slog.Warn("caching records failed", "error", err)
	}
	return raw, nil
}

// Invalidate drops the cached copy.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}

// Close releases the decoder's goroutines.
func (s *CachedSource) Close() {
	s.dec.Close()
}
