package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var maxBodyBytes = 64 << 20

// BreakerSettings tunes the circuit breaker in front of an HTTP source.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32 // consecutive failures before opening
}

// callerGone marks a fetch abandoned by its caller. It says nothing about
// the origin, so the breaker does not count it.
type callerGone struct{ err error }

func (e callerGone) Error() string { return e.err.Error() }
func (e callerGone) Unwrap() error { return e.err }

// HTTPSource fetches the record text with a single GET. It never retries;
// repeated failures open the breaker so callers fail fast.
type HTTPSource struct {
	url     string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewHTTPSource(url string, client *http.Client, bs BreakerSettings) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	threshold := bs.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "record-source",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var gone callerGone
			return err == nil || errors.As(err, &gone)
		},
	})
	return &HTTPSource{url: url, client: client, circuit: cb}
}

// Fetch downloads the record text.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	result, err := s.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, callerGone{err}
			}
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBodyBytes)+1))
		if err != nil {
			if ctx.Err() != nil {
				return nil, callerGone{err}
			}
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(body) > maxBodyBytes {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodyBytes)
		}
		if len(body) == 0 {
			return nil, ErrEmptyBody
		}
		return string(body), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return "", fmt.Errorf("fetch %s: %w", s.url, err)
	}

	body, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}
