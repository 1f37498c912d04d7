// Package source implements ports.RecordSource over HTTP, local files and a
// compressed Valkey cache.
package source

import "errors"

var (
	ErrEmptyBody        = errors.New("record source returned an empty body")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrBodyTooLarge     = errors.New("record source body too large")
	ErrNotConfigured    = errors.New("no record source configured")
)
