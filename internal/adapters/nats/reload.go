package natsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultReloadSubject is published to when the record file changes upstream.
const DefaultReloadSubject = "dropmap.records.updated"

// ReloadListener calls a reload func whenever a message arrives on its
// subject. Messages that arrive while a reload runs are coalesced.
type ReloadListener struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
	pending chan struct{}
}

// NewReloadListener connects to NATS.
func NewReloadListener(url, subject string) (*ReloadListener, error) {
	conn, err := nats.Connect(url,
		nats.Name("dropmap-reload"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if subject == "" {
		subject = DefaultReloadSubject
	}
	return &ReloadListener{conn: conn, subject: subject, pending: make(chan struct{}, 1)}, nil
}

// Listen subscribes and runs reload in its own goroutine until ctx ends.
func (l *ReloadListener) Listen(ctx context.Context, reload func(ctx context.Context) error) error {
	sub, err := l.conn.Subscribe(l.subject, l.onMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.subject, err)
	}
	l.sub = sub
	go l.run(ctx, reload)
	return nil
}

func (l *ReloadListener) onMessage(_ *nats.Msg) {
	select {
	case l.pending <- struct{}{}:
	default: // a reload is already queued
	}
}

func (l *ReloadListener) run(ctx context.Context, reload func(ctx context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.pending:
			start := time.Now()
			if err := reload(ctx); err != nil {
				slog.Warn("record reload failed", "subject", l.subject, "error", err)
				continue
			}
			slog.Info("records reloaded", "subject", l.subject, "took", time.Since(start).String())
		}
	}
}

// Connected reports the connection state for readiness probes.
func (l *ReloadListener) Connected() bool {
	return l.conn.IsConnected()
}

// Close unsubscribes and drains.
func (l *ReloadListener) Close() {
	if l.sub != nil {
		_ = l.sub.Unsubscribe()
	}
	_ = l.conn.Drain()
}
