package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// WebSocketHandler returns a handler that runs one render bridge Session per
// connection. Closing the socket tears the session down.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var mu sync.Mutex
		closed := false

		// thread-safe write; the load goroutine and the read loop both send
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return nil
			}
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sess, err := NewSession(deps, writeJSON)
		if err != nil {
			slog.Error("ws session init failed", "error", err)
			_ = writeJSON(errorOut{Type: "error", Message: "session unavailable"})
			return
		}
		log := sess.log.With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sess.Start(ctx)

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if mt != websocket.TextMessage {
				continue
			}
			sess.Handle(ctx, msg)
		}

		close(done)
		sess.Close()
		mu.Lock()
		closed = true
		mu.Unlock()
		log.Info("ws client disconnected")
	}
}
