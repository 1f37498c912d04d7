package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler is the liveness probe. It also reports what the shared
// snapshot parsed, which is handy when a CSV upload goes wrong.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "healthy",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		}
		if deps.Snapshot != nil && deps.Snapshot.Loaded() {
			st := deps.Snapshot.Stats()
			body["records"] = fiber.Map{
				"parsed":        st.Records,
				"skipped":       st.Skipped,
				"invalid_rates": st.InvalidRates,
			}
		}
		return c.JSON(body)
	}
}

// readiness is one named probe. ok=false fails the whole check; an empty
// state means the dependency is not configured.
type readiness struct {
	name  string
	probe func(ctx context.Context) (state string, ok bool)
}

func readinessChecks(deps *Dependencies) []readiness {
	return []readiness{
		{"records", func(context.Context) (string, bool) {
			if deps.Snapshot == nil || !deps.Snapshot.Loaded() {
				return "not loaded", false
			}
			return "ok", true
		}},
		{"nats", func(context.Context) (string, bool) {
			switch {
			case deps.Events == nil:
				return "", true
			case !deps.Events.Connected():
				return "disconnected", false
			}
			return "ok", true
		}},
		{"cache", func(ctx context.Context) (string, bool) {
			if deps.Cache == nil {
				return "", true
			}
			if err := deps.Cache.Ping(ctx); err != nil {
				return "error: " + err.Error(), false
			}
			return "ok", true
		}},
	}
}

// ReadyHandler returns 503 until the record snapshot is loaded and every
// configured backend answers.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, chk := range checks {
			state, ok := chk.probe(ctx)
			if state == "" {
				state = "not configured"
			}
			results[chk.name] = state
			ready = ready && ok
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
