package surface_test

import (
	"context"

	"github.com/samirrijal/dropmap/internal/core/domain"
)

type tooltip struct {
	text    string
	visible bool
}

func (t *tooltip) Show(text string, at domain.ProjectedCoordinate) { t.text, t.visible = text, true }
func (t *tooltip) Hide()                                           { t.visible = false }

type sourceFunc func() string

func (f sourceFunc) Fetch(ctx context.Context) (string, error) { return f(), nil }
