package source

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the record text from a local file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return "", ErrEmptyBody
	}
	return string(b), nil
}
