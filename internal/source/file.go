package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// FileSource reads a JSON array of raw records from disk on every fetch.
type FileSource struct {
	path string
}

func NewFile(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var raws []record.Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return clip(raws, q), nil
}
