package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/abid8042/chessnetviz/pkg/cache"
	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/observability"
)

// Source is a loaded dataset with the content hash cache keys derive from.
type Source struct {
	Name    string
	Hash    string
	Dataset *dataset.Dataset
}

// Load reads and validates the dataset file at path.
func Load(ctx context.Context, path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "read %s", path)
	}
	return LoadBytes(ctx, filepath.Base(path), data)
}

// LoadBytes decodes and validates dataset bytes. name is only used for
// reporting.
func LoadBytes(ctx context.Context, name string, data []byte) (*Source, error) {
	observability.Pipeline().OnLoadStart(ctx, name)
	start := time.Now()

	d, err := dataset.Decode(data)
	moves := 0
	if d != nil {
		moves = d.Len()
	}
	observability.Pipeline().OnLoadComplete(ctx, name, moves, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &Source{Name: name, Hash: cache.Hash(data), Dataset: d}, nil
}
