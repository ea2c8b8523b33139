package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type local struct {
	dir string
}

// NewLocal stores the bundle as four files in dir. Save writes a sibling
// staging directory and swaps it in, so dir should hold nothing but the bundle.
func NewLocal(dir string) Store {
	return &local{dir: filepath.Clean(dir)}
}

func (l *local) Save(ctx context.Context, b *Bundle) error {
	files, err := encode(b)
	if err != nil {
		return err
	}

	parent := filepath.Dir(l.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create artifact parent %s: %w", parent, err)
	}

	id := uuid.NewString()
	staging := filepath.Join(parent, fmt.Sprintf(".%s-staging-%s", filepath.Base(l.dir), id))
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, name := range Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(staging, name), files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	previous := filepath.Join(parent, fmt.Sprintf(".%s-previous-%s", filepath.Base(l.dir), id))
	hadPrevious := true
	if err := os.Rename(l.dir, previous); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("retire previous bundle: %w", err)
		}
		hadPrevious = false
	}

	if err := os.Rename(staging, l.dir); err != nil {
		if hadPrevious {
			_ = os.Rename(previous, l.dir)
		}
		return fmt.Errorf("install bundle: %w", err)
	}

	if hadPrevious {
		_ = os.RemoveAll(previous)
	}
	return nil
}

func (l *local) Load(ctx context.Context) (*Bundle, error) {
	files := make(map[string][]byte, len(Files))
	for _, name := range Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, l.dir)
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files[name] = data
	}
	return decode(files)
}
