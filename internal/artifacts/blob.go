package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/JaimeStill/churn/pkg/storage"
)

type blob struct {
	store  storage.System
	prefix string
}

// NewBlob stores the bundle as four blobs under prefix. Blob writes are not
// atomic as a group: a failed Save removes the blobs it already wrote, so a
// reader sees a missing bundle rather than a mixed one.
func NewBlob(store storage.System, prefix string) Store {
	return &blob{store: store, prefix: prefix}
}

func (s *blob) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *blob) Save(ctx context.Context, b *Bundle) error {
	files, err := encode(b)
	if err != nil {
		return err
	}

	// Files order puts the report last.
	for i, name := range Files {
		if err := s.store.Put(ctx, s.key(name), files[name], contentType(name)); err != nil {
			return errors.Join(fmt.Errorf("upload %s: %w", name, err), s.remove(ctx, Files[:i]))
		}
	}
	return nil
}

func (s *blob) remove(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if err := s.store.Delete(ctx, s.key(name)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *blob) Load(ctx context.Context) (*Bundle, error) {
	for _, name := range Files {
		ok, err := s.store.Exists(ctx, s.key(name))
		if err != nil {
			return nil, fmt.Errorf("%w: blob %s: %w", ErrRemoteFetch, s.key(name), err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %w: blob %s", ErrRemoteFetch, ErrNotFound, s.key(name))
		}
	}

	files := make(map[string][]byte, len(Files))
	for _, name := range Files {
		data, err := s.store.Get(ctx, s.key(name))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w: blob %s", ErrRemoteFetch, ErrNotFound, s.key(name))
			}
			return nil, fmt.Errorf("%w: blob %s: %w", ErrRemoteFetch, s.key(name), err)
		}
		files[name] = data
	}
	return decode(files)
}
