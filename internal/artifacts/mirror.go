package artifacts

import (
	"context"
	"errors"
	"fmt"
)

type mirror struct {
	primary  Store
	replicas []Store
}

// Mirror saves to primary and then to each replica, and loads from primary.
// Once primary holds the new bundle it stays committed: replica failures are
// joined and returned wrapped in ErrReplicaFailed.
func Mirror(primary Store, replicas ...Store) Store {
	return &mirror{primary: primary, replicas: replicas}
}

func (m *mirror) Save(ctx context.Context, b *Bundle) error {
	if err := m.primary.Save(ctx, b); err != nil {
		return err
	}
	var errs []error
	for i, r := range m.replicas {
		if err := r.Save(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("replica %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrReplicaFailed, errors.Join(errs...))
	}
	return nil
}

func (m *mirror) Load(ctx context.Context) (*Bundle, error) {
	return m.primary.Load(ctx)
}
