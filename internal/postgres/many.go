package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ryanmoran/pgspawn/internal"
	"golang.org/x/sync/errgroup"
)

// SpawnMany launches n independent containers concurrently with the same
// options. Either all n handles are returned, or none are: if any launch
// fails, the handles that did start are closed and the launch errors are
// returned joined together.
//
// The containers share one session label, so they can be listed or pruned
// together. A session label passed in options takes precedence.
//
// Launches are not cancelled when a sibling fails, so every container that
// gets an id is also torn down.
func SpawnMany(ctx context.Context, n int, options ...Option) ([]*Postgres, error) {
	if n <= 0 {
		return nil, fmt.Errorf("number of containers must be positive: %d", n)
	}

	options = append([]Option{WithLabels(internal.GenerateSession().Labels())}, options...)

	handles := make([]*Postgres, n)
	errs := make([]error, n)

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			p, err := Spawn(ctx, options...)
			if err != nil {
				errs[i] = fmt.Errorf("launch %d of %d: %w", i+1, n, err)
				return errs[i]
			}
			handles[i] = p
			return nil
		})
	}

	if g.Wait() != nil {
		for _, p := range handles {
			if p != nil {
				p.Close()
			}
		}
		return nil, errors.Join(errs...)
	}

	return handles, nil
}
