// Package pgtest ties a throwaway PostgreSQL container to the lifetime of a test.
package pgtest

import (
	"context"
	"testing"

	"github.com/ryanmoran/pgspawn/internal/postgres"
)

// New spawns a PostgreSQL container and registers its teardown with
// tb.Cleanup, so the container is stopped and removed when the test and its
// subtests finish, however they finish. A failed launch fails the test.
func New(tb testing.TB, options ...postgres.Option) *postgres.Postgres {
	tb.Helper()

	pg, err := postgres.Spawn(context.Background(), options...)
	if err != nil {
		tb.Fatalf("failed to spawn postgres: %v", err)
	}
	tb.Cleanup(pg.Close)

	return pg
}
