// Package postgres launches throwaway PostgreSQL containers for tests.
//
// Spawn starts a container through the container runtime CLI, discovers the
// host port the runtime assigned, waits until the database is ready and
// returns a *Postgres handle that owns the container. The container accepts
// every connection without a password, so it is only suitable for trusted,
// ephemeral environments.
//
// The handle's Close stops and removes the container exactly once. Teardown
// failures are reported as warnings on the configured Writer and are never
// returned, so a failing cleanup cannot fail a test run. Tie Close to the
// owning scope with defer or t.Cleanup (see package pgtest).
//
//	pg, err := postgres.Spawn(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pg.Close()
//
//	conn, err := pgx.Connect(ctx, pg.DSN())
package postgres
