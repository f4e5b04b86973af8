package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ryanmoran/pgspawn/internal/endpoint"
	"github.com/sethvargo/go-retry"
)

const (
	defaultProbeTimeout  = 30 * time.Second
	defaultProbeInterval = 250 * time.Millisecond
)

// Readiness decides when a freshly started database may be handed to the caller.
type Readiness interface {
	WaitReady(ctx context.Context, e endpoint.Endpoint) error
}

// SettleDelay waits a fixed duration and then reports the database ready. The
// database may still be initializing when the delay elapses; use Probe when
// that matters.
type SettleDelay time.Duration

// WaitReady blocks for the delay or until ctx is done.
func (d SettleDelay) WaitReady(ctx context.Context, _ endpoint.Endpoint) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Probe repeatedly checks the database until a check succeeds or Timeout
// elapses.
type Probe struct {
	// Timeout bounds the whole probe. Defaults to 30s.
	Timeout time.Duration

	// Interval is the pause between failed checks. Defaults to 250ms.
	Interval time.Duration

	// Check is run against the DSN of the endpoint. Defaults to Ping.
	Check func(ctx context.Context, dsn string) error
}

// WaitReady runs Check until it succeeds.
func (p Probe) WaitReady(ctx context.Context, e endpoint.Endpoint) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	check := p.Check
	if check == nil {
		check = Ping
	}

	retryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dsn := DSN(e)
	var lastErr error
	err := retry.Do(retryCtx, retry.NewConstant(interval), func(ctx context.Context) error {
		if err := check(ctx, dsn); err != nil {
			lastErr = err
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if lastErr != nil && !errors.Is(err, lastErr) {
			err = errors.Join(err, lastErr)
		}
		return fmt.Errorf("postgres at %s did not become ready within %s: %w", e, timeout, err)
	}

	return nil
}

// Ping connects to the database and pings it.
func Ping(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	return errors.Join(conn.Ping(ctx), conn.Close(ctx))
}

// DSN returns a connection URL for the default superuser and database at e.
// Unspecified bind addresses are replaced with loopback so the URL can be dialed.
func DSN(e endpoint.Endpoint) string {
	return fmt.Sprintf("postgres://postgres@%s/postgres?sslmode=disable", e.Dialable())
}
