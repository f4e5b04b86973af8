package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"strings"
	"sync"

	"github.com/ryanmoran/pgspawn/internal"
	"github.com/ryanmoran/pgspawn/internal/command"
	"github.com/ryanmoran/pgspawn/internal/endpoint"
)

// ErrNoContainer is returned when the start command does not print a container id.
var ErrNoContainer = errors.New("container runtime did not report a container id")

// Postgres is a running PostgreSQL container. It owns the container: Close
// stops and removes it, and nothing else does.
//
// ID and Endpoint are fixed at construction and safe for concurrent use.
type Postgres struct {
	id       internal.ContainerID
	endpoint endpoint.Endpoint

	docker  string
	gateway Gateway
	writer  internal.Writer

	closeOnce sync.Once
}

// Spawn starts a PostgreSQL container that accepts all connections without a
// password, on a host port chosen by the container runtime, and waits for it to
// become ready.
//
// Spawn blocks the calling goroutine for three runtime CLI round trips plus the
// readiness wait, which is two seconds by default. Run it in its own goroutine
// (or use SpawnMany) if that matters. Cancelling ctx kills the port query and
// aborts the readiness wait. The start command itself always runs to
// completion so that the container it creates can be torn down; a Spawn
// cancelled during start returns once the container is removed.
//
// If a step after the container started fails, the container is stopped and
// removed before Spawn returns the error, so a failed Spawn leaves nothing
// behind that the caller must clean up.
func Spawn(ctx context.Context, options ...Option) (*Postgres, error) {
	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.gateway == nil {
		cfg.gateway = command.NewDefaultGateway()
	}
	if cfg.writer == nil {
		cfg.writer = internal.NewStandardWriter()
	}

	// The start command is not cancelled: a runtime killed mid-start may still
	// create the container, and without its id nothing could tear it down.
	output, err := cfg.gateway.Run(context.WithoutCancel(ctx), startCommand(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container from image %q: %w", cfg.image, err)
	}

	// The id is the last thing the runtime prints; anything before it is noise
	// such as image pull notices on runtimes that write them to stdout.
	var id internal.ContainerID
	if fields := strings.Fields(output); len(fields) > 0 {
		id = internal.ContainerID(fields[len(fields)-1])
	}
	if id == "" {
		return nil, fmt.Errorf("failed to start postgres container from image %q: %w\nIs your docker daemon running and the image available?", cfg.image, ErrNoContainer)
	}

	p := &Postgres{
		id:      id,
		docker:  cfg.docker,
		gateway: cfg.gateway,
		writer:  cfg.writer,
	}

	if err := ctx.Err(); err != nil {
		p.Close()
		return nil, fmt.Errorf("cancelled while starting postgres container %q: %w", id, err)
	}

	e, err := p.resolveEndpoint(ctx, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}

	if err := cfg.readiness.WaitReady(ctx, e); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed waiting for postgres container %q: %w", id, err)
	}

	p.endpoint = e
	return p, nil
}

func (p *Postgres) resolveEndpoint(ctx context.Context, cfg *config) (endpoint.Endpoint, error) {
	line := internal.CommandLine(fmt.Sprintf("%s container port %s %s", cfg.docker, p.id, cfg.containerPort))

	output, err := cfg.gateway.Run(ctx, line)
	if err != nil {
		return endpoint.Endpoint{}, fmt.Errorf("failed to query published port of container %q: %w", p.id, err)
	}

	e, err := endpoint.ParseFirst(output)
	if err != nil {
		return endpoint.Endpoint{}, fmt.Errorf("failed to resolve published port of container %q: %w", p.id, err)
	}

	return e, nil
}

func startCommand(cfg *config) internal.CommandLine {
	args := []string{cfg.docker, "run", "--rm", "-d"}
	for _, variable := range cfg.env {
		args = append(args, "-e", variable)
	}
	for _, key := range slices.Sorted(maps.Keys(cfg.labels)) {
		args = append(args, "--label", key+"="+cfg.labels[key])
	}
	args = append(args, "-p", cfg.containerPort.String(), cfg.image)

	return internal.CommandLine(strings.Join(args, " "))
}

// ID returns the container id printed by the runtime.
func (p *Postgres) ID() internal.ContainerID {
	return p.id
}

// Endpoint returns the host address and port the database is published on.
func (p *Postgres) Endpoint() endpoint.Endpoint {
	return p.endpoint
}

// SocketAddr returns the published address as a structured address and port.
func (p *Postgres) SocketAddr() netip.AddrPort {
	return p.endpoint.AddrPort()
}

// Address returns the published address as "host:port".
func (p *Postgres) Address() string {
	return p.endpoint.String()
}

// DSN returns a connection URL for the "postgres" user and database.
func (p *Postgres) DSN() string {
	return DSN(p.endpoint)
}

// Close stops and removes the container. Only the first call does anything.
// Failures are written to the Writer as warnings and never returned.
func (p *Postgres) Close() {
	p.closeOnce.Do(func() {
		teardown(context.Background(), p.gateway, p.docker, p.id, p.writer)
	})
}

// teardown stops and then removes a container, warning about each failure and
// carrying on. Removal normally finds nothing to do because the container runs
// with --rm; it is there for runtimes or states where auto-removal did not happen.
// Exit statuses are not inspected, so tearing down a container that is
// already gone is harmless.
func teardown(ctx context.Context, gateway Gateway, docker string, id internal.ContainerID, w internal.Writer) {
	if err := gateway.RunForEffect(ctx, internal.CommandLine(fmt.Sprintf("%s stop %s", docker, id))); err != nil {
		w.Warningf("failed to stop docker container %q: %v", id, err)
	}

	if err := gateway.RunForEffect(ctx, internal.CommandLine(fmt.Sprintf("%s rm %s", docker, id))); err != nil {
		w.Warningf("failed to remove docker container %q: %v", id, err)
	}
}
