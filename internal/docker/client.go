package docker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"github.com/ryanmoran/pgspawn/internal"
)

type Client struct {
	client DockerClient
}

// NewClient creates a Client that wraps the provided Docker client interface.
func NewClient(dockerClient DockerClient) Client {
	return Client{
		client: dockerClient,
	}
}

// NewDefaultClient creates a Client with a real Docker client from the environment.
func NewDefaultClient() (Client, error) {
	cli, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return Client{}, fmt.Errorf("failed to create docker client: %w\nEnsure Docker is running and DOCKER_HOST is set correctly", err)
	}

	return NewClient(cli), nil
}

// Close closes the underlying Docker client connection.
func (c Client) Close() {
	c.client.Close()
}

// Ping pings the Docker daemon and returns the API version if successful.
func (c Client) Ping(ctx context.Context) (string, error) {
	ping, err := c.client.Ping(ctx, client.PingOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to ping docker daemon: %w\nMake sure Docker is installed and running (try 'docker ps')", err)
	}
	return ping.APIVersion, nil
}

// Exists reports whether the daemon knows a container with the given id, in
// any state. A not-found answer is reported as false, not as an error.
func (c Client) Exists(ctx context.Context, id internal.ContainerID) (bool, error) {
	_, err := c.client.ContainerInspect(ctx, string(id), client.ContainerInspectOptions{})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container %q: %w", id, err)
	}

	return true, nil
}

// ListManaged returns the ids of all containers, running or stopped, that
// carry the pgspawn managed label.
func (c Client) ListManaged(ctx context.Context) ([]internal.ContainerID, error) {
	return c.list(ctx, client.Filters{}.Add("label", internal.ManagedLabelKey))
}

// ListSession returns the ids of all containers launched by the given session.
func (c Client) ListSession(ctx context.Context, session string) ([]internal.ContainerID, error) {
	return c.list(ctx, client.Filters{}.Add("label", internal.SessionLabelKey+"="+session))
}

func (c Client) list(ctx context.Context, filters client.Filters) ([]internal.ContainerID, error) {
	summaries, err := c.summaries(ctx, filters)
	if err != nil {
		return nil, err
	}

	ids := make([]internal.ContainerID, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, internal.ContainerID(summary.ID))
	}
	return ids, nil
}

func (c Client) summaries(ctx context.Context, filters client.Filters) ([]container.Summary, error) {
	result, err := c.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: filters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	return result.Items, nil
}

// PruneFilter selects which managed containers Prune removes. At least one
// field must be set: a container is removed only when it matches every field
// that is set.
type PruneFilter struct {
	// Session limits pruning to containers launched by this session.
	Session string

	// CreatedBefore limits pruning to containers created before this time.
	CreatedBefore time.Time
}

// Prune force-removes containers carrying the pgspawn managed label that match
// filter, and returns the ids it removed. Containers of other sessions and
// containers created after filter.CreatedBefore are left alone, since they may
// belong to a launch that is still running. A container that disappears before
// it can be removed is not an error. Other removal failures are joined and
// returned after every matching container has been attempted.
func (c Client) Prune(ctx context.Context, w internal.Writer, filter PruneFilter) ([]internal.ContainerID, error) {
	if filter.Session == "" && filter.CreatedBefore.IsZero() {
		return nil, errors.New("refusing to prune every managed container\nLimit pruning to a session or to containers older than a given age")
	}

	filters := client.Filters{}.Add("label", internal.ManagedLabelKey)
	if filter.Session != "" {
		filters = filters.Add("label", internal.SessionLabelKey+"="+filter.Session)
	}

	summaries, err := c.summaries(ctx, filters)
	if err != nil {
		return nil, err
	}

	var (
		removed []internal.ContainerID
		errs    []error
	)
	for _, summary := range summaries {
		if !filter.CreatedBefore.IsZero() && !time.Unix(summary.Created, 0).Before(filter.CreatedBefore) {
			continue
		}

		id := internal.ContainerID(summary.ID)
		_, err := c.client.ContainerRemove(ctx, summary.ID, client.ContainerRemoveOptions{Force: true})
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			w.Warningf("failed to remove leaked container %q: %v", id, err)
			errs = append(errs, fmt.Errorf("failed to remove container %q: %w", id, err))
			continue
		}
		removed = append(removed, id)
	}

	return removed, errors.Join(errs...)
}
