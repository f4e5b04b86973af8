package internal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ryanmoran/pgspawn/internal"
)

func TestConfig(t *testing.T) {
	t.Run("ParseConfig", func(t *testing.T) {
		t.Run("with no arguments", func(t *testing.T) {
			config, err := internal.ParseConfig(nil, nil)
			require.NoError(t, err)

			require.Equal(t, internal.ImageName("postgres"), config.Image)
			require.Equal(t, "docker", config.DockerBinary)
			require.Equal(t, "5432/tcp", config.ContainerPort.String())
			require.Equal(t, 2*time.Second, config.SettleDelay)
			require.False(t, config.Probe)
			require.Equal(t, 30*time.Second, config.ProbeTimeout)
			require.False(t, config.Prune)
			require.Equal(t, time.Hour, config.PruneAge)
			require.False(t, config.HasSession)
			require.Regexp(t, `^pgspawn-`, config.Session.ID())
			require.Empty(t, config.Args)
			require.Empty(t, config.Env)
		})

		t.Run("when given a program", func(t *testing.T) {
			args := []string{"psql", "-c", "select 1"}

			config, err := internal.ParseConfig(args, nil)
			require.NoError(t, err)
			require.Equal(t, internal.Command([]string{"psql", "-c", "select 1"}), config.Args)
		})

		t.Run("with flags", func(t *testing.T) {
			args := []string{
				"--image", "postgres:16-alpine",
				"--docker", "podman",
				"--port", "5433",
				"--settle", "500ms",
				"--probe",
				"--probe-timeout", "10s",
				"--env", "POSTGRES_DB=app",
				"--env", "TZ=UTC",
				"go", "test", "./...",
			}

			config, err := internal.ParseConfig(args, nil)
			require.NoError(t, err)

			require.Equal(t, internal.ImageName("postgres:16-alpine"), config.Image)
			require.Equal(t, "podman", config.DockerBinary)
			require.Equal(t, "5433/tcp", config.ContainerPort.String())
			require.Equal(t, 500*time.Millisecond, config.SettleDelay)
			require.True(t, config.Probe)
			require.Equal(t, 10*time.Second, config.ProbeTimeout)
			require.Equal(t, internal.Environment([]string{"POSTGRES_DB=app", "TZ=UTC"}), config.Env)
			require.Equal(t, internal.Command([]string{"go", "test", "./..."}), config.Args)
		})

		t.Run("with --prune", func(t *testing.T) {
			config, err := internal.ParseConfig([]string{"--prune", "--prune-older-than", "10m"}, nil)
			require.NoError(t, err)
			require.True(t, config.Prune)
			require.Equal(t, 10*time.Minute, config.PruneAge)
		})

		t.Run("with --session", func(t *testing.T) {
			id := "pgspawn-6f1c2d7e-0a5b-4c3d-9e8f-1a2b3c4d5e6f"

			config, err := internal.ParseConfig([]string{"--session", id}, []string{"PGSPAWN_SESSION=pgspawn-00000000-0000-0000-0000-000000000001"})
			require.NoError(t, err)
			require.True(t, config.HasSession)
			require.Equal(t, id, config.Session.ID())
		})

		t.Run("with PGSPAWN_SESSION", func(t *testing.T) {
			config, err := internal.ParseConfig(nil, []string{"PGSPAWN_SESSION=6f1c2d7e-0a5b-4c3d-9e8f-1a2b3c4d5e6f"})
			require.NoError(t, err)
			require.True(t, config.HasSession)
			require.Equal(t, "pgspawn-6f1c2d7e-0a5b-4c3d-9e8f-1a2b3c4d5e6f", config.Session.ID())
		})

		t.Run("with --env-file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "postgres.env")
			err := os.WriteFile(path, []byte("# database\nPOSTGRES_DB=app\nLANG=C.UTF-8\n"), 0o600)
			require.NoError(t, err)

			config, err := internal.ParseConfig([]string{"--env-file", path, "--env", "POSTGRES_DB=other"}, nil)
			require.NoError(t, err)
			require.Equal(t, internal.Environment([]string{"LANG=C.UTF-8", "POSTGRES_DB=app", "POSTGRES_DB=other"}), config.Env)
		})

		t.Run("with environment variables", func(t *testing.T) {
			env := []string{
				"PGSPAWN_IMAGE=postgres:15",
				"PGSPAWN_DOCKER=/usr/local/bin/docker",
				"PGSPAWN_SETTLE=3s",
				"UNRELATED=value",
			}

			config, err := internal.ParseConfig(nil, env)
			require.NoError(t, err)

			require.Equal(t, internal.ImageName("postgres:15"), config.Image)
			require.Equal(t, "/usr/local/bin/docker", config.DockerBinary)
			require.Equal(t, 3*time.Second, config.SettleDelay)
		})

		t.Run("flags take precedence over environment variables", func(t *testing.T) {
			env := []string{
				"PGSPAWN_IMAGE=postgres:15",
				"PGSPAWN_SETTLE=3s",
			}

			config, err := internal.ParseConfig([]string{"--image", "postgres:17", "--settle", "1s"}, env)
			require.NoError(t, err)

			require.Equal(t, internal.ImageName("postgres:17"), config.Image)
			require.Equal(t, time.Second, config.SettleDelay)
		})

		t.Run("empty environment values fall back to defaults", func(t *testing.T) {
			config, err := internal.ParseConfig(nil, []string{"PGSPAWN_IMAGE=", "PGSPAWN_DOCKER=", "PGSPAWN_SETTLE="})
			require.NoError(t, err)

			require.Equal(t, internal.ImageName("postgres"), config.Image)
			require.Equal(t, "docker", config.DockerBinary)
			require.Equal(t, 2*time.Second, config.SettleDelay)
		})

		t.Run("ignores malformed environment entries", func(t *testing.T) {
			config, err := internal.ParseConfig(nil, []string{"NOEQUALS", "PGSPAWN_IMAGE"})
			require.NoError(t, err)
			require.Equal(t, internal.ImageName("postgres"), config.Image)
		})
	})

	t.Run("failure cases", func(t *testing.T) {
		t.Run("invalid PGSPAWN_SETTLE", func(t *testing.T) {
			_, err := internal.ParseConfig(nil, []string{"PGSPAWN_SETTLE=soon"})
			require.ErrorContains(t, err, `invalid PGSPAWN_SETTLE "soon"`)
		})

		t.Run("invalid --settle", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--settle", "soon"}, nil)
			require.ErrorContains(t, err, "failed to parse arguments")
		})

		t.Run("negative settle delay", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--settle", "-1s"}, nil)
			require.ErrorContains(t, err, "settle delay must not be negative")
		})

		t.Run("non-positive probe timeout", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--probe-timeout", "0s"}, nil)
			require.ErrorContains(t, err, "probe timeout must be positive")
		})

		t.Run("invalid container port", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--port", "postgres"}, nil)
			require.ErrorContains(t, err, `invalid container port "postgres"`)
		})

		t.Run("missing env file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.env")
			_, err := internal.ParseConfig([]string{"--env-file", path}, nil)
			require.ErrorContains(t, err, "failed to read env file")
		})

		t.Run("non-positive prune age", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--prune", "--prune-older-than", "0s"}, nil)
			require.ErrorContains(t, err, "prune age must be positive")
		})

		t.Run("invalid session", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--session", "ci-job-42"}, nil)
			require.ErrorContains(t, err, `invalid session "ci-job-42"`)
		})

		t.Run("unknown flag", func(t *testing.T) {
			_, err := internal.ParseConfig([]string{"--volume", "/data:/data"}, nil)
			require.ErrorContains(t, err, "failed to parse arguments")
		})
	})
}
