package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode"

	"github.com/moby/moby/api/types/network"
	"github.com/ryanmoran/pgspawn/internal"
)

const (
	// DefaultImage is the image started when WithImage is not given.
	DefaultImage = internal.DefaultImage

	// DefaultContainerPort is the port Postgres listens on inside the container.
	DefaultContainerPort = internal.DefaultContainerPort

	// DefaultSettleDelay is the readiness wait used when WithReadiness is not given.
	DefaultSettleDelay = internal.DefaultSettleDelay
)

// Gateway runs container runtime commands. *command.Gateway values satisfy it.
type Gateway interface {
	Run(ctx context.Context, line internal.CommandLine) (string, error)
	RunForEffect(ctx context.Context, line internal.CommandLine) error
}

// Option configures Spawn.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(cfg *config) error {
	return f(cfg)
}

type config struct {
	docker        string
	image         string
	containerPort network.Port
	env           []string
	labels        map[string]string
	readiness     Readiness
	gateway       Gateway
	writer        internal.Writer
}

func defaultConfig() *config {
	return &config{
		docker:        internal.DefaultDockerBinary,
		image:         DefaultImage,
		containerPort: network.MustParsePort(DefaultContainerPort),
		env:           []string{"POSTGRES_HOST_AUTH_METHOD=trust"},
		labels:        internal.GenerateSession().Labels(),
		readiness:     SettleDelay(DefaultSettleDelay),
	}
}

func validToken(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	if strings.ContainsFunc(value, unicode.IsSpace) {
		return fmt.Errorf("%s must not contain whitespace: %q", kind, value)
	}
	return nil
}

// WithDocker sets the container runtime CLI. Defaults to "docker".
func WithDocker(binary string) Option {
	return optionFunc(func(cfg *config) error {
		if err := validToken("docker binary", binary); err != nil {
			return err
		}
		cfg.docker = binary
		return nil
	})
}

// WithImage sets the PostgreSQL image, for example "postgres:16-alpine".
func WithImage(image string) Option {
	return optionFunc(func(cfg *config) error {
		if err := validToken("image", image); err != nil {
			return err
		}
		cfg.image = image
		return nil
	})
}

// WithContainerPort sets the port published from the container, for example "5432/tcp".
func WithContainerPort(port string) Option {
	return optionFunc(func(cfg *config) error {
		p, err := network.ParsePort(port)
		if err != nil {
			return fmt.Errorf("invalid container port: %w", err)
		}
		cfg.containerPort = p
		return nil
	})
}

// WithEnv appends a container environment variable.
func WithEnv(key, value string) Option {
	return optionFunc(func(cfg *config) error {
		if err := validToken("env key", key); err != nil {
			return err
		}
		if strings.Contains(key, "=") {
			return fmt.Errorf("env key must not contain '=': %s", key)
		}
		if strings.ContainsFunc(value, unicode.IsSpace) {
			return fmt.Errorf("env value for %s must not contain whitespace", key)
		}
		cfg.env = append(cfg.env, key+"="+value)
		return nil
	})
}

// WithEnvVars appends container environment variables in KEY=VALUE format.
func WithEnvVars(envVars []string) Option {
	return optionFunc(func(cfg *config) error {
		for _, variable := range envVars {
			key, value, ok := strings.Cut(variable, "=")
			if !ok {
				return fmt.Errorf("env variable must be KEY=VALUE: %q", variable)
			}
			if err := WithEnv(key, value).apply(cfg); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithLabel sets a container label.
func WithLabel(key, value string) Option {
	return optionFunc(func(cfg *config) error {
		if err := validToken("label key", key); err != nil {
			return err
		}
		if strings.ContainsFunc(value, unicode.IsSpace) {
			return fmt.Errorf("label value for %s must not contain whitespace", key)
		}
		cfg.labels[key] = value
		return nil
	})
}

// WithLabels merges labels into the container labels.
func WithLabels(labels map[string]string) Option {
	return optionFunc(func(cfg *config) error {
		for key, value := range maps.Clone(labels) {
			if err := WithLabel(key, value).apply(cfg); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithSettleDelay waits a fixed delay for readiness. This is the default, with
// DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return optionFunc(func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("settle delay must not be negative: %s", d)
		}
		cfg.readiness = SettleDelay(d)
		return nil
	})
}

// WithReadiness replaces how Spawn waits for the database to become ready.
func WithReadiness(readiness Readiness) Option {
	return optionFunc(func(cfg *config) error {
		if readiness == nil {
			return errors.New("readiness must not be nil")
		}
		cfg.readiness = readiness
		return nil
	})
}

// WithGateway sets the gateway used to run runtime commands.
func WithGateway(gateway Gateway) Option {
	return optionFunc(func(cfg *config) error {
		if gateway == nil {
			return errors.New("gateway must not be nil")
		}
		cfg.gateway = gateway
		return nil
	})
}

// WithWriter sets where launch progress and teardown warnings are written.
func WithWriter(w internal.Writer) Option {
	return optionFunc(func(cfg *config) error {
		if w == nil {
			return errors.New("writer must not be nil")
		}
		cfg.writer = w
		return nil
	})
}
