package internal

import (
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/moby/moby/api/types/network"
)

const (
	// DefaultImage is the database image started when no other is configured.
	DefaultImage = "postgres"

	// DefaultDockerBinary is the container runtime CLI invoked by the command gateway.
	DefaultDockerBinary = "docker"

	// DefaultContainerPort is the port Postgres listens on inside the container.
	DefaultContainerPort = "5432/tcp"

	// DefaultSettleDelay is how long launch waits after the port is published
	// before declaring the database ready. Postgres usually accepts connections
	// well within this window on a warm image cache.
	DefaultSettleDelay = 2 * time.Second

	// DefaultProbeTimeout bounds the active readiness probe.
	DefaultProbeTimeout = 30 * time.Second

	// DefaultPruneAge is how old a managed container must be before --prune
	// treats it as leaked when no session is given.
	DefaultPruneAge = time.Hour
)

type Config struct {
	Image         ImageName
	DockerBinary  string
	ContainerPort network.Port
	SettleDelay   time.Duration
	Probe         bool
	ProbeTimeout  time.Duration
	Prune         bool
	PruneAge      time.Duration

	// Session labels the containers of this run. HasSession reports whether
	// it was given with --session or PGSPAWN_SESSION rather than generated.
	Session    Session
	HasSession bool

	Args Command
	Env  Environment
}

type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// ParseConfig parses command-line arguments and environment variables into the
// configuration for a pgspawn run. Flags take precedence over the PGSPAWN_IMAGE,
// PGSPAWN_DOCKER, PGSPAWN_SETTLE and PGSPAWN_SESSION environment variables, which in turn take
// precedence over the defaults. Arguments left after the flags are captured as the
// command to run against the database. Variables from --env-file are passed to
// the container ahead of those given with --env. Returns an error when a flag
// cannot be parsed, the env file cannot be read, or the container port, the
// session or a duration is malformed.
func ParseConfig(args []string, environment []string) (Config, error) {
	lookup := make(map[string]string)
	for _, variable := range environment {
		key, value, ok := strings.Cut(variable, "=")
		if ok {
			lookup[key] = value
		}
	}

	image := DefaultImage
	if value, ok := lookup["PGSPAWN_IMAGE"]; ok && value != "" {
		image = value
	}

	dockerBinary := DefaultDockerBinary
	if value, ok := lookup["PGSPAWN_DOCKER"]; ok && value != "" {
		dockerBinary = value
	}

	settle := DefaultSettleDelay
	if value, ok := lookup["PGSPAWN_SETTLE"]; ok && value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PGSPAWN_SETTLE %q: %w\nUse a Go duration such as 2s or 500ms", value, err)
		}
		settle = d
	}

	sessionID := lookup["PGSPAWN_SESSION"]

	var (
		env          stringSlice
		envFile      string
		pruneAge     time.Duration
		port         string
		probe        bool
		probeTimeout time.Duration
		prune        bool
	)

	fs := flag.NewFlagSet("pgspawn", flag.ContinueOnError)
	fs.StringVar(&image, "image", image, "database image to run")
	fs.StringVar(&dockerBinary, "docker", dockerBinary, "container runtime CLI")
	fs.StringVar(&port, "port", DefaultContainerPort, "container port to publish")
	fs.DurationVar(&settle, "settle", settle, "fixed delay before the database is considered ready")
	fs.BoolVar(&probe, "probe", false, "actively probe the database instead of waiting a fixed delay")
	fs.DurationVar(&probeTimeout, "probe-timeout", DefaultProbeTimeout, "maximum time to probe for readiness")
	fs.Var(&env, "env", "extra container environment variable (KEY=VALUE)")
	fs.StringVar(&envFile, "env-file", "", "file of extra container environment variables")
	fs.BoolVar(&prune, "prune", false, "remove containers leaked by earlier runs and exit")
	fs.DurationVar(&pruneAge, "prune-older-than", DefaultPruneAge, "with --prune and no session, only remove containers older than this")
	fs.StringVar(&sessionID, "session", sessionID, "session id to label containers with, or to prune")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("failed to parse arguments: %w", err)
	}

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read env file %q: %w", envFile, err)
		}

		// Explicit --env values are appended last so they win in the container.
		var merged stringSlice
		for _, key := range slices.Sorted(maps.Keys(fromFile)) {
			merged = append(merged, key+"="+fromFile[key])
		}
		env = append(merged, env...)
	}

	containerPort, err := network.ParsePort(port)
	if err != nil {
		return Config{}, fmt.Errorf("invalid container port %q: %w\nUse a port such as 5432 or 5432/tcp", port, err)
	}

	if settle < 0 {
		return Config{}, fmt.Errorf("settle delay must not be negative: %s", settle)
	}

	if probeTimeout <= 0 {
		return Config{}, fmt.Errorf("probe timeout must be positive: %s", probeTimeout)
	}

	if pruneAge <= 0 {
		return Config{}, fmt.Errorf("prune age must be positive: %s", pruneAge)
	}

	session := GenerateSession()
	if sessionID != "" {
		session, err = ParseSession(sessionID)
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		Image:         ImageName(image),
		DockerBinary:  dockerBinary,
		ContainerPort: containerPort,
		SettleDelay:   settle,
		Probe:         probe,
		ProbeTimeout:  probeTimeout,
		Prune:         prune,
		PruneAge:      pruneAge,
		Session:       session,
		HasSession:    sessionID != "",
		Args:          Command(fs.Args()),
		Env:           Environment(env),
	}, nil
}
