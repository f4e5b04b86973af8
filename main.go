package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/docker/cli/cli/streams"
	"github.com/ryanmoran/pgspawn/internal"
	"github.com/ryanmoran/pgspawn/internal/docker"
	"github.com/ryanmoran/pgspawn/internal/postgres"
)

// exitCodeError carries the exit status of the child command out of run so
// that main can exit with it after every cleanup has run.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.code)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	if err := run(os.Args, os.Environ()); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		log.Fatal(err)
	}
}

func run(args, env []string) error {
	cleanupMgr := internal.NewCleanupManager()
	defer cleanupMgr.Execute()

	config, err := internal.ParseConfig(args[1:], env)
	if err != nil {
		return err
	}

	// Create context with cancellation for proper goroutine cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals to cancel context and cleanup
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	w := internal.NewStandardWriter()

	if config.Prune {
		filter := docker.PruneFilter{CreatedBefore: time.Now().Add(-config.PruneAge)}
		if config.HasSession {
			filter = docker.PruneFilter{Session: config.Session.ID()}
		}
		return prune(ctx, w, filter)
	}

	options := []postgres.Option{
		postgres.WithDocker(config.DockerBinary),
		postgres.WithImage(string(config.Image)),
		postgres.WithContainerPort(config.ContainerPort.String()),
		postgres.WithEnvVars(config.Env),
		postgres.WithLabels(config.Session.Labels()),
		postgres.WithWriter(w),
	}
	if config.Probe {
		options = append(options, postgres.WithReadiness(postgres.Probe{Timeout: config.ProbeTimeout}))
	} else {
		options = append(options, postgres.WithSettleDelay(config.SettleDelay))
	}

	pg, err := postgres.Spawn(ctx, options...)
	if err != nil {
		return fmt.Errorf("failed to spawn postgres from image %q: %w", config.Image, err)
	}
	cleanupMgr.Add("postgres", func() error {
		pg.Close()
		return nil
	})

	if len(config.Args) == 0 {
		w.Println(pg.Address())
		w.Println(pg.DSN())
		if streams.NewOut(w.GetWriter()).IsTerminal() {
			w.Printf("Container %s (session %s) is running. Press Ctrl-C to stop and remove it.\n", pg.ID(), config.Session)
		}

		<-ctx.Done()
		return nil
	}

	return runCommand(ctx, config.Args, append(env, databaseEnv(pg)...))
}

// databaseEnv returns the libpq-style variables that point a client at pg.
func databaseEnv(pg *postgres.Postgres) []string {
	e := pg.Endpoint().Dialable()
	return []string{
		"PGHOST=" + e.Addr().String(),
		"PGPORT=" + strconv.Itoa(int(e.Port())),
		"PGUSER=postgres",
		"PGDATABASE=postgres",
		"PGSSLMODE=disable",
		"DATABASE_URL=" + pg.DSN(),
	}
}

func runCommand(ctx context.Context, args internal.Command, env []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return exitCodeError{code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %q: %w", args[0], err)
	}

	return nil
}

// prune removes the managed containers selected by filter. Without a session,
// only containers older than the prune age are considered leaked, so databases
// in use by concurrent runs survive.
func prune(ctx context.Context, w internal.Writer, filter docker.PruneFilter) error {
	client, err := docker.NewDefaultClient()
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w\nMake sure Docker is installed and running (try 'docker ps')", err)
	}
	defer client.Close()

	removed, err := client.Prune(ctx, w, filter)
	for _, id := range removed {
		w.Printf("removed %s\n", id)
	}
	if err != nil {
		return fmt.Errorf("failed to prune leaked containers: %w", err)
	}

	w.Printf("removed %d leaked container(s)\n", len(removed))
	return nil
}
