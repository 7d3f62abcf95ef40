package runtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds per-operation deadlines for the container toolchain.
type Config struct {
	BuildTimeout   time.Duration
	UpTimeout      time.Duration
	DownTimeout    time.Duration
	RestartTimeout time.Duration
	QueryTimeout   time.Duration
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		BuildTimeout:   300 * time.Second,
		UpTimeout:      300 * time.Second,
		DownTimeout:    30 * time.Second,
		RestartTimeout: 30 * time.Second,
		QueryTimeout:   10 * time.Second,
	}
}

// =============================================================================
// Runner
// =============================================================================

// Runner abstracts subprocess execution so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// Executor
// =============================================================================

// Executor builds images and manages compose projects for deployments.
type Executor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExecutor creates an executor that shells out to docker and
// docker-compose.
func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		runner: execRunner{},
		logger: logger,
	}
}

// NewExecutorWithRunner creates an executor with a custom runner.
// Used by tests.
func NewExecutorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// BuildImage builds the Dockerfile in dir and tags the image with name.
func (e *Executor) BuildImage(ctx context.Context, dir, name string) error {
	_, err := e.run(ctx, "BuildImage", dir, e.cfg.BuildTimeout,
		"docker", "build", "-t", name, ".")
	return err
}

// ComposeUp starts the compose project in dir, building as needed.
func (e *Executor) ComposeUp(ctx context.Context, dir, project string) error {
	_, err := e.run(ctx, "ComposeUp", dir, e.cfg.UpTimeout,
		"docker-compose", "-p", project, "up", "-d")
	return err
}

// ComposeDown stops and removes the compose project in dir.
func (e *Executor) ComposeDown(ctx context.Context, dir, project string) error {
	_, err := e.run(ctx, "ComposeDown", dir, e.cfg.DownTimeout,
		"docker-compose", "-p", project, "down")
	return err
}

// ComposeRestart restarts the compose project's containers.
func (e *Executor) ComposeRestart(ctx context.Context, dir, project string) error {
	_, err := e.run(ctx, "ComposeRestart", dir, e.cfg.RestartTimeout,
		"docker-compose", "-p", project, "restart")
	return err
}

// ContainerID returns the id of the project's first container, or ""
// when none is running.
func (e *Executor) ContainerID(ctx context.Context, dir, project string) (string, error) {
	stdout, err := e.run(ctx, "ContainerID", dir, e.cfg.QueryTimeout,
		"docker-compose", "-p", project, "ps", "-q")
	if err != nil {
		return "", err
	}

	lines := strings.SplitN(strings.TrimSpace(stdout), "\n", 2)
	if len(lines) == 0 || lines[0] == "" {
		return "", nil
	}
	return strings.TrimSpace(lines[0]), nil
}

// ContainerLogs fetches the last tail lines from a container. Log
// collection is best effort, failures return empty output.
func (e *Executor) ContainerLogs(ctx context.Context, containerID string, tail int) string {
	if containerID == "" {
		return ""
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(runCtx, "", "docker", "logs", "--tail", strconv.Itoa(tail), containerID)
	if err != nil {
		e.logger.Debug("log collection failed", "container_id", containerID, "error", err)
		return ""
	}
	// docker writes container stderr streams to its own stderr
	if stdout == "" {
		return stderr
	}
	return stdout
}

// run executes a command under a deadline, mapping a blown deadline to
// ErrTimeout and a non-zero exit to ErrCommandFailed.
func (e *Executor) run(ctx context.Context, op, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmdline := name + " " + strings.Join(args, " ")
	started := time.Now()

	stdout, stderr, err := e.runner.Run(runCtx, dir, name, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			e.logger.Warn("command timed out", "op", op, "command", cmdline, "timeout", timeout)
			return stdout, NewCommandError(op, cmdline, -1, strings.TrimSpace(stderr), ErrTimeout)
		}

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		e.logger.Warn("command failed", "op", op, "command", cmdline, "exit_code", exitCode)
		return stdout, NewCommandError(op, cmdline, exitCode, strings.TrimSpace(stderr), ErrCommandFailed)
	}

	e.logger.Debug("command completed", "op", op, "command", cmdline, "duration", time.Since(started))
	return stdout, nil
}
