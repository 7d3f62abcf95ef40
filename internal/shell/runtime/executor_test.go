package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

type recordedCall struct {
	Dir  string
	Name string
	Args []string
}

// fakeRunner scripts subprocess outcomes and records invocations.
type fakeRunner struct {
	calls  []recordedCall
	stdout string
	stderr string
	err    error
	// block makes Run wait for context cancellation before returning.
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, recordedCall{Dir: dir, Name: name, Args: args})
	if f.block {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	return f.stdout, f.stderr, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(runner Runner) *Executor {
	return NewExecutorWithRunner(DefaultConfig(), runner, testLogger())
}

// =============================================================================
// Tests
// =============================================================================

func TestExecutor_BuildImage_CommandLine(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(runner)

	require.NoError(t, e.BuildImage(context.Background(), "/work/demo", "demo"))

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/work/demo", call.Dir)
	assert.Equal(t, "docker", call.Name)
	assert.Equal(t, []string{"build", "-t", "demo", "."}, call.Args)
}

func TestExecutor_ComposeLifecycle_CommandLines(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(runner)
	ctx := context.Background()

	require.NoError(t, e.ComposeUp(ctx, "/work/demo", "demo"))
	require.NoError(t, e.ComposeRestart(ctx, "/work/demo", "demo"))
	require.NoError(t, e.ComposeDown(ctx, "/work/demo", "demo"))

	require.Len(t, runner.calls, 3)
	assert.Equal(t, []string{"-p", "demo", "up", "-d"}, runner.calls[0].Args)
	assert.Equal(t, []string{"-p", "demo", "restart"}, runner.calls[1].Args)
	assert.Equal(t, []string{"-p", "demo", "down"}, runner.calls[2].Args)
	for _, call := range runner.calls {
		assert.Equal(t, "docker-compose", call.Name)
	}
}

func TestExecutor_Run_ExitFailure(t *testing.T) {
	runner := &fakeRunner{stderr: "no such file: Dockerfile", err: errors.New("exit status 1")}
	e := newTestExecutor(runner)

	err := e.BuildImage(context.Background(), "/work/demo", "demo")
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.NotErrorIs(t, err, ErrTimeout)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "BuildImage", cmdErr.Op)
	assert.Equal(t, "no such file: Dockerfile", cmdErr.Stderr)
}

func TestExecutor_Run_Timeout(t *testing.T) {
	runner := &fakeRunner{block: true}
	cfg := DefaultConfig()
	cfg.BuildTimeout = 20 * time.Millisecond
	e := NewExecutorWithRunner(cfg, runner, testLogger())

	err := e.BuildImage(context.Background(), "/work/demo", "demo")
	require.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrCommandFailed)
}

func TestExecutor_ContainerID_FirstLine(t *testing.T) {
	runner := &fakeRunner{stdout: "abc123def456\nzzz999\n"}
	e := newTestExecutor(runner)

	id, err := e.ContainerID(context.Background(), "/work/demo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", id)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-p", "demo", "ps", "-q"}, runner.calls[0].Args)
}

func TestExecutor_ContainerID_NoContainers(t *testing.T) {
	runner := &fakeRunner{stdout: "\n"}
	e := newTestExecutor(runner)

	id, err := e.ContainerID(context.Background(), "/work/demo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestExecutor_ContainerLogs_BestEffort(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no such container")}
	e := newTestExecutor(runner)

	out := e.ContainerLogs(context.Background(), "abc123", 100)
	assert.Equal(t, "", out)
}

func TestExecutor_ContainerLogs_EmptyID(t *testing.T) {
	runner := &fakeRunner{stdout: "should not run"}
	e := newTestExecutor(runner)

	out := e.ContainerLogs(context.Background(), "", 100)
	assert.Equal(t, "", out)
	assert.Empty(t, runner.calls)
}

func TestExecutor_ContainerLogs_TailArgument(t *testing.T) {
	runner := &fakeRunner{stdout: "line1\nline2\n"}
	e := newTestExecutor(runner)

	out := e.ContainerLogs(context.Background(), "abc123", 50)
	assert.Equal(t, "line1\nline2\n", out)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"logs", "--tail", "50", "abc123"}, runner.calls[0].Args)
}
