package deploy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/repodock/internal/core/artifact"
	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/core/ports"
	"github.com/artpar/repodock/internal/core/stack"
	"github.com/artpar/repodock/internal/shell/store"
)

// =============================================================================
// Test Helpers
// =============================================================================

type runtimeCall struct {
	op      string
	dir     string
	project string
}

// fakeRuntime records invocations and scripts failures per operation.
type fakeRuntime struct {
	mu          sync.Mutex
	calls       []runtimeCall
	buildErr    error
	upErr       error
	downErr     error
	restartErr  error
	containerID string
	logs        string
	// buildHook, when non-nil, runs inside BuildImage.
	buildHook func()
}

func (f *fakeRuntime) record(op, dir, project string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runtimeCall{op: op, dir: dir, project: project})
}

func (f *fakeRuntime) BuildImage(ctx context.Context, dir, name string) error {
	f.record("build", dir, name)
	if f.buildHook != nil {
		f.buildHook()
	}
	return f.buildErr
}

func (f *fakeRuntime) ComposeUp(ctx context.Context, dir, project string) error {
	f.record("up", dir, project)
	return f.upErr
}

func (f *fakeRuntime) ComposeDown(ctx context.Context, dir, project string) error {
	f.record("down", dir, project)
	return f.downErr
}

func (f *fakeRuntime) ComposeRestart(ctx context.Context, dir, project string) error {
	f.record("restart", dir, project)
	return f.restartErr
}

func (f *fakeRuntime) ContainerID(ctx context.Context, dir, project string) (string, error) {
	f.record("ps", dir, project)
	return f.containerID, nil
}

func (f *fakeRuntime) ContainerLogs(ctx context.Context, containerID string, tail int) string {
	f.record("logs", containerID, "")
	return f.logs
}

func (f *fakeRuntime) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.op
	}
	return ops
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupService(t *testing.T, rt Runtime) (*Service, store.Store, *ports.Allocator) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	allocator := ports.NewAllocator()
	svc := NewService(s, allocator, rt, DefaultConfig(), testLogger())
	return svc, s, allocator
}

// createClonedRepo persists a repository whose working tree contains an
// Express application.
func createClonedRepo(t *testing.T, s store.Store, name string) *domain.Repository {
	t.Helper()
	dir := t.TempDir()
	manifest := `{"dependencies": {"express": "^4.18.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644))

	repo, err := domain.NewRepository(name, "https://github.com/acme/"+name+".git")
	require.NoError(t, err)
	repo.MarkCloned(dir)
	require.NoError(t, s.CreateRepository(context.Background(), repo))
	return repo
}

func createPending(t *testing.T, svc *Service, s store.Store, name string) (*domain.Repository, *domain.Deployment) {
	t.Helper()
	repo := createClonedRepo(t, s, name)
	deployment, err := svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	require.NoError(t, err)
	return repo, deployment
}

// =============================================================================
// Create
// =============================================================================

func TestService_Create(t *testing.T) {
	svc, s, allocator := setupService(t, &fakeRuntime{})
	repo := createClonedRepo(t, s, "shop")

	deployment, err := svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, deployment.Status)
	assert.Equal(t, stack.Node, deployment.Stack)
	assert.Equal(t, 90, deployment.Confidence)
	assert.Equal(t, ports.MinPort, deployment.AssignedPort)
	assert.Contains(t, deployment.Dockerfile, "FROM node:18-alpine")
	assert.Contains(t, deployment.ComposeFile, "container_name: shop-app")
	assert.True(t, allocator.IsAllocated(deployment.AssignedPort))

	// The working tree stays untouched until Start.
	_, err = os.Stat(filepath.Join(repo.Path, "Dockerfile"))
	assert.True(t, os.IsNotExist(err))

	stored, err := s.GetDeployment(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, deployment.ComposeFile, stored.ComposeFile)

	mirrored, err := s.GetRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, mirrored.DeployStatus)
}

func TestService_Create_RepositoryNotCloned(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})

	repo, err := domain.NewRepository("shop", "https://github.com/acme/shop.git")
	require.NoError(t, err)
	require.NoError(t, s.CreateRepository(context.Background(), repo))

	_, err = svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	assert.ErrorIs(t, err, ErrRepositoryNotCloned)
}

func TestService_Create_UnknownRepository(t *testing.T) {
	svc, _, _ := setupService(t, &fakeRuntime{})

	_, err := svc.Create(context.Background(), "missing", artifact.DefaultComposeOptions())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_Create_UnknownStackFallback(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})

	repo, err := domain.NewRepository("mystery", "https://github.com/acme/mystery.git")
	require.NoError(t, err)
	repo.MarkCloned(t.TempDir())
	require.NoError(t, s.CreateRepository(context.Background(), repo))

	deployment, err := svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	require.NoError(t, err)

	assert.Equal(t, stack.Unknown, deployment.Stack)
	assert.Equal(t, 0, deployment.Confidence)
	assert.Contains(t, deployment.Dockerfile, "MANUAL CONFIGURATION REQUIRED")
}

func TestService_Create_DuplicateKeepsExistingPort(t *testing.T) {
	svc, s, allocator := setupService(t, &fakeRuntime{})
	repo, first := createPending(t, svc, s, "shop")

	_, err := svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	require.Error(t, err)

	assert.True(t, allocator.IsAllocated(first.AssignedPort))
}

func TestService_Create_SlugsNameIntoArtifacts(t *testing.T) {
	svc, s, allocator := setupService(t, &fakeRuntime{})
	repo := createClonedRepo(t, s, "My Shop")

	deployment, err := svc.Create(context.Background(), repo.ID, artifact.DefaultComposeOptions())
	require.NoError(t, err)

	assert.Equal(t, "my-shop", deployment.Name)
	assert.Contains(t, deployment.ComposeFile, "my-shop")
	assert.NotContains(t, deployment.ComposeFile, "My Shop")

	owner, ok := allocator.OwnerOf(deployment.AssignedPort)
	require.True(t, ok)
	assert.Equal(t, "my-shop", owner)
}

func TestService_Create_DistinctPorts(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})
	_, first := createPending(t, svc, s, "shop")
	_, second := createPending(t, svc, s, "blog")

	assert.NotEqual(t, first.AssignedPort, second.AssignedPort)
}

// =============================================================================
// Start
// =============================================================================

func TestService_Start(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123", logs: "listening on 3000"}
	svc, s, _ := setupService(t, rt)
	repo, deployment := createPending(t, svc, s, "shop")

	started, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRunning, started.Status)
	assert.Equal(t, "abc123", started.ContainerID)
	assert.Equal(t, "listening on 3000", started.LogTail)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, []string{"build", "up", "ps", "logs"}, rt.ops())

	dockerfile, err := os.ReadFile(filepath.Join(repo.Path, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, deployment.Dockerfile, string(dockerfile))

	composeFile, err := os.ReadFile(filepath.Join(repo.Path, "docker-compose.yml"))
	require.NoError(t, err)
	assert.Equal(t, deployment.ComposeFile, string(composeFile))

	mirrored, err := s.GetRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, mirrored.DeployStatus)
	assert.Equal(t, "abc123", mirrored.ContainerID)
}

func TestService_Start_PersistsRunningBeforeBuild(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	var duringBuild *domain.Deployment
	rt.buildHook = func() {
		stored, err := s.GetDeployment(context.Background(), deployment.ID)
		require.NoError(t, err)
		duringBuild = stored
	}

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	require.NotNil(t, duringBuild)
	assert.Equal(t, domain.StatusRunning, duringBuild.Status)
	require.NotNil(t, duringBuild.StartedAt)
}

func TestService_Start_BuildFailure(t *testing.T) {
	rt := &fakeRuntime{buildErr: errors.New("no space left on device")}
	svc, s, allocator := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")

	stored, err := s.GetDeployment(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
	assert.Equal(t, "no space left on device", stored.ErrorMessage)
	// The failed run still recorded its start.
	require.NotNil(t, stored.StartedAt)

	// Artifacts and port survive the failure so the start can be retried.
	assert.NotEmpty(t, stored.Dockerfile)
	assert.NotEmpty(t, stored.ComposeFile)
	assert.True(t, allocator.IsAllocated(stored.AssignedPort))
}

func TestService_Start_RetryAfterError(t *testing.T) {
	rt := &fakeRuntime{upErr: errors.New("port already bound"), containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.Error(t, err)

	rt.upErr = nil
	started, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, started.Status)
	assert.Empty(t, started.ErrorMessage)
}

func TestService_Start_AlreadyRunningOK(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	// Running to running is a valid transition, restarts reuse it.
	_, err = svc.Start(context.Background(), deployment.ID)
	assert.NoError(t, err)
}

// =============================================================================
// Stop / Restart
// =============================================================================

func TestService_Stop(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	repo, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	stopped, err := svc.Stop(context.Background(), deployment.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusStopped, stopped.Status)
	assert.Empty(t, stopped.ContainerID)
	require.NotNil(t, stopped.StoppedAt)
	assert.Contains(t, rt.ops(), "down")

	mirrored, err := s.GetRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, mirrored.DeployStatus)
	assert.Empty(t, mirrored.ContainerID)
}

func TestService_Stop_PendingRejected(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Stop(context.Background(), deployment.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestService_Stop_TeardownFailure(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	rt.downErr = errors.New("daemon unreachable")
	_, err = svc.Stop(context.Background(), deployment.ID)
	require.Error(t, err)

	stored, err := s.GetDeployment(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
	assert.Equal(t, "daemon unreachable", stored.ErrorMessage)
}

func TestService_Restart(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	rt.containerID = "def456"
	restarted, err := svc.Restart(context.Background(), deployment.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRunning, restarted.Status)
	assert.Equal(t, "def456", restarted.ContainerID)
	assert.Contains(t, rt.ops(), "restart")
}

func TestService_Restart_NotRunning(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Restart(context.Background(), deployment.ID)
	assert.ErrorIs(t, err, ErrNotRunning)
}

// =============================================================================
// Delete
// =============================================================================

func TestService_Delete_RunningTearsDown(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, allocator := setupService(t, rt)
	repo, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), deployment.ID))

	assert.Contains(t, rt.ops(), "down")
	assert.False(t, allocator.IsAllocated(deployment.AssignedPort))

	_, err = s.GetDeployment(context.Background(), deployment.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	mirrored, err := s.GetRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Empty(t, mirrored.DeployStatus)
}

func TestService_Delete_StoppedSkipsTeardown(t *testing.T) {
	rt := &fakeRuntime{}
	svc, s, allocator := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	require.NoError(t, svc.Delete(context.Background(), deployment.ID))

	assert.NotContains(t, rt.ops(), "down")
	assert.False(t, allocator.IsAllocated(deployment.AssignedPort))
}

func TestService_Delete_TeardownFailureStillDeletes(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123"}
	svc, s, allocator := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	rt.downErr = errors.New("daemon unreachable")
	require.NoError(t, svc.Delete(context.Background(), deployment.ID))

	assert.False(t, allocator.IsAllocated(deployment.AssignedPort))
	_, err = s.GetDeployment(context.Background(), deployment.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// Logs / RestorePorts
// =============================================================================

func TestService_Logs(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123", logs: "listening on 3000"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	// Pending deployment has no container yet.
	logs, err := svc.Logs(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	rt.logs = "request served"
	logs, err = svc.Logs(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, "request served", logs)
}

func TestService_Logs_FallsBackToStoredTail(t *testing.T) {
	rt := &fakeRuntime{containerID: "abc123", logs: "listening on 3000"}
	svc, s, _ := setupService(t, rt)
	_, deployment := createPending(t, svc, s, "shop")

	_, err := svc.Start(context.Background(), deployment.ID)
	require.NoError(t, err)

	rt.logs = ""
	logs, err := svc.Logs(context.Background(), deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, "listening on 3000", logs)
}

func TestService_RestorePorts(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})
	_, first := createPending(t, svc, s, "shop")
	_, second := createPending(t, svc, s, "blog")

	fresh := ports.NewAllocator()
	restored := NewService(s, fresh, &fakeRuntime{}, DefaultConfig(), testLogger())
	require.NoError(t, restored.RestorePorts(context.Background()))

	assert.True(t, fresh.IsAllocated(first.AssignedPort))
	assert.True(t, fresh.IsAllocated(second.AssignedPort))

	// The next allocation skips the restored reservations.
	port, err := fresh.Allocate("wiki")
	require.NoError(t, err)
	assert.False(t, port == first.AssignedPort || port == second.AssignedPort)
}

func TestService_ListByRepository(t *testing.T) {
	svc, s, _ := setupService(t, &fakeRuntime{})
	repo, deployment := createPending(t, svc, s, "shop")
	createPending(t, svc, s, "blog")

	list, err := svc.ListByRepository(context.Background(), repo.ID, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, deployment.ID, list[0].ID)
}
