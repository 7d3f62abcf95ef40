// Package deploy orchestrates the full deployment lifecycle for cloned
// repositories: stack detection, artifact generation, port assignment,
// container startup and teardown.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/repodock/internal/core/artifact"
	"github.com/artpar/repodock/internal/core/compose"
	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/core/ports"
	"github.com/artpar/repodock/internal/core/stack"
	"github.com/artpar/repodock/internal/shell/store"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrRepositoryNotCloned is returned when deploying a repository that
	// has no working tree on disk yet.
	ErrRepositoryNotCloned = errors.New("repository is not cloned")

	// ErrNotRunning is returned when an operation requires a running
	// deployment.
	ErrNotRunning = errors.New("deployment is not running")
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds deployment service settings.
type Config struct {
	// LogTailLines is the number of container log lines captured after a
	// start and on demand.
	LogTailLines int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogTailLines: 50,
	}
}

// =============================================================================
// Runtime
// =============================================================================

// Runtime drives container builds and compose projects.
type Runtime interface {
	BuildImage(ctx context.Context, dir, name string) error
	ComposeUp(ctx context.Context, dir, project string) error
	ComposeDown(ctx context.Context, dir, project string) error
	ComposeRestart(ctx context.Context, dir, project string) error
	ContainerID(ctx context.Context, dir, project string) (string, error)
	ContainerLogs(ctx context.Context, containerID string, tail int) string
}

// =============================================================================
// Service
// =============================================================================

// Service creates and manages deployments.
type Service struct {
	store     store.Store
	detector  *stack.Detector
	generator *artifact.Generator
	allocator *ports.Allocator
	runtime   Runtime
	config    Config
	logger    *slog.Logger
}

// NewService creates a deployment service.
func NewService(s store.Store, allocator *ports.Allocator, runtime Runtime, config Config, logger *slog.Logger) *Service {
	if config.LogTailLines <= 0 {
		config.LogTailLines = DefaultConfig().LogTailLines
	}

	return &Service{
		store:     s,
		detector:  stack.NewDetector(),
		generator: artifact.NewGenerator(),
		allocator: allocator,
		runtime:   runtime,
		config:    config,
		logger:    logger.With("component", "deploy_service"),
	}
}

// RestorePorts re-seeds the port allocator from persisted deployments.
// Called once on startup so restarts do not hand out ports that are
// already assigned.
func (s *Service) RestorePorts(ctx context.Context) error {
	deployments, err := s.store.ListDeployments(ctx, store.ListOptions{Limit: 1000})
	if err != nil {
		return fmt.Errorf("restore ports: %w", err)
	}

	for i := range deployments {
		d := &deployments[i]
		if err := s.allocator.Reserve(d.AssignedPort, d.Name); err != nil {
			s.logger.Warn("could not restore port reservation",
				"deployment_id", d.ID,
				"port", d.AssignedPort,
				"error", err)
		}
	}

	s.logger.Info("restored port reservations", "count", len(deployments))
	return nil
}

// Create detects the repository's stack, assigns a host port, generates
// and validates deployment artifacts, and persists a pending deployment.
// Artifacts are stored on the record; nothing is written to the working
// tree until Start.
func (s *Service) Create(ctx context.Context, repositoryID string, opts artifact.ComposeOptions) (*domain.Deployment, error) {
	repo, err := s.store.GetRepository(ctx, repositoryID)
	if err != nil {
		return nil, err
	}
	if !repo.Cloned || repo.Path == "" {
		return nil, fmt.Errorf("create deployment for %s: %w", repo.Name, ErrRepositoryNotCloned)
	}

	det, err := s.detector.Detect(repo.Path)
	if err != nil {
		return nil, fmt.Errorf("detect stack for %s: %w", repo.Name, err)
	}

	// Ports are keyed by the slugged deployment name so the reservation
	// matches what RestorePorts re-seeds from persisted records. Allocate
	// hands back the existing reservation when the name already holds one;
	// only a fresh reservation is rolled back on failure.
	name := domain.Slugify(repo.Name)
	_, held := s.allocator.PortOf(name)
	port, err := s.allocator.Allocate(name)
	if err != nil {
		return nil, fmt.Errorf("allocate port for %s: %w", name, err)
	}

	deployment, err := s.createRecord(ctx, repo, det, port, opts)
	if err != nil {
		if !held {
			s.allocator.Release(port)
		}
		return nil, err
	}

	s.logger.Info("deployment created",
		"deployment_id", deployment.ID,
		"repository_id", repo.ID,
		"stack", deployment.Stack,
		"confidence", deployment.Confidence,
		"port", deployment.AssignedPort)

	return deployment, nil
}

func (s *Service) createRecord(ctx context.Context, repo *domain.Repository, det stack.Detection, port int, opts artifact.ComposeOptions) (*domain.Deployment, error) {
	deployment, err := domain.NewDeployment(repo.ID, repo.Name, det, port)
	if err != nil {
		return nil, err
	}

	// Artifacts are keyed by the slugged deployment name, the same
	// identifier the runtime calls use.
	composeYAML, err := s.generator.ComposeFile(det, deployment.Name, port, opts)
	if err != nil {
		return nil, fmt.Errorf("generate compose file for %s: %w", deployment.Name, err)
	}
	if err := compose.Validate(composeYAML); err != nil {
		return nil, fmt.Errorf("validate compose file for %s: %w", deployment.Name, err)
	}

	deployment.Dockerfile = s.generator.Dockerfile(det)
	deployment.ComposeFile = composeYAML

	if err := s.store.CreateDeployment(ctx, deployment); err != nil {
		return nil, err
	}

	s.mirrorToRepository(ctx, repo.ID, deployment.Status, "")
	return deployment, nil
}

// Start writes the stored artifacts into the repository working tree,
// builds the image and brings the compose project up. On failure the
// deployment moves to error with the failure message while keeping its
// artifacts and port, so a later Start can retry.
func (s *Service) Start(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	deployment, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(deployment.Status, domain.StatusRunning); err != nil {
		return nil, fmt.Errorf("start deployment %s from %s: %w", deployment.ID, deployment.Status, err)
	}

	repo, err := s.store.GetRepository(ctx, deployment.RepositoryID)
	if err != nil {
		return nil, err
	}
	if !repo.Cloned || repo.Path == "" {
		return nil, fmt.Errorf("start deployment %s: %w", deployment.ID, ErrRepositoryNotCloned)
	}

	// Running and started-at are persisted before the runtime is invoked;
	// a failed start then moves running -> error.
	if err := deployment.Transition(domain.StatusRunning); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDeployment(ctx, deployment); err != nil {
		return nil, err
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, deployment.ContainerID)

	if err := s.writeArtifacts(repo.Path, deployment); err != nil {
		return s.recordStartFailure(ctx, deployment, err)
	}

	if err := s.runtime.BuildImage(ctx, repo.Path, deployment.Name); err != nil {
		return s.recordStartFailure(ctx, deployment, err)
	}
	if err := s.runtime.ComposeUp(ctx, repo.Path, deployment.Name); err != nil {
		return s.recordStartFailure(ctx, deployment, err)
	}

	containerID, err := s.runtime.ContainerID(ctx, repo.Path, deployment.Name)
	if err != nil {
		s.logger.Warn("could not resolve container id",
			"deployment_id", deployment.ID, "error", err)
	}

	deployment.ContainerID = containerID
	if containerID != "" {
		deployment.LogTail = s.runtime.ContainerLogs(ctx, containerID, s.config.LogTailLines)
	}

	if err := s.store.UpdateDeployment(ctx, deployment); err != nil {
		return nil, err
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, containerID)

	s.logger.Info("deployment started",
		"deployment_id", deployment.ID,
		"container_id", containerID,
		"port", deployment.AssignedPort)

	return deployment, nil
}

// Stop brings the compose project down and moves the deployment to
// stopped.
func (s *Service) Stop(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	deployment, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(deployment.Status, domain.StatusStopped); err != nil {
		return nil, fmt.Errorf("stop deployment %s from %s: %w", deployment.ID, deployment.Status, err)
	}

	repo, err := s.store.GetRepository(ctx, deployment.RepositoryID)
	if err != nil {
		return nil, err
	}

	if err := s.runtime.ComposeDown(ctx, repo.Path, deployment.Name); err != nil {
		deployment.TransitionToError(err.Error())
		if uerr := s.store.UpdateDeployment(ctx, deployment); uerr != nil {
			s.logger.Error("could not persist error state",
				"deployment_id", deployment.ID, "error", uerr)
		}
		s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, deployment.ContainerID)
		return nil, fmt.Errorf("stop deployment %s: %w", deployment.ID, err)
	}

	if err := deployment.Transition(domain.StatusStopped); err != nil {
		return nil, err
	}
	deployment.ContainerID = ""

	if err := s.store.UpdateDeployment(ctx, deployment); err != nil {
		return nil, err
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, "")

	s.logger.Info("deployment stopped", "deployment_id", deployment.ID)
	return deployment, nil
}

// Restart restarts the compose project of a running deployment.
func (s *Service) Restart(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	deployment, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if deployment.Status != domain.StatusRunning {
		return nil, fmt.Errorf("restart deployment %s from %s: %w", deployment.ID, deployment.Status, ErrNotRunning)
	}

	repo, err := s.store.GetRepository(ctx, deployment.RepositoryID)
	if err != nil {
		return nil, err
	}

	if err := s.runtime.ComposeRestart(ctx, repo.Path, deployment.Name); err != nil {
		deployment.TransitionToError(err.Error())
		if uerr := s.store.UpdateDeployment(ctx, deployment); uerr != nil {
			s.logger.Error("could not persist error state",
				"deployment_id", deployment.ID, "error", uerr)
		}
		s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, deployment.ContainerID)
		return nil, fmt.Errorf("restart deployment %s: %w", deployment.ID, err)
	}

	containerID, err := s.runtime.ContainerID(ctx, repo.Path, deployment.Name)
	if err != nil {
		s.logger.Warn("could not resolve container id",
			"deployment_id", deployment.ID, "error", err)
	}

	if err := deployment.Transition(domain.StatusRunning); err != nil {
		return nil, err
	}
	if containerID != "" {
		deployment.ContainerID = containerID
	}

	if err := s.store.UpdateDeployment(ctx, deployment); err != nil {
		return nil, err
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, deployment.ContainerID)

	s.logger.Info("deployment restarted", "deployment_id", deployment.ID)
	return deployment, nil
}

// Delete removes a deployment. A running project is brought down on a
// best effort basis; the port is released and the record removed even
// when teardown fails.
func (s *Service) Delete(ctx context.Context, deploymentID string) error {
	deployment, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return err
	}

	if deployment.Status == domain.StatusRunning {
		repo, rerr := s.store.GetRepository(ctx, deployment.RepositoryID)
		if rerr == nil {
			if derr := s.runtime.ComposeDown(ctx, repo.Path, deployment.Name); derr != nil {
				s.logger.Warn("teardown failed during delete",
					"deployment_id", deployment.ID, "error", derr)
			}
		}
	}

	s.allocator.Release(deployment.AssignedPort)

	if err := s.store.DeleteDeployment(ctx, deployment.ID); err != nil {
		return err
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, "", "")

	s.logger.Info("deployment deleted",
		"deployment_id", deployment.ID,
		"port", deployment.AssignedPort)
	return nil
}

// Get returns a deployment by ID.
func (s *Service) Get(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	return s.store.GetDeployment(ctx, deploymentID)
}

// List returns deployments with pagination.
func (s *Service) List(ctx context.Context, opts store.ListOptions) ([]domain.Deployment, error) {
	return s.store.ListDeployments(ctx, opts)
}

// ListByRepository returns all deployments of one repository.
func (s *Service) ListByRepository(ctx context.Context, repositoryID string, opts store.ListOptions) ([]domain.Deployment, error) {
	return s.store.ListDeploymentsByRepository(ctx, repositoryID, opts)
}

// Logs returns recent container output. For a deployment without a live
// container the tail captured at start time is returned.
func (s *Service) Logs(ctx context.Context, deploymentID string) (string, error) {
	deployment, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return "", err
	}

	if deployment.ContainerID == "" {
		return deployment.LogTail, nil
	}

	logs := s.runtime.ContainerLogs(ctx, deployment.ContainerID, s.config.LogTailLines)
	if logs == "" {
		return deployment.LogTail, nil
	}
	return logs, nil
}

// =============================================================================
// Internal
// =============================================================================

func (s *Service) writeArtifacts(dir string, deployment *domain.Deployment) error {
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(deployment.Dockerfile), 0o644); err != nil {
		return fmt.Errorf("write Dockerfile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(deployment.ComposeFile), 0o644); err != nil {
		return fmt.Errorf("write docker-compose.yml: %w", err)
	}
	return nil
}

// recordStartFailure moves the deployment to error, keeping artifacts
// and port so the start can be retried.
func (s *Service) recordStartFailure(ctx context.Context, deployment *domain.Deployment, cause error) (*domain.Deployment, error) {
	deployment.TransitionToError(cause.Error())

	if err := s.store.UpdateDeployment(ctx, deployment); err != nil {
		s.logger.Error("could not persist error state",
			"deployment_id", deployment.ID, "error", err)
	}
	s.mirrorToRepository(ctx, deployment.RepositoryID, deployment.Status, deployment.ContainerID)

	s.logger.Warn("deployment start failed",
		"deployment_id", deployment.ID, "error", cause)

	return nil, fmt.Errorf("start deployment %s: %w", deployment.ID, cause)
}

// mirrorToRepository copies the deployment state onto the owning
// repository record so repository listings reflect it without a join.
func (s *Service) mirrorToRepository(ctx context.Context, repositoryID string, status domain.DeploymentStatus, containerID string) {
	repo, err := s.store.GetRepository(ctx, repositoryID)
	if err != nil {
		s.logger.Warn("could not load repository for state mirror",
			"repository_id", repositoryID, "error", err)
		return
	}

	repo.SetDeployState(status, containerID)
	if err := s.store.UpdateRepository(ctx, repo); err != nil {
		s.logger.Warn("could not mirror deployment state",
			"repository_id", repositoryID, "error", err)
	}
}
