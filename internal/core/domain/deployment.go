package domain

import (
	"errors"
	"time"

	"github.com/artpar/repodock/internal/core/stack"
	"github.com/google/uuid"
)

// =============================================================================
// Deployment Errors
// =============================================================================

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyName         = errors.New("deployment name must not be empty")
)

// =============================================================================
// Deployment Status
// =============================================================================

type DeploymentStatus string

const (
	StatusPending DeploymentStatus = "pending"
	StatusRunning DeploymentStatus = "running"
	StatusStopped DeploymentStatus = "stopped"
	StatusError   DeploymentStatus = "error"
)

// =============================================================================
// Deployment
// =============================================================================

// Deployment is the record and artifact set governing containerized
// execution of one repository. The generated Dockerfile and compose file
// are stored verbatim so a failed start can be retried without re-running
// detection or generation.
type Deployment struct {
	ID           string           `json:"id"`
	RepositoryID string           `json:"repository_id"`
	Name         string           `json:"name"`
	Stack        stack.Stack      `json:"stack"`
	Confidence   int              `json:"confidence_score"`
	AssignedPort int              `json:"assigned_port"`
	Dockerfile   string           `json:"dockerfile_content"`
	ComposeFile  string           `json:"compose_content"`
	Status       DeploymentStatus `json:"status"`
	ContainerID  string           `json:"container_id,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	LogTail      string           `json:"log_tail,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	StoppedAt    *time.Time       `json:"stopped_at,omitempty"`
}

// NewDeployment creates a pending deployment from a detection result and an
// allocated host port.
func NewDeployment(repositoryID, name string, det stack.Detection, port int) (*Deployment, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UTC()
	return &Deployment{
		ID:           uuid.New().String(),
		RepositoryID: repositoryID,
		Name:         Slugify(name),
		Stack:        det.Stack,
		Confidence:   det.Confidence,
		AssignedPort: port,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Transition attempts to transition the deployment to a new status.
func (d *Deployment) Transition(to DeploymentStatus) error {
	if err := ValidateTransition(d.Status, to); err != nil {
		return err
	}

	d.Status = to
	d.UpdatedAt = time.Now().UTC()

	switch to {
	case StatusRunning:
		now := time.Now().UTC()
		d.StartedAt = &now
		d.ErrorMessage = ""
	case StatusStopped:
		now := time.Now().UTC()
		d.StoppedAt = &now
	}

	return nil
}

// TransitionToError moves the deployment to error with a message. Error is
// reachable from every state and is itself recoverable via a fresh start.
func (d *Deployment) TransitionToError(errorMessage string) {
	d.Status = StatusError
	d.ErrorMessage = errorMessage
	d.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// State Machine
// =============================================================================

// validTransitions defines the allowed state transitions. A running
// deployment may transition to running again after a successful restart,
// and error is not terminal: a fresh start retries without re-detection.
var validTransitions = map[DeploymentStatus][]DeploymentStatus{
	StatusPending: {StatusRunning, StatusError},
	StatusRunning: {StatusRunning, StatusStopped, StatusError},
	StatusStopped: {StatusRunning, StatusError},
	StatusError:   {StatusRunning, StatusError},
}

// ValidateTransition checks if a status transition is valid.
func ValidateTransition(from, to DeploymentStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return ErrInvalidTransition
}
