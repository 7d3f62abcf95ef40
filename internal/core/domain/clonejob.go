package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Clone Job Errors
// =============================================================================

var (
	ErrInvalidCloneTransition = errors.New("invalid clone job status transition")
	ErrEmptyRepositoryURL     = errors.New("repository url must not be empty")
	ErrEmptyTargetPath        = errors.New("target path must not be empty")
)

// =============================================================================
// Clone Job Status
// =============================================================================

type CloneStatus string

const (
	CloneStatusPending    CloneStatus = "pending"
	CloneStatusInProgress CloneStatus = "in_progress"
	CloneStatusCompleted  CloneStatus = "completed"
	CloneStatusFailed     CloneStatus = "failed"
	CloneStatusCancelled  CloneStatus = "cancelled"
)

// validCloneTransitions defines the allowed clone job state transitions.
// Cancellation is only possible before dispatch; a dispatched job always
// runs to a terminal status.
var validCloneTransitions = map[CloneStatus][]CloneStatus{
	CloneStatusPending:    {CloneStatusInProgress, CloneStatusCancelled},
	CloneStatusInProgress: {CloneStatusCompleted, CloneStatusFailed},
	CloneStatusCompleted:  {},
	CloneStatusFailed:     {},
	CloneStatusCancelled:  {},
}

// ValidateCloneTransition checks if a clone status transition is valid.
func ValidateCloneTransition(from, to CloneStatus) error {
	allowed, exists := validCloneTransitions[from]
	if !exists {
		return ErrInvalidCloneTransition
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidCloneTransition
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s CloneStatus) IsTerminal() bool {
	return len(validCloneTransitions[s]) == 0
}

// =============================================================================
// Clone Job
// =============================================================================

// CloneJob represents a queued request to materialize a repository at a
// local path.
type CloneJob struct {
	ID             int64       `json:"id"`
	RepositoryID   string      `json:"repository_id"`
	RepositoryName string      `json:"repository_name"`
	RepositoryURL  string      `json:"repository_url"`
	TargetPath     string      `json:"target_path"`
	Status         CloneStatus `json:"status"`
	Progress       int         `json:"progress"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}

// NewCloneJob creates a pending clone job.
func NewCloneJob(id int64, repositoryID, name, url, targetPath string) (*CloneJob, error) {
	if url == "" {
		return nil, ErrEmptyRepositoryURL
	}
	if targetPath == "" {
		return nil, ErrEmptyTargetPath
	}
	return &CloneJob{
		ID:             id,
		RepositoryID:   repositoryID,
		RepositoryName: name,
		RepositoryURL:  url,
		TargetPath:     targetPath,
		Status:         CloneStatusPending,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Transition attempts to move the job to a new status, recording timestamps.
func (j *CloneJob) Transition(to CloneStatus) error {
	if err := ValidateCloneTransition(j.Status, to); err != nil {
		return err
	}

	j.Status = to

	now := time.Now().UTC()
	switch to {
	case CloneStatusInProgress:
		j.StartedAt = &now
	case CloneStatusCompleted:
		j.Progress = 100
		j.CompletedAt = &now
	case CloneStatusFailed, CloneStatusCancelled:
		j.CompletedAt = &now
	}

	return nil
}

// TransitionToFailed moves the job to failed with the clone error text
// captured verbatim.
func (j *CloneJob) TransitionToFailed(errorMessage string) error {
	if err := j.Transition(CloneStatusFailed); err != nil {
		return err
	}
	j.ErrorMessage = errorMessage
	return nil
}
