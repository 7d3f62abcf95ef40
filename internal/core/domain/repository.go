package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Repository Errors
// =============================================================================

var (
	ErrEmptyRepositoryName = errors.New("repository name must not be empty")
)

// =============================================================================
// Repository
// =============================================================================

// Repository is an imported repository bookmark. The clone queue writes
// back the materialized path, and the deployment pipeline mirrors the
// latest deployment status onto the record.
type Repository struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	URL          string           `json:"url"`
	Path         string           `json:"path,omitempty"`
	Cloned       bool             `json:"cloned"`
	DeployStatus DeploymentStatus `json:"deploy_status,omitempty"`
	ContainerID  string           `json:"container_id,omitempty"`
	LastSyncedAt *time.Time       `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewRepository creates a repository bookmark that has not been cloned yet.
func NewRepository(name, url string) (*Repository, error) {
	if name == "" {
		return nil, ErrEmptyRepositoryName
	}
	if url == "" {
		return nil, ErrEmptyRepositoryURL
	}

	now := time.Now().UTC()
	return &Repository{
		ID:        uuid.New().String(),
		Name:      name,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkCloned records a successful materialization at path.
func (r *Repository) MarkCloned(path string) {
	now := time.Now().UTC()
	r.Cloned = true
	r.Path = path
	r.LastSyncedAt = &now
	r.UpdatedAt = now
}

// SetDeployState mirrors a deployment's status and container onto the
// repository record.
func (r *Repository) SetDeployState(status DeploymentStatus, containerID string) {
	r.DeployStatus = status
	r.ContainerID = containerID
	r.UpdatedAt = time.Now().UTC()
}
