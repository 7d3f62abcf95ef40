package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// CreateRepositoryRequest is the request body for registering a repository.
type CreateRepositoryRequest struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// BatchCloneRequest is the request body for enqueueing clones for
// several repositories at once.
type BatchCloneRequest struct {
	RepositoryIDs []string `json:"repository_ids"`
}

// CreateDeploymentRequest is the request body for creating a deployment.
type CreateDeploymentRequest struct {
	RepositoryID    string `json:"repository_id"`
	IncludeDatabase *bool  `json:"include_database,omitempty"`
	DatabaseType    string `json:"database_type,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// RepositoryResponse is the response for repository operations.
type RepositoryResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Path         string     `json:"path,omitempty"`
	Cloned       bool       `json:"cloned"`
	DeployStatus string     `json:"deploy_status,omitempty"`
	ContainerID  string     `json:"container_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ListRepositoriesResponse is the response for listing repositories.
type ListRepositoriesResponse struct {
	Repositories []RepositoryResponse `json:"repositories"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// DeploymentResponse is the response for deployment operations.
type DeploymentResponse struct {
	ID           string     `json:"id"`
	RepositoryID string     `json:"repository_id"`
	Name         string     `json:"name"`
	Stack        string     `json:"stack"`
	Confidence   int        `json:"confidence_score"`
	AssignedPort int        `json:"assigned_port"`
	Dockerfile   string     `json:"dockerfile_content,omitempty"`
	ComposeFile  string     `json:"compose_content,omitempty"`
	Status       string     `json:"status"`
	ContainerID  string     `json:"container_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
}

// ListDeploymentsResponse is the response for listing deployments.
type ListDeploymentsResponse struct {
	Deployments []DeploymentResponse `json:"deployments"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// CloneJobResponse is the response for clone queue operations.
type CloneJobResponse struct {
	ID             int64      `json:"id"`
	RepositoryID   string     `json:"repository_id"`
	RepositoryName string     `json:"repository_name"`
	RepositoryURL  string     `json:"repository_url"`
	TargetPath     string     `json:"target_path"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ListCloneJobsResponse is the response for listing clone jobs.
type ListCloneJobsResponse struct {
	Jobs  []CloneJobResponse `json:"jobs"`
	Total int                `json:"total"`
}

// ClearJobsResponse reports how many finished jobs were removed.
type ClearJobsResponse struct {
	Removed int `json:"removed"`
}

// DetectionResponse is the response for on-demand stack detection.
type DetectionResponse struct {
	Stack        string   `json:"stack"`
	Confidence   int      `json:"confidence_score"`
	Framework    string   `json:"framework,omitempty"`
	MatchedFiles []string `json:"detected_files"`
	RequiresDB   bool     `json:"requires_db"`
	InternalPort int      `json:"internal_port"`
}

// LogsResponse is the response for deployment log requests.
type LogsResponse struct {
	DeploymentID string `json:"deployment_id"`
	Logs         string `json:"logs"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
