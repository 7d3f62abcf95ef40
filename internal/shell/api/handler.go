// Package api provides HTTP handlers for the repodock API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/repodock/internal/core/artifact"
	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/core/ports"
	"github.com/artpar/repodock/internal/core/stack"
	"github.com/artpar/repodock/internal/shell/deploy"
	"github.com/artpar/repodock/internal/shell/git"
	"github.com/artpar/repodock/internal/shell/metrics"
	"github.com/artpar/repodock/internal/shell/queue"
	"github.com/artpar/repodock/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	queue    *queue.Queue
	deploys  *deploy.Service
	git      *git.Client
	detector *stack.Detector
	metrics  *metrics.Metrics
	logger   *slog.Logger
	reposDir string
}

// NewHandler creates a new API handler. reposDir is the base directory
// under which repositories are cloned.
func NewHandler(s store.Store, q *queue.Queue, d *deploy.Service, g *git.Client, m *metrics.Metrics, l *slog.Logger, reposDir string) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if reposDir == "" {
		reposDir = "/var/lib/repodock/repos"
	}
	return &Handler{
		store:    s,
		queue:    q,
		deploys:  d,
		git:      g,
		detector: stack.NewDetector(),
		metrics:  m,
		logger:   l,
		reposDir: reposDir,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestIDHeader)
	r.Use(h.requestMetrics)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.jsonContentType)

		r.Get("/stacks", h.handleListStacks)

		// Repository routes
		r.Route("/repositories", func(r chi.Router) {
			r.Post("/", h.handleCreateRepository)
			r.Get("/", h.handleListRepositories)
			r.Get("/{id}", h.handleGetRepository)
			r.Delete("/{id}", h.handleDeleteRepository)
			r.Post("/{id}/clone", h.handleCloneRepository)
			r.Get("/{id}/detect", h.handleDetectStack)
			r.Get("/{id}/deployments", h.handleListRepositoryDeployments)
		})

		// Clone queue routes
		r.Route("/clones", func(r chi.Router) {
			r.Post("/batch", h.handleBatchClone)
			r.Get("/", h.handleListCloneJobs)
			r.Get("/stats", h.handleCloneStats)
			r.Get("/{id}", h.handleGetCloneJob)
			r.Post("/{id}/cancel", h.handleCancelCloneJob)
			r.Delete("/finished", h.handleClearCloneJobs)
		})

		// Deployment routes
		r.Route("/deployments", func(r chi.Router) {
			r.Post("/", h.handleCreateDeployment)
			r.Get("/", h.handleListDeployments)
			r.Get("/{id}", h.handleGetDeployment)
			r.Delete("/{id}", h.handleDeleteDeployment)
			r.Post("/{id}/start", h.handleStartDeployment)
			r.Post("/{id}/stop", h.handleStopDeployment)
			r.Post("/{id}/restart", h.handleRestartDeployment)
			r.Get("/{id}/logs", h.handleDeploymentLogs)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// requestMetrics records request counts and latencies per route pattern.
func (h *Handler) requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		h.metrics.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.store.ListRepositories(r.Context(), store.ListOptions{Limit: 1}); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	if !h.queue.Stats().IsRunning {
		checks["clone_queue"] = "stopped"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["clone_queue"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Stack Handlers
// =============================================================================

func (h *Handler) handleListStacks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, stack.Templates())
}

// =============================================================================
// Repository Handlers
// =============================================================================

func (h *Handler) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	var req CreateRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if err := h.git.ValidateURL(req.URL); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid repository URL", "validation_error")
		return
	}

	name := req.Name
	if name == "" {
		derived, err := h.git.RepositoryName(req.URL)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "could not derive repository name", "validation_error")
			return
		}
		name = derived
	}

	repo, err := domain.NewRepository(name, req.URL)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateRepository(r.Context(), repo); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "repository name already registered", "repository_exists")
			return
		}
		h.logger.Error("failed to create repository", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create repository", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, repositoryToResponse(repo))
}

func (h *Handler) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	repos, err := h.store.ListRepositories(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list repositories", "internal_error")
		return
	}

	resp := ListRepositoriesResponse{
		Repositories: make([]RepositoryResponse, 0, len(repos)),
		Total:        len(repos),
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}
	for i := range repos {
		resp.Repositories = append(resp.Repositories, repositoryToResponse(&repos[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	repo, err := h.store.GetRepository(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "repository not found", "repository_not_found")
			return
		}
		h.logger.Error("failed to get repository", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get repository", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, repositoryToResponse(repo))
}

func (h *Handler) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteRepository(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "repository not found", "repository_not_found")
			return
		}
		if errors.Is(err, store.ErrForeignKey) {
			h.writeError(w, http.StatusConflict, "repository has deployments", "repository_in_use")
			return
		}
		h.logger.Error("failed to delete repository", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete repository", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCloneRepository(w http.ResponseWriter, r *http.Request) {
	repo, err := h.store.GetRepository(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "repository not found", "repository_not_found")
			return
		}
		h.logger.Error("failed to get repository", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get repository", "internal_error")
		return
	}

	targetPath := filepath.Join(h.reposDir, repo.Name)
	job, err := h.queue.Enqueue(repo, targetPath)
	if err != nil {
		if errors.Is(err, queue.ErrQueueStopped) {
			h.writeError(w, http.StatusServiceUnavailable, "clone queue is not running", "queue_stopped")
			return
		}
		if errors.Is(err, queue.ErrQueueFull) {
			h.writeError(w, http.StatusServiceUnavailable, "clone queue is full", "queue_full")
			return
		}
		h.logger.Error("failed to enqueue clone", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to enqueue clone", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusAccepted, cloneJobToResponse(job))
}

func (h *Handler) handleDetectStack(w http.ResponseWriter, r *http.Request) {
	repo, err := h.store.GetRepository(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "repository not found", "repository_not_found")
			return
		}
		h.logger.Error("failed to get repository", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get repository", "internal_error")
		return
	}

	if !repo.Cloned || repo.Path == "" {
		h.writeError(w, http.StatusConflict, "repository is not cloned", "repository_not_cloned")
		return
	}

	det, err := h.detector.Detect(repo.Path)
	if err != nil {
		h.logger.Error("stack detection failed", "repository_id", repo.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "stack detection failed", "detection_error")
		return
	}

	if h.metrics != nil {
		h.metrics.StackDetected(string(det.Stack))
	}

	h.writeJSON(w, http.StatusOK, DetectionResponse{
		Stack:        string(det.Stack),
		Confidence:   det.Confidence,
		Framework:    det.Framework,
		MatchedFiles: det.MatchedFiles,
		RequiresDB:   det.RequiresDatabase,
		InternalPort: det.InternalPort,
	})
}

func (h *Handler) handleListRepositoryDeployments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts := listOptionsFromQuery(r)

	deployments, err := h.deploys.ListByRepository(r.Context(), id, opts)
	if err != nil {
		h.logger.Error("failed to list deployments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list deployments", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, deploymentListResponse(deployments, opts))
}

// =============================================================================
// Clone Queue Handlers
// =============================================================================

func (h *Handler) handleBatchClone(w http.ResponseWriter, r *http.Request) {
	var req BatchCloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "validation_error")
		return
	}
	if len(req.RepositoryIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "repository_ids is required", "validation_error")
		return
	}

	items := make([]queue.BatchItem, 0, len(req.RepositoryIDs))
	for _, id := range req.RepositoryIDs {
		repo, err := h.store.GetRepository(r.Context(), id)
		if err != nil {
			if isNotFound(err) {
				h.writeError(w, http.StatusNotFound, "repository not found: "+id, "repository_not_found")
				return
			}
			h.logger.Error("failed to get repository", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to get repository", "internal_error")
			return
		}
		items = append(items, queue.BatchItem{
			Repository: repo,
			TargetPath: filepath.Join(h.reposDir, repo.Name),
		})
	}

	jobs, err := h.queue.EnqueueBatch(items)
	if err != nil {
		if errors.Is(err, queue.ErrQueueStopped) {
			h.writeError(w, http.StatusServiceUnavailable, "clone queue is not running", "queue_stopped")
			return
		}
		if errors.Is(err, queue.ErrQueueFull) {
			h.writeError(w, http.StatusServiceUnavailable, "clone queue is full", "queue_full")
			return
		}
		h.logger.Error("failed to enqueue clones", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to enqueue clones", "internal_error")
		return
	}

	resp := ListCloneJobsResponse{
		Jobs:  make([]CloneJobResponse, 0, len(jobs)),
		Total: len(jobs),
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, cloneJobToResponse(jobs[i]))
	}

	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleListCloneJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.queue.List()

	resp := ListCloneJobsResponse{
		Jobs:  make([]CloneJobResponse, 0, len(jobs)),
		Total: len(jobs),
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, cloneJobToResponse(jobs[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCloneStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.queue.Stats())
}

func (h *Handler) handleGetCloneJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id", "validation_error")
		return
	}

	job, err := h.queue.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "clone job not found", "job_not_found")
		return
	}

	h.writeJSON(w, http.StatusOK, cloneJobToResponse(job))
}

func (h *Handler) handleCancelCloneJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id", "validation_error")
		return
	}

	if err := h.queue.Cancel(id); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, "clone job not found", "job_not_found")
			return
		}
		if errors.Is(err, queue.ErrNotCancellable) {
			h.writeError(w, http.StatusConflict, "clone job is not pending", "job_not_cancellable")
			return
		}
		h.logger.Error("failed to cancel clone job", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to cancel clone job", "internal_error")
		return
	}

	job, err := h.queue.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "clone job not found", "job_not_found")
		return
	}

	h.writeJSON(w, http.StatusOK, cloneJobToResponse(job))
}

func (h *Handler) handleClearCloneJobs(w http.ResponseWriter, r *http.Request) {
	removed := h.queue.Clear()
	h.writeJSON(w, http.StatusOK, ClearJobsResponse{Removed: removed})
}

// =============================================================================
// Deployment Handlers
// =============================================================================

func (h *Handler) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req CreateDeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.RepositoryID == "" {
		h.writeError(w, http.StatusBadRequest, "repository_id is required", "validation_error")
		return
	}

	opts := artifact.DefaultComposeOptions()
	if req.IncludeDatabase != nil {
		opts.IncludeDatabase = *req.IncludeDatabase
	}
	if req.DatabaseType != "" {
		opts.DatabaseType = req.DatabaseType
	}

	deployment, err := h.deploys.Create(r.Context(), req.RepositoryID, opts)
	if h.metrics != nil {
		h.metrics.DeploymentAction("create", err)
	}
	if err != nil {
		switch {
		case isNotFound(err):
			h.writeError(w, http.StatusNotFound, "repository not found", "repository_not_found")
		case errors.Is(err, deploy.ErrRepositoryNotCloned):
			h.writeError(w, http.StatusConflict, "repository is not cloned", "repository_not_cloned")
		case errors.Is(err, store.ErrDuplicateName):
			h.writeError(w, http.StatusConflict, "deployment already exists for repository", "deployment_exists")
		case errors.Is(err, ports.ErrPortsExhausted):
			h.writeError(w, http.StatusServiceUnavailable, "no ports available", "ports_exhausted")
		default:
			h.logger.Error("failed to create deployment", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to create deployment", "internal_error")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.StackDetected(string(deployment.Stack))
	}

	h.writeJSON(w, http.StatusCreated, deploymentToResponse(deployment))
}

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	deployments, err := h.deploys.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list deployments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list deployments", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, deploymentListResponse(deployments, opts))
}

func (h *Handler) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	deployment, err := h.deploys.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "deployment not found", "deployment_not_found")
			return
		}
		h.logger.Error("failed to get deployment", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get deployment", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, deploymentToResponse(deployment))
}

func (h *Handler) handleDeleteDeployment(w http.ResponseWriter, r *http.Request) {
	err := h.deploys.Delete(r.Context(), chi.URLParam(r, "id"))
	if h.metrics != nil {
		h.metrics.DeploymentAction("delete", err)
	}
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "deployment not found", "deployment_not_found")
			return
		}
		h.logger.Error("failed to delete deployment", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete deployment", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStartDeployment(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "start", h.deploys.Start)
}

func (h *Handler) handleStopDeployment(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "stop", h.deploys.Stop)
}

func (h *Handler) handleRestartDeployment(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "restart", h.deploys.Restart)
}

func (h *Handler) handleDeploymentLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	logs, err := h.deploys.Logs(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "deployment not found", "deployment_not_found")
			return
		}
		h.logger.Error("failed to fetch logs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch logs", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, LogsResponse{DeploymentID: id, Logs: logs})
}

// lifecycleAction runs one deployment lifecycle operation and maps its
// errors onto HTTP statuses.
func (h *Handler) lifecycleAction(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, id string) (*domain.Deployment, error)) {
	id := chi.URLParam(r, "id")

	deployment, err := fn(r.Context(), id)
	if h.metrics != nil {
		h.metrics.DeploymentAction(action, err)
	}
	if err != nil {
		switch {
		case isNotFound(err):
			h.writeError(w, http.StatusNotFound, "deployment not found", "deployment_not_found")
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, deploy.ErrNotRunning):
			h.writeError(w, http.StatusConflict, err.Error(), "invalid_state")
		case errors.Is(err, deploy.ErrRepositoryNotCloned):
			h.writeError(w, http.StatusConflict, "repository is not cloned", "repository_not_cloned")
		default:
			h.logger.Error("deployment action failed", "action", action, "deployment_id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, err.Error(), "runtime_error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, deploymentToResponse(deployment))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func listOptionsFromQuery(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}

func repositoryToResponse(repo *domain.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:           repo.ID,
		Name:         repo.Name,
		URL:          repo.URL,
		Path:         repo.Path,
		Cloned:       repo.Cloned,
		DeployStatus: string(repo.DeployStatus),
		ContainerID:  repo.ContainerID,
		LastSyncedAt: repo.LastSyncedAt,
		CreatedAt:    repo.CreatedAt,
		UpdatedAt:    repo.UpdatedAt,
	}
}

func deploymentToResponse(d *domain.Deployment) DeploymentResponse {
	return DeploymentResponse{
		ID:           d.ID,
		RepositoryID: d.RepositoryID,
		Name:         d.Name,
		Stack:        string(d.Stack),
		Confidence:   d.Confidence,
		AssignedPort: d.AssignedPort,
		Dockerfile:   d.Dockerfile,
		ComposeFile:  d.ComposeFile,
		Status:       string(d.Status),
		ContainerID:  d.ContainerID,
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		StartedAt:    d.StartedAt,
		StoppedAt:    d.StoppedAt,
	}
}

func deploymentListResponse(deployments []domain.Deployment, opts store.ListOptions) ListDeploymentsResponse {
	resp := ListDeploymentsResponse{
		Deployments: make([]DeploymentResponse, 0, len(deployments)),
		Total:       len(deployments),
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}
	for i := range deployments {
		resp.Deployments = append(resp.Deployments, deploymentToResponse(&deployments[i]))
	}
	return resp
}

func cloneJobToResponse(job domain.CloneJob) CloneJobResponse {
	return CloneJobResponse{
		ID:             job.ID,
		RepositoryID:   job.RepositoryID,
		RepositoryName: job.RepositoryName,
		RepositoryURL:  job.RepositoryURL,
		TargetPath:     job.TargetPath,
		Status:         string(job.Status),
		Progress:       job.Progress,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
	}
}
