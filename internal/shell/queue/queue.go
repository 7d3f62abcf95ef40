// Package queue runs repository clones in the background with a bound
// on concurrent git operations.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/shell/store"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrJobNotFound is returned when a job id is unknown.
	ErrJobNotFound = errors.New("clone job not found")

	// ErrNotCancellable is returned when cancelling a job that already
	// left the pending state.
	ErrNotCancellable = errors.New("only pending jobs can be cancelled")

	// ErrQueueStopped is returned when enqueueing on a stopped queue.
	ErrQueueStopped = errors.New("clone queue is not running")

	// ErrQueueFull is returned when the backlog is at capacity.
	ErrQueueFull = errors.New("clone queue is full")
)

// =============================================================================
// Configuration
// =============================================================================

// Config configures the clone queue.
type Config struct {
	// MaxConcurrent bounds simultaneously running clones.
	MaxConcurrent int
	// PollInterval is how long the dispatcher waits for work before
	// rechecking for shutdown.
	PollInterval time.Duration
	// BackoffDelay is how long the dispatcher sleeps when every worker
	// slot is taken.
	BackoffDelay time.Duration
	// CloneTimeout bounds a single clone operation.
	CloneTimeout time.Duration
	// Backlog is the maximum number of queued jobs.
	Backlog int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
		PollInterval:  time.Second,
		BackoffDelay:  500 * time.Millisecond,
		CloneTimeout:  10 * time.Minute,
		Backlog:       256,
	}
}

// =============================================================================
// Queue
// =============================================================================

// Cloner materializes a repository at a local path.
type Cloner interface {
	Clone(ctx context.Context, url, destDir string) error
}

// Callback is invoked with a snapshot of each job that reaches a
// terminal state. It runs outside the queue lock.
type Callback func(job domain.CloneJob)

// Stats is a point-in-time summary of the queue.
type Stats struct {
	Total      int  `json:"total"`
	Pending    int  `json:"pending"`
	InProgress int  `json:"in_progress"`
	Completed  int  `json:"completed"`
	Failed     int  `json:"failed"`
	Cancelled  int  `json:"cancelled"`
	IsRunning  bool `json:"is_running"`
	ActiveJobs int  `json:"active_jobs"`
}

// Queue dispatches clone jobs to a bounded set of workers. Completed
// clones write the materialized path back onto the repository record.
type Queue struct {
	cloner   Cloner
	store    store.Store
	config   Config
	logger   *slog.Logger
	callback Callback

	mu      sync.Mutex
	jobs    map[int64]*domain.CloneJob
	nextID  int64
	active  int
	running bool

	pending chan int64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a clone queue. The callback may be nil.
func New(cloner Cloner, s store.Store, config Config, callback Callback, logger *slog.Logger) *Queue {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 3
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BackoffDelay <= 0 {
		config.BackoffDelay = 500 * time.Millisecond
	}
	if config.CloneTimeout <= 0 {
		config.CloneTimeout = 10 * time.Minute
	}
	if config.Backlog <= 0 {
		config.Backlog = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		cloner:   cloner,
		store:    s,
		config:   config,
		logger:   logger.With("component", "clone_queue"),
		callback: callback,
		jobs:     make(map[int64]*domain.CloneJob),
		pending:  make(chan int64, config.Backlog),
	}
}

// Start begins the dispatcher goroutine.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.wg.Add(1)
	go q.run()
	q.logger.Info("clone queue started", "max_concurrent", q.config.MaxConcurrent)
}

// Stop drains in-flight clones and stops the dispatcher. Queued jobs
// that never started stay pending.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	q.logger.Info("clone queue stopped")
}

// Enqueue registers a clone of repo into targetPath and queues it.
func (q *Queue) Enqueue(repo *domain.Repository, targetPath string) (domain.CloneJob, error) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return domain.CloneJob{}, ErrQueueStopped
	}

	q.nextID++
	job, err := domain.NewCloneJob(q.nextID, repo.ID, repo.Name, repo.URL, targetPath)
	if err != nil {
		q.nextID--
		q.mu.Unlock()
		return domain.CloneJob{}, err
	}
	q.jobs[job.ID] = job
	snapshot := *job
	q.mu.Unlock()

	select {
	case q.pending <- job.ID:
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return domain.CloneJob{}, ErrQueueFull
	}

	q.logger.Info("clone job queued", "job_id", job.ID, "repository", repo.Name)
	return snapshot, nil
}

// BatchItem pairs a repository with its clone destination.
type BatchItem struct {
	Repository *domain.Repository
	TargetPath string
}

// EnqueueBatch queues a clone for every item in order. It stops at the
// first failure and returns the jobs queued so far alongside the error.
func (q *Queue) EnqueueBatch(items []BatchItem) ([]domain.CloneJob, error) {
	jobs := make([]domain.CloneJob, 0, len(items))
	for _, item := range items {
		job, err := q.Enqueue(item.Repository, item.TargetPath)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Get returns a snapshot of a job.
func (q *Queue) Get(id int64) (domain.CloneJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return domain.CloneJob{}, ErrJobNotFound
	}
	return *job, nil
}

// List returns snapshots of all jobs ordered by id.
func (q *Queue) List() []domain.CloneJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]domain.CloneJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// Cancel cancels a job that has not started yet.
func (q *Queue) Cancel(id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != domain.CloneStatusPending {
		return ErrNotCancellable
	}
	return job.Transition(domain.CloneStatusCancelled)
}

// Clear removes jobs in terminal states and reports how many were
// removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if job.Status.IsTerminal() {
			delete(q.jobs, id)
			removed++
		}
	}
	return removed
}

// Stats returns a point-in-time summary.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{
		Total:      len(q.jobs),
		IsRunning:  q.running,
		ActiveJobs: q.active,
	}
	for _, job := range q.jobs {
		switch job.Status {
		case domain.CloneStatusPending:
			stats.Pending++
		case domain.CloneStatusInProgress:
			stats.InProgress++
		case domain.CloneStatusCompleted:
			stats.Completed++
		case domain.CloneStatusFailed:
			stats.Failed++
		case domain.CloneStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// ActiveCount returns the number of clones running right now.
func (q *Queue) ActiveCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// =============================================================================
// Dispatcher
// =============================================================================

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		if q.atCapacity() {
			select {
			case <-q.ctx.Done():
				return
			case <-time.After(q.config.BackoffDelay):
			}
			continue
		}

		select {
		case <-q.ctx.Done():
			return
		case id := <-q.pending:
			q.dispatch(id)
		case <-time.After(q.config.PollInterval):
		}
	}
}

func (q *Queue) atCapacity() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active >= q.config.MaxConcurrent
}

func (q *Queue) dispatch(id int64) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != domain.CloneStatusPending {
		// Cancelled while queued
		q.mu.Unlock()
		return
	}
	if err := job.Transition(domain.CloneStatusInProgress); err != nil {
		q.mu.Unlock()
		return
	}
	q.active++
	q.mu.Unlock()

	q.wg.Add(1)
	go q.runJob(id)
}

func (q *Queue) runJob(id int64) {
	defer q.wg.Done()
	defer func() {
		q.mu.Lock()
		q.active--
		q.mu.Unlock()
	}()

	q.mu.Lock()
	job := q.jobs[id]
	url := job.RepositoryURL
	target := job.TargetPath
	repositoryID := job.RepositoryID
	q.mu.Unlock()

	// The clone context is independent of the dispatcher's so Stop drains
	// in-flight clones instead of aborting them; the timeout still bounds
	// each clone.
	ctx, cancel := context.WithTimeout(context.Background(), q.config.CloneTimeout)
	defer cancel()

	q.logger.Info("clone started", "job_id", id, "url", url)
	cloneErr := q.cloner.Clone(ctx, url, target)

	q.mu.Lock()
	if cloneErr != nil {
		job.TransitionToFailed(cloneErr.Error())
	} else {
		job.Transition(domain.CloneStatusCompleted)
	}
	snapshot := *job
	q.mu.Unlock()

	if cloneErr != nil {
		q.logger.Warn("clone failed", "job_id", id, "error", cloneErr)
	} else {
		q.logger.Info("clone completed", "job_id", id, "path", target)
		q.recordClone(repositoryID, target)
	}

	if q.callback != nil {
		q.callback(snapshot)
	}
}

// recordClone writes the materialized path back onto the repository.
func (q *Queue) recordClone(repositoryID, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := q.store.GetRepository(ctx, repositoryID)
	if err != nil {
		q.logger.Error("repository lookup failed after clone", "repository_id", repositoryID, "error", err)
		return
	}
	repo.MarkCloned(path)
	if err := q.store.UpdateRepository(ctx, repo); err != nil {
		q.logger.Error("repository update failed after clone", "repository_id", repositoryID, "error", err)
	}
}
