package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/core/stack"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Repository Operations
// =============================================================================

// repositoryRow represents a repository row in the database.
type repositoryRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	URL          string  `db:"url"`
	Path         string  `db:"path"`
	Cloned       bool    `db:"cloned"`
	DeployStatus string  `db:"deploy_status"`
	ContainerID  string  `db:"container_id"`
	LastSyncedAt *string `db:"last_synced_at"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

func (s *SQLiteStore) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	return createRepository(ctx, s.db, repo)
}

func (s *SQLiteStore) GetRepository(ctx context.Context, id string) (*domain.Repository, error) {
	return getRepository(ctx, s.db, id)
}

func (s *SQLiteStore) GetRepositoryByName(ctx context.Context, name string) (*domain.Repository, error) {
	return getRepositoryByName(ctx, s.db, name)
}

func (s *SQLiteStore) UpdateRepository(ctx context.Context, repo *domain.Repository) error {
	return updateRepository(ctx, s.db, repo)
}

func (s *SQLiteStore) DeleteRepository(ctx context.Context, id string) error {
	return deleteRepository(ctx, s.db, id)
}

func (s *SQLiteStore) ListRepositories(ctx context.Context, opts ListOptions) ([]domain.Repository, error) {
	return listRepositories(ctx, s.db, opts)
}

// =============================================================================
// Deployment Operations
// =============================================================================

// deploymentRow represents a deployment row in the database.
type deploymentRow struct {
	ID           string  `db:"id"`
	RepositoryID string  `db:"repository_id"`
	Name         string  `db:"name"`
	Stack        string  `db:"stack"`
	Confidence   int     `db:"confidence_score"`
	AssignedPort int     `db:"assigned_port"`
	Dockerfile   string  `db:"dockerfile_content"`
	ComposeFile  string  `db:"compose_content"`
	Status       string  `db:"status"`
	ContainerID  string  `db:"container_id"`
	ErrorMessage string  `db:"error_message"`
	LogTail      string  `db:"log_tail"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
	StartedAt    *string `db:"started_at"`
	StoppedAt    *string `db:"stopped_at"`
}

func (s *SQLiteStore) CreateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	return createDeployment(ctx, s.db, deployment)
}

func (s *SQLiteStore) GetDeployment(ctx context.Context, id string) (*domain.Deployment, error) {
	return getDeployment(ctx, s.db, id)
}

func (s *SQLiteStore) GetDeploymentByName(ctx context.Context, name string) (*domain.Deployment, error) {
	return getDeploymentByName(ctx, s.db, name)
}

func (s *SQLiteStore) UpdateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	return updateDeployment(ctx, s.db, deployment)
}

func (s *SQLiteStore) DeleteDeployment(ctx context.Context, id string) error {
	return deleteDeployment(ctx, s.db, id)
}

func (s *SQLiteStore) ListDeployments(ctx context.Context, opts ListOptions) ([]domain.Deployment, error) {
	return listDeployments(ctx, s.db, opts)
}

func (s *SQLiteStore) ListDeploymentsByRepository(ctx context.Context, repositoryID string, opts ListOptions) ([]domain.Deployment, error) {
	return listDeploymentsByRepository(ctx, s.db, repositoryID, opts)
}

func (s *SQLiteStore) ListDeploymentsByStatus(ctx context.Context, status domain.DeploymentStatus) ([]domain.Deployment, error) {
	return listDeploymentsByStatus(ctx, s.db, status)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	return createRepository(ctx, s.tx, repo)
}

func (s *txSQLiteStore) GetRepository(ctx context.Context, id string) (*domain.Repository, error) {
	return getRepository(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetRepositoryByName(ctx context.Context, name string) (*domain.Repository, error) {
	return getRepositoryByName(ctx, s.tx, name)
}

func (s *txSQLiteStore) UpdateRepository(ctx context.Context, repo *domain.Repository) error {
	return updateRepository(ctx, s.tx, repo)
}

func (s *txSQLiteStore) DeleteRepository(ctx context.Context, id string) error {
	return deleteRepository(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListRepositories(ctx context.Context, opts ListOptions) ([]domain.Repository, error) {
	return listRepositories(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	return createDeployment(ctx, s.tx, deployment)
}

func (s *txSQLiteStore) GetDeployment(ctx context.Context, id string) (*domain.Deployment, error) {
	return getDeployment(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetDeploymentByName(ctx context.Context, name string) (*domain.Deployment, error) {
	return getDeploymentByName(ctx, s.tx, name)
}

func (s *txSQLiteStore) UpdateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	return updateDeployment(ctx, s.tx, deployment)
}

func (s *txSQLiteStore) DeleteDeployment(ctx context.Context, id string) error {
	return deleteDeployment(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListDeployments(ctx context.Context, opts ListOptions) ([]domain.Deployment, error) {
	return listDeployments(ctx, s.tx, opts)
}

func (s *txSQLiteStore) ListDeploymentsByRepository(ctx context.Context, repositoryID string, opts ListOptions) ([]domain.Deployment, error) {
	return listDeploymentsByRepository(ctx, s.tx, repositoryID, opts)
}

func (s *txSQLiteStore) ListDeploymentsByStatus(ctx context.Context, status domain.DeploymentStatus) ([]domain.Deployment, error) {
	return listDeploymentsByStatus(ctx, s.tx, status)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

func createRepository(ctx context.Context, exec executor, repo *domain.Repository) error {
	query := `
		INSERT INTO repositories (
			id, name, url, path, cloned, deploy_status, container_id,
			last_synced_at, created_at, updated_at
		) VALUES (
			:id, :name, :url, :path, :cloned, :deploy_status, :container_id,
			:last_synced_at, :created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, repositoryToRow(repo))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: repositories.id") {
			return NewStoreError("CreateRepository", "repository", repo.ID, "repository with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: repositories.name") {
			return NewStoreError("CreateRepository", "repository", repo.ID, "repository with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateRepository", "repository", repo.ID, err.Error(), err)
	}

	return nil
}

func getRepository(ctx context.Context, exec executor, id string) (*domain.Repository, error) {
	query := `SELECT * FROM repositories WHERE id = ?`

	var row repositoryRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRepository", "repository", id, "repository not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRepository", "repository", id, err.Error(), err)
	}

	return rowToRepository(&row)
}

func getRepositoryByName(ctx context.Context, exec executor, name string) (*domain.Repository, error) {
	query := `SELECT * FROM repositories WHERE name = ?`

	var row repositoryRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRepositoryByName", "repository", name, "repository not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRepositoryByName", "repository", name, err.Error(), err)
	}

	return rowToRepository(&row)
}

func updateRepository(ctx context.Context, exec executor, repo *domain.Repository) error {
	query := `
		UPDATE repositories SET
			name = :name,
			url = :url,
			path = :path,
			cloned = :cloned,
			deploy_status = :deploy_status,
			container_id = :container_id,
			last_synced_at = :last_synced_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, repositoryToRow(repo))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: repositories.name") {
			return NewStoreError("UpdateRepository", "repository", repo.ID, "repository with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("UpdateRepository", "repository", repo.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateRepository", "repository", repo.ID, "repository not found", ErrNotFound)
	}

	return nil
}

func deleteRepository(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM repositories WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("DeleteRepository", "repository", id, "repository has deployments", ErrForeignKey)
		}
		return NewStoreError("DeleteRepository", "repository", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteRepository", "repository", id, "repository not found", ErrNotFound)
	}

	return nil
}

func listRepositories(ctx context.Context, exec executor, opts ListOptions) ([]domain.Repository, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM repositories ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []repositoryRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListRepositories", "repository", "", err.Error(), err)
	}

	repos := make([]domain.Repository, 0, len(rows))
	for _, row := range rows {
		repo, err := rowToRepository(&row)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}

	return repos, nil
}

func createDeployment(ctx context.Context, exec executor, deployment *domain.Deployment) error {
	query := `
		INSERT INTO deployments (
			id, repository_id, name, stack, confidence_score, assigned_port,
			dockerfile_content, compose_content, status, container_id,
			error_message, log_tail, created_at, updated_at, started_at, stopped_at
		) VALUES (
			:id, :repository_id, :name, :stack, :confidence_score, :assigned_port,
			:dockerfile_content, :compose_content, :status, :container_id,
			:error_message, :log_tail, :created_at, :updated_at, :started_at, :stopped_at
		)`

	_, err := exec.NamedExecContext(ctx, query, deploymentToRow(deployment))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: deployments.id") {
			return NewStoreError("CreateDeployment", "deployment", deployment.ID, "deployment with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: deployments.name") {
			return NewStoreError("CreateDeployment", "deployment", deployment.ID, "deployment with this name already exists", ErrDuplicateName)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateDeployment", "deployment", deployment.ID, "repository does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateDeployment", "deployment", deployment.ID, err.Error(), err)
	}

	return nil
}

func getDeployment(ctx context.Context, exec executor, id string) (*domain.Deployment, error) {
	query := `SELECT * FROM deployments WHERE id = ?`

	var row deploymentRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDeployment", "deployment", id, "deployment not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDeployment", "deployment", id, err.Error(), err)
	}

	return rowToDeployment(&row)
}

func getDeploymentByName(ctx context.Context, exec executor, name string) (*domain.Deployment, error) {
	query := `SELECT * FROM deployments WHERE name = ?`

	var row deploymentRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDeploymentByName", "deployment", name, "deployment not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDeploymentByName", "deployment", name, err.Error(), err)
	}

	return rowToDeployment(&row)
}

func updateDeployment(ctx context.Context, exec executor, deployment *domain.Deployment) error {
	query := `
		UPDATE deployments SET
			repository_id = :repository_id,
			name = :name,
			stack = :stack,
			confidence_score = :confidence_score,
			assigned_port = :assigned_port,
			dockerfile_content = :dockerfile_content,
			compose_content = :compose_content,
			status = :status,
			container_id = :container_id,
			error_message = :error_message,
			log_tail = :log_tail,
			updated_at = :updated_at,
			started_at = :started_at,
			stopped_at = :stopped_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, deploymentToRow(deployment))
	if err != nil {
		return NewStoreError("UpdateDeployment", "deployment", deployment.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateDeployment", "deployment", deployment.ID, "deployment not found", ErrNotFound)
	}

	return nil
}

func deleteDeployment(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM deployments WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteDeployment", "deployment", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteDeployment", "deployment", id, "deployment not found", ErrNotFound)
	}

	return nil
}

func listDeployments(ctx context.Context, exec executor, opts ListOptions) ([]domain.Deployment, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM deployments ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []deploymentRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListDeployments", "deployment", "", err.Error(), err)
	}

	return rowsToDeployments(rows)
}

func listDeploymentsByRepository(ctx context.Context, exec executor, repositoryID string, opts ListOptions) ([]domain.Deployment, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM deployments WHERE repository_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []deploymentRow
	err := exec.SelectContext(ctx, &rows, query, repositoryID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListDeploymentsByRepository", "deployment", repositoryID, err.Error(), err)
	}

	return rowsToDeployments(rows)
}

func listDeploymentsByStatus(ctx context.Context, exec executor, status domain.DeploymentStatus) ([]domain.Deployment, error) {
	query := `SELECT * FROM deployments WHERE status = ? ORDER BY created_at DESC`

	var rows []deploymentRow
	err := exec.SelectContext(ctx, &rows, query, string(status))
	if err != nil {
		return nil, NewStoreError("ListDeploymentsByStatus", "deployment", string(status), err.Error(), err)
	}

	return rowsToDeployments(rows)
}

// =============================================================================
// Row Conversion
// =============================================================================

func repositoryToRow(repo *domain.Repository) map[string]any {
	return map[string]any{
		"id":             repo.ID,
		"name":           repo.Name,
		"url":            repo.URL,
		"path":           repo.Path,
		"cloned":         repo.Cloned,
		"deploy_status":  string(repo.DeployStatus),
		"container_id":   repo.ContainerID,
		"last_synced_at": formatOptionalTime(repo.LastSyncedAt),
		"created_at":     repo.CreatedAt.Format(time.RFC3339),
		"updated_at":     repo.UpdatedAt.Format(time.RFC3339),
	}
}

func rowToRepository(row *repositoryRow) (*domain.Repository, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToRepository", "repository", row.ID, "invalid created_at", ErrInvalidData)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToRepository", "repository", row.ID, "invalid updated_at", ErrInvalidData)
	}
	lastSyncedAt, err := parseOptionalTime(row.LastSyncedAt)
	if err != nil {
		return nil, NewStoreError("rowToRepository", "repository", row.ID, "invalid last_synced_at", ErrInvalidData)
	}

	return &domain.Repository{
		ID:           row.ID,
		Name:         row.Name,
		URL:          row.URL,
		Path:         row.Path,
		Cloned:       row.Cloned,
		DeployStatus: domain.DeploymentStatus(row.DeployStatus),
		ContainerID:  row.ContainerID,
		LastSyncedAt: lastSyncedAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func deploymentToRow(deployment *domain.Deployment) map[string]any {
	return map[string]any{
		"id":                 deployment.ID,
		"repository_id":      deployment.RepositoryID,
		"name":               deployment.Name,
		"stack":              string(deployment.Stack),
		"confidence_score":   deployment.Confidence,
		"assigned_port":      deployment.AssignedPort,
		"dockerfile_content": deployment.Dockerfile,
		"compose_content":    deployment.ComposeFile,
		"status":             string(deployment.Status),
		"container_id":       deployment.ContainerID,
		"error_message":      deployment.ErrorMessage,
		"log_tail":           deployment.LogTail,
		"created_at":         deployment.CreatedAt.Format(time.RFC3339),
		"updated_at":         deployment.UpdatedAt.Format(time.RFC3339),
		"started_at":         formatOptionalTime(deployment.StartedAt),
		"stopped_at":         formatOptionalTime(deployment.StoppedAt),
	}
}

func rowToDeployment(row *deploymentRow) (*domain.Deployment, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToDeployment", "deployment", row.ID, "invalid created_at", ErrInvalidData)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToDeployment", "deployment", row.ID, "invalid updated_at", ErrInvalidData)
	}
	startedAt, err := parseOptionalTime(row.StartedAt)
	if err != nil {
		return nil, NewStoreError("rowToDeployment", "deployment", row.ID, "invalid started_at", ErrInvalidData)
	}
	stoppedAt, err := parseOptionalTime(row.StoppedAt)
	if err != nil {
		return nil, NewStoreError("rowToDeployment", "deployment", row.ID, "invalid stopped_at", ErrInvalidData)
	}

	return &domain.Deployment{
		ID:           row.ID,
		RepositoryID: row.RepositoryID,
		Name:         row.Name,
		Stack:        stack.Stack(row.Stack),
		Confidence:   row.Confidence,
		AssignedPort: row.AssignedPort,
		Dockerfile:   row.Dockerfile,
		ComposeFile:  row.ComposeFile,
		Status:       domain.DeploymentStatus(row.Status),
		ContainerID:  row.ContainerID,
		ErrorMessage: row.ErrorMessage,
		LogTail:      row.LogTail,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		StartedAt:    startedAt,
		StoppedAt:    stoppedAt,
	}, nil
}

func rowsToDeployments(rows []deploymentRow) ([]domain.Deployment, error) {
	deployments := make([]domain.Deployment, 0, len(rows))
	for _, row := range rows {
		deployment, err := rowToDeployment(&row)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *deployment)
	}
	return deployments, nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
