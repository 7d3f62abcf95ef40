// Package git materializes remote repositories on local disk for the
// clone queue.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	giturls "github.com/whilp/git-urls"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidURL is returned when a repository URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid repository URL")

	// ErrCloneFailed is returned when a clone does not complete.
	ErrCloneFailed = errors.New("clone failed")

	// ErrNotARepository is returned when a path holds no git repository.
	ErrNotARepository = errors.New("not a git repository")
)

// =============================================================================
// Client
// =============================================================================

// Client clones and updates repositories. The zero options clone over
// HTTPS anonymously.
type Client struct{}

// NewClient creates a git client.
func NewClient() *Client {
	return &Client{}
}

// ValidateURL checks that rawURL parses as a git remote.
func (c *Client) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrInvalidURL
	}
	u, err := giturls.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// RepositoryName derives a filesystem-safe name from a remote URL, the
// final path segment without the .git suffix.
func (c *Client) RepositoryName(rawURL string) (string, error) {
	u, err := giturls.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	name := strings.TrimSuffix(filepath.Base(u.Path), ".git")
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: no repository name in path", ErrInvalidURL)
	}
	return name, nil
}

// Clone clones url into destDir. A failed or cancelled clone removes
// the partially written directory so a retry starts clean.
func (c *Client) Clone(ctx context.Context, url, destDir string) error {
	if err := c.ValidateURL(url); err != nil {
		return err
	}

	_, err := gogit.PlainCloneContext(ctx, destDir, false, &gogit.CloneOptions{
		URL: url,
	})
	if err != nil {
		os.RemoveAll(destDir)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrCloneFailed, ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrCloneFailed, err)
	}

	return nil
}

// Pull fast-forwards the checkout at repoPath to the remote head.
func (c *Client) Pull(ctx context.Context, repoPath string) error {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotARepository, repoPath)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName: "origin",
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull: %w", err)
	}

	return nil
}

// CloneOrPull clones when destDir holds no repository, pulls otherwise.
func (c *Client) CloneOrPull(ctx context.Context, url, destDir string) error {
	gitDir := filepath.Join(destDir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return c.Clone(ctx, url, destDir)
	}
	return c.Pull(ctx, destDir)
}

// HeadCommit returns the hash of the checkout's HEAD commit.
func (c *Client) HeadCommit(repoPath string) (string, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotARepository, repoPath)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if head.Hash() == plumbing.ZeroHash {
		return "", fmt.Errorf("resolve HEAD: empty repository")
	}

	return head.Hash().String(), nil
}
