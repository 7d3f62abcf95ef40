// Package e2e provides end-to-end testing utilities for repodock.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

// fixtureCloner materializes a fixture working tree instead of hitting
// the network. The fixture is selected by repository name.
type fixtureCloner struct {
	fixtures map[string]map[string]string // repo name -> relative path -> content
}

func (c *fixtureCloner) Clone(ctx context.Context, url, destDir string) error {
	name := filepath.Base(destDir)
	files, ok := c.fixtures[name]
	if !ok {
		return fmt.Errorf("no fixture for %s", name)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for rel, content := range files {
		path := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// recordingRuntime accepts every container operation and reports a fixed
// container.
type recordingRuntime struct{}

func (recordingRuntime) BuildImage(ctx context.Context, dir, name string) error     { return nil }
func (recordingRuntime) ComposeUp(ctx context.Context, dir, project string) error   { return nil }
func (recordingRuntime) ComposeDown(ctx context.Context, dir, project string) error { return nil }
func (recordingRuntime) ComposeRestart(ctx context.Context, dir, p string) error    { return nil }
func (recordingRuntime) ContainerLogs(ctx context.Context, id string, n int) string {
	return "server listening"
}
func (recordingRuntime) ContainerID(ctx context.Context, dir, project string) (string, error) {
	return "e2e-container", nil
}

// =============================================================================
// HTTP Helpers
// =============================================================================

// HTTPGet performs a GET request and fails the test on transport errors.
func HTTPGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := testClient.Get(url)
	require.NoError(t, err)
	return resp
}

// HTTPPost performs a POST request with an optional JSON body.
func HTTPPost(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	resp, err := testClient.Post(url, "application/json", reader)
	require.NoError(t, err)
	return resp
}

// HTTPDelete performs a DELETE request.
func HTTPDelete(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := testClient.Do(req)
	require.NoError(t, err)
	return resp
}

// DecodeBody decodes a JSON response body and closes it.
func DecodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// waitForReady polls a URL until it responds with 200 or the timeout
// elapses.
func waitForReady(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server at %s did not become ready within %s", url, timeout)
}
