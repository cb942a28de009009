//go:build basic || database

// Package integration contains end-to-end tests for the fika CLI.
// These tests are excluded from normal test runs due to build tags.
// To run them: go test -tags basic ./integration
// Or with database containers: go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedFikaPath holds the path to a shared fika binary built once for all tests.
	sharedFikaPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getFikaBinary returns the path to the fika binary, building it once if needed.
func getFikaBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "fika-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		fikaPath := filepath.Join(tempDir, "fika")
		buildCmd := exec.Command("go", "build", "-o", fikaPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build fika: %v", err))
		}

		sharedFikaPath = fikaPath
	})

	return sharedFikaPath
}

// runFikaCommand runs the shared fika binary with the given arguments.
func runFikaCommand(t *testing.T, args ...string) error {
	t.Helper()
	fikaPath := getFikaBinary()
	cmd := exec.Command(fikaPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
