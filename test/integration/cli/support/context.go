// Package support holds the godog step definitions of the CLI suite.
package support

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/digitread/cmd/digitread/cmd"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	TempDir   string
	ModelsDir string

	// Command execution state
	LastArgs   []string
	LastOutput string
	LastStderr string
	LastError  error

	// HTTP state
	Server             *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	savedEnv map[string]*string
}

// NewTestContext creates a context with its own temporary directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "digitread-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		TempDir:   tempDir,
		ModelsDir: filepath.Join(tempDir, "models"),
	}, nil
}

// Cleanup stops the test server and removes the temporary directory.
func (tc *TestContext) Cleanup() error {
	if tc.Server != nil {
		tc.Server.Close()
		tc.Server = nil
	}
	tc.restoreEnv()
	if err := os.RemoveAll(tc.TempDir); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", tc.TempDir, err)
	}
	return nil
}

// Path resolves a scenario-relative file name inside the temp directory.
func (tc *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(tc.TempDir, name)
}

// expandArgs splits a command line and replaces {tmp} with the temp
// directory.
func (tc *TestContext) expandArgs(commandLine string) []string {
	fields := strings.Fields(commandLine)
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "{tmp}", tc.TempDir)
	}
	return fields
}

// RunCLI executes the digitread command tree in-process. The scenario's
// models directory is passed when a step created it and the arguments do
// not name another one.
func (tc *TestContext) RunCLI(args []string) {
	full := args
	if _, err := os.Stat(tc.ModelsDir); err == nil && !containsFlag(args, "--models-dir") {
		full = append([]string{"--models-dir", tc.ModelsDir}, args...)
	}

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(full)

	tc.LastArgs = full
	tc.LastError = root.Execute()
	tc.LastOutput = stdout.String()
	tc.LastStderr = stderr.String()
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

func parentDir(path string) string {
	return filepath.Dir(path)
}

// setEnv sets a process environment variable, remembering its previous
// value for restoreEnv.
func (tc *TestContext) setEnv(name, value string) {
	if tc.savedEnv == nil {
		tc.savedEnv = make(map[string]*string)
	}
	if _, seen := tc.savedEnv[name]; !seen {
		if old, ok := os.LookupEnv(name); ok {
			tc.savedEnv[name] = &old
		} else {
			tc.savedEnv[name] = nil
		}
	}
	_ = os.Setenv(name, value)
}

func (tc *TestContext) restoreEnv() {
	for name, old := range tc.savedEnv {
		if old == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *old)
		}
	}
	tc.savedEnv = nil
}
