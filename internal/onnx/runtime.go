// Package onnx locates and initializes the ONNX Runtime shared library and
// converts feature vectors into runtime tensors.
package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// LibraryEnv names the environment variable that overrides library discovery.
const LibraryEnv = "ONNXRUNTIME_LIB"

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// ErrLibraryNotFound is returned when no ONNX Runtime library can be located.
var ErrLibraryNotFound = errors.New("onnx runtime library not found")

var initMu sync.Mutex

// systemLibraryPaths lists the well-known install locations checked first.
func systemLibraryPaths() []string {
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

// libraryName returns the shared library filename for goos.
func libraryName(goos string) (string, error) {
	switch goos {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// findProjectRoot walks up from dir until a go.mod or onnxruntime directory
// is found.
func findProjectRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "onnxruntime")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}

// candidatePaths returns the library locations in lookup order: the
// environment override, system paths, then <project>/onnxruntime/lib.
func candidatePaths() []string {
	var paths []string
	if p := os.Getenv(LibraryEnv); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, systemLibraryPaths()...)

	name, err := libraryName(runtime.GOOS)
	if err != nil {
		return paths
	}
	if cwd, err := os.Getwd(); err == nil {
		if root, err := findProjectRoot(cwd); err == nil {
			paths = append(paths, filepath.Join(root, "onnxruntime", "lib", name))
		}
	}
	return paths
}

// FindLibrary returns the first existing ONNX Runtime library path.
func FindLibrary() (string, error) {
	for _, p := range candidatePaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrLibraryNotFound
}

// EnsureInitialized sets the shared library path and initializes the runtime
// environment once per process.
func EnsureInitialized() error {
	initMu.Lock()
	defer initMu.Unlock()

	if onnxrt.IsInitialized() {
		return nil
	}
	lib, err := FindLibrary()
	if err != nil {
		return err
	}
	onnxrt.SetSharedLibraryPath(lib)
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	slog.Debug("ONNX Runtime initialized", "library", lib)
	return nil
}
