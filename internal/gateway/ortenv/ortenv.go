// Package ortenv owns the process-wide ONNX Runtime environment shared by
// the vision and encoder capabilities.
package ortenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

var env struct {
	once sync.Once
	err  error
}

// Init initializes the ONNX Runtime from the shared library at libPath.
// Only the first call has any effect; later calls return its result.
func Init(libPath string) error {
	env.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			env.err = fmt.Errorf("onnx: failed to initialize runtime from %s: %w", libPath, err)
		}
	})
	return env.err
}

// LibraryPath resolves the runtime library: explicit path first, otherwise
// libonnxruntime.so next to the model file.
func LibraryPath(explicit, modelPath string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
}

// NewSessionOptions returns options tuned for single-request inference.
// The caller must Destroy them.
func NewSessionOptions() (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(4); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("onnx: intra-op threads: %w", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("onnx: inter-op threads: %w", err)
	}
	return opts, nil
}

// ModTime returns the modification time of path, or the zero time when it
// cannot be read.
func ModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
