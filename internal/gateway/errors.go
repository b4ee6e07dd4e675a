package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when a capability is invoked before it loaded
	// successfully, or after the gateway was degraded by a load failure.
	ErrNotReady = errors.New("gateway: capability not ready")

	// ErrModelLoad matches every *ModelLoadError via errors.Is.
	ErrModelLoad = errors.New("gateway: model load failed")
)

// ModelLoadError reports which capability failed to load.
type ModelLoadError struct {
	Capability string
	Err        error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("gateway: load %s: %v", e.Capability, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

func (e *ModelLoadError) Is(target error) bool { return target == ErrModelLoad }
